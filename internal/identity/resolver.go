// Package identity turns an incoming request into the cart owner it acts
// for. Credentials are issued elsewhere; this package only verifies them.
package identity

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Resolution is what Resolve learned about the caller.
type Resolution struct {
	Owner models.OwnerKey
	// SessionID is the anonymous session of the browser, also set for
	// authenticated users so their session cart can be merged at login.
	SessionID string
	// Minted is true when the session id was generated for this request
	// and still has to be set as a cookie.
	Minted bool
	// TokenErr explains why a presented bearer token was ignored.
	TokenErr error
}

type Resolver struct {
	jwtKey     []byte
	cookieName string
	newID      func() string
}

func NewResolver(jwtKey []byte, cookieName string) *Resolver {
	return &Resolver{jwtKey: jwtKey, cookieName: cookieName, newID: uuid.NewString}
}

// Resolve never fails. A bad bearer token falls back to the session, and a
// missing session gets a fresh id.
func (r *Resolver) Resolve(req *http.Request) Resolution {
	res := Resolution{}

	if cookie, err := req.Cookie(r.cookieName); err == nil && validSessionID(cookie.Value) {
		res.SessionID = cookie.Value
	} else {
		res.SessionID = r.newID()
		res.Minted = true
	}

	res.Owner = models.SessionOwner(res.SessionID)

	token, present := bearerToken(req)
	if !present {
		return res
	}

	claims, err := r.verify(token)
	if err != nil {
		res.TokenErr = err
		return res
	}

	res.Owner = models.UserOwner(claims.UserID)

	return res
}

func (r *Resolver) verify(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return r.jwtKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}

	if !token.Valid {
		return nil, errors.New("invalid token")
	}

	if strings.TrimSpace(claims.UserID) == "" {
		return nil, errors.New("token carries no user id")
	}

	return claims, nil
}

// bearerToken reports whether an Authorization header was sent at all.
func bearerToken(req *http.Request) (string, bool) {
	header := req.Header.Get("Authorization")
	if header == "" {
		return "", false
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", true
	}

	return strings.TrimSpace(token), true
}

func validSessionID(id string) bool {
	return uuid.Validate(id) == nil
}

type resolutionKey struct{}

func WithResolution(ctx context.Context, res Resolution) context.Context {
	return context.WithValue(ctx, resolutionKey{}, res)
}

// FromContext returns the resolution stored by the identity middleware.
func FromContext(ctx context.Context) (Resolution, bool) {
	res, ok := ctx.Value(resolutionKey{}).(Resolution)
	return res, ok
}
