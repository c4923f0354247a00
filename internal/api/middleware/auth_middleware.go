package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/identity"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
)

type IdentityMiddleware struct {
	resolver     *identity.Resolver
	cookieName   string
	cookieTTL    time.Duration
	cookieSecure bool
}

func NewIdentityMiddleware(resolver *identity.Resolver, cookieName string, cookieTTL time.Duration, cookieSecure bool) *IdentityMiddleware {

	return &IdentityMiddleware{resolver: resolver, cookieName: cookieName, cookieTTL: cookieTTL, cookieSecure: cookieSecure}

}

// Identify resolves the owner of every request. It never rejects: an
// invalid token is logged and the caller continues as their session.
func (m *IdentityMiddleware) Identify(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {

		logger := LoggerFromContext(r.Context())

		res := m.resolver.Resolve(r)

		if res.TokenErr != nil {
			logger.Warn("Ignoring invalid bearer token", slog.String("error", res.TokenErr.Error()))
		}

		if res.Minted {
			http.SetCookie(w, &http.Cookie{
				Name:     m.cookieName,
				Value:    res.SessionID,
				Path:     "/",
				MaxAge:   int(m.cookieTTL.Seconds()),
				HttpOnly: true,
				Secure:   m.cookieSecure,
				SameSite: http.SameSiteLaxMode,
			})
		}

		requestScopedLogger := logger.With(slog.String("owner", res.Owner.String()))

		ctx := identity.WithResolution(r.Context(), res)
		ctx = WithLogger(ctx, requestScopedLogger)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects requests that did not present a valid bearer token.
func (m *IdentityMiddleware) RequireUser(next http.Handler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {

		res, ok := identity.FromContext(r.Context())
		if !ok || !res.Owner.IsUser() {
			LoggerFromContext(r.Context()).Warn("Authenticated endpoint called without a valid token")
			response.Error(w, errors.UnauthorizedError("Authentication required"))
			return
		}

		next.ServeHTTP(w, r)
	}
}
