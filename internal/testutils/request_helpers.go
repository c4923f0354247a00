package testutils

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/identity"
	"github.com/aaravmahajanofficial/storefront/internal/models"
	"github.com/google/uuid"
)

// CreateTestRequestWithContext builds a request that already went through
// the identity middleware as owner. Users get a separate browser session.
func CreateTestRequestWithContext(method, target string, body io.Reader, owner models.OwnerKey, pathParams map[string]string) *http.Request {
	res := identity.Resolution{Owner: owner, SessionID: owner.ID}
	if owner.IsUser() {
		res.SessionID = uuid.NewString()
	}

	return CreateTestRequestWithResolution(method, target, body, res, pathParams)
}

func CreateTestRequestWithResolution(method, target string, body io.Reader, res identity.Resolution, pathParams map[string]string) *http.Request {
	req := CreateTestRequestWithoutContext(method, target, body, pathParams)

	return req.WithContext(identity.WithResolution(req.Context(), res))
}

func CreateTestRequestWithoutContext(method, target string, body io.Reader, pathParams map[string]string) *http.Request {
	req := httptest.NewRequest(method, target, body)

	for key, value := range pathParams {
		req.SetPathValue(key, value)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := middleware.WithLogger(req.Context(), logger)

	return req.WithContext(ctx)
}
