package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/aaravmahajanofficial/storefront/internal/api/middleware"
	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/aaravmahajanofficial/storefront/internal/identity"
	"github.com/aaravmahajanofficial/storefront/internal/notifier"
	"github.com/aaravmahajanofficial/storefront/internal/utils/response"
	"github.com/cenkalti/backoff/v4"
)

// clientIDHeader names the browser tab that caused a change, so the event
// stream of that tab can skip its own echo.
const clientIDHeader = "X-Client-ID"

// resolve returns the caller identity placed on the context by the identity
// middleware, and a context carrying the client id of the request.
func resolve(w http.ResponseWriter, r *http.Request) (context.Context, identity.Resolution, *slog.Logger, bool) {
	logger := middleware.LoggerFromContext(r.Context())

	res, ok := identity.FromContext(r.Context())
	if !ok {
		logger.Error("Request reached a handler without an identity")
		response.Error(w, errors.UnauthorizedError("Unable to identify caller"))
		return nil, identity.Resolution{}, logger, false
	}

	ctx := r.Context()
	if clientID := r.Header.Get(clientIDHeader); clientID != "" {
		ctx = notifier.WithClientID(ctx, clientID)
	}

	return ctx, res, logger, true
}

// retry runs op again while it fails with a retryable error, backing off
// exponentially. Non-retryable errors are returned at once.
func retry[T any](ctx context.Context, maxRetries uint64, op func() (T, error)) (T, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = 50 * time.Millisecond
	policy.MaxInterval = time.Second
	policy.MaxElapsedTime = 5 * time.Second

	var result T

	err := backoff.Retry(func() error {
		var err error

		result, err = op()
		if err != nil && !errors.IsRetryable(err) {
			return backoff.Permanent(err)
		}

		return err
	}, backoff.WithContext(backoff.WithMaxRetries(policy, maxRetries), ctx))

	return result, err
}

// queryInt returns fallback when the parameter is missing and ok=false when
// it is present but not an integer.
func queryInt(r *http.Request, name string, fallback int64) (int64, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, true
	}

	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}

	return v, true
}
