package service

import (
	stdErrors "errors"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	repository "github.com/aaravmahajanofficial/storefront/internal/repositories"
)

// storeFailure turns a repository error into an AppError. Version
// conflicts become retryable concurrency errors.
func storeFailure(err error, message string) error {
	if _, ok := errors.IsAppError(err); ok {
		return err
	}

	if stdErrors.Is(err, repository.ErrVersionConflict) {
		return errors.ConcurrencyError("The resource was modified concurrently, please retry").WithError(err)
	}

	return errors.DatabaseError(message).WithError(err)
}

// errorCode is the AppError code for metrics labels, "" on success.
func errorCode(err error) string {
	if err == nil {
		return ""
	}

	if appErr, ok := errors.IsAppError(err); ok {
		return appErr.Code
	}

	return errors.ErrCodeInternal
}
