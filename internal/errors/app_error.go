package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind groups error codes by how a caller is expected to react to them.
type Kind string

const (
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindConflict     Kind = "conflict"
	KindConcurrency  Kind = "concurrency"
	KindInternal     Kind = "internal"
	KindUnauthorized Kind = "unauthorized"
	KindForbidden    Kind = "forbidden"
	KindRateLimited  Kind = "rate_limited"
)

type AppError struct {
	Kind       Kind
	Code       string
	Message    string
	Detail     string
	StatusCode int
	Err        error
}

func (e *AppError) Error() string {
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func NewAppError(kind Kind, code, message string, statusCode int) *AppError {
	return &AppError{
		Kind:       kind,
		Code:       code,
		Message:    message,
		StatusCode: statusCode,
	}
}

func (e *AppError) WithDetail(detail string) *AppError {
	e.Detail = detail

	return e
}

func (e *AppError) WithError(err error) *AppError {
	e.Err = err

	return e
}

const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeUnauthorized    = "UNAUTHORIZED"
	ErrCodeForbidden       = "FORBIDDEN"
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeDatabaseError   = "DATABASE_ERROR"
	ErrCodeThirdPartyError = "THIRD_PARTY_ERROR"
	ErrCodeTooManyRequests = "TOO_MANY_REQUESTS"

	ErrCodeInvalidQuantity        = "INVALID_QUANTITY"
	ErrCodeItemNotFound           = "ITEM_NOT_FOUND"
	ErrCodeOutOfStock             = "OUT_OF_STOCK"
	ErrCodeDiscountInvalid        = "DISCOUNT_INVALID"
	ErrCodeDiscountExpired        = "DISCOUNT_EXPIRED"
	ErrCodeDiscountInactive       = "DISCOUNT_INACTIVE"
	ErrCodeInsufficientPoints     = "INSUFFICIENT_POINTS"
	ErrCodeInvalidPoints          = "INVALID_POINTS"
	ErrCodeInvalidStateTransition = "INVALID_STATE_TRANSITION"
	ErrCodeConcurrencyConflict    = "CONCURRENCY_CONFLICT"
)

func ValidationError(message string) *AppError {
	return NewAppError(KindValidation, ErrCodeValidation, message, http.StatusBadRequest)
}

func BadRequestError(message string) *AppError {
	return NewAppError(KindValidation, ErrCodeBadRequest, message, http.StatusBadRequest)
}

func NotFoundError(message string) *AppError {
	return NewAppError(KindNotFound, ErrCodeNotFound, message, http.StatusNotFound)
}

func UnauthorizedError(message string) *AppError {
	return NewAppError(KindUnauthorized, ErrCodeUnauthorized, message, http.StatusUnauthorized)
}

func ForbiddenError(message string) *AppError {
	return NewAppError(KindForbidden, ErrCodeForbidden, message, http.StatusForbidden)
}

func InternalError(message string) *AppError {
	return NewAppError(KindInternal, ErrCodeInternal, message, http.StatusInternalServerError)
}

func DatabaseError(message string) *AppError {
	return NewAppError(KindInternal, ErrCodeDatabaseError, message, http.StatusInternalServerError)
}

func ThirdPartyError(message string) *AppError {
	return NewAppError(KindInternal, ErrCodeThirdPartyError, message, http.StatusBadGateway)
}

func TooManyRequestsError(message string) *AppError {
	return NewAppError(KindRateLimited, ErrCodeTooManyRequests, message, http.StatusTooManyRequests)
}

// Cart and checkout errors.

func InvalidQuantityError(quantity int) *AppError {
	return NewAppError(KindValidation, ErrCodeInvalidQuantity, "Quantity must be at least 1", http.StatusBadRequest).
		WithDetail(fmt.Sprintf("requested quantity: %d", quantity))
}

func QuantityTooLargeError(quantity, limit int) *AppError {
	return NewAppError(KindValidation, ErrCodeInvalidQuantity, fmt.Sprintf("Quantity must be at most %d", limit), http.StatusBadRequest).
		WithDetail(fmt.Sprintf("requested quantity: %d", quantity))
}

func ItemNotFoundError(variantID string) *AppError {
	return NewAppError(KindNotFound, ErrCodeItemNotFound, "Item not found in the cart", http.StatusNotFound).
		WithDetail(fmt.Sprintf("variant: %s", variantID))
}

func OutOfStockError(variantID string, requested, available int) *AppError {
	return NewAppError(KindConflict, ErrCodeOutOfStock, "Insufficient stock for the requested quantity", http.StatusConflict).
		WithDetail(fmt.Sprintf("variant %s: requested %d, available %d", variantID, requested, available))
}

func DiscountInvalidError(code string) *AppError {
	return NewAppError(KindConflict, ErrCodeDiscountInvalid, "Discount code is not valid", http.StatusConflict).
		WithDetail(fmt.Sprintf("code: %s", code))
}

func DiscountExpiredError(code string) *AppError {
	return NewAppError(KindConflict, ErrCodeDiscountExpired, "Discount code has expired", http.StatusConflict).
		WithDetail(fmt.Sprintf("code: %s", code))
}

func DiscountInactiveError(code string) *AppError {
	return NewAppError(KindConflict, ErrCodeDiscountInactive, "Discount code is not active", http.StatusConflict).
		WithDetail(fmt.Sprintf("code: %s", code))
}

func InsufficientPointsError(requested, balance int64) *AppError {
	return NewAppError(KindConflict, ErrCodeInsufficientPoints, "Not enough loyalty points", http.StatusConflict).
		WithDetail(fmt.Sprintf("requested %d, balance %d", requested, balance))
}

func InvalidPointsError(points int64) *AppError {
	return NewAppError(KindValidation, ErrCodeInvalidPoints, "Loyalty points must not be negative", http.StatusBadRequest).
		WithDetail(fmt.Sprintf("requested points: %d", points))
}

func InvalidStateTransitionError(from, to string) *AppError {
	return NewAppError(KindConflict, ErrCodeInvalidStateTransition, "Order cannot move to the requested status", http.StatusConflict).
		WithDetail(fmt.Sprintf("%s -> %s", from, to))
}

func ConcurrencyError(message string) *AppError {
	return NewAppError(KindConcurrency, ErrCodeConcurrencyConflict, message, http.StatusConflict)
}

func IsAppError(err error) (*AppError, bool) {
	var appError *AppError

	if errors.As(err, &appError) {
		return appError, true
	}

	return nil, false
}

// HasCode reports whether err carries an AppError with the given code.
func HasCode(err error, code string) bool {
	appErr, ok := IsAppError(err)

	return ok && appErr.Code == code
}

// IsRetryable reports whether the caller may safely retry the operation.
// Only concurrency conflicts qualify.
func IsRetryable(err error) bool {
	appErr, ok := IsAppError(err)

	return ok && appErr.Kind == KindConcurrency
}

// field validation error.
func AddValidationError(field, reason string) *AppError {
	return ValidationError(fmt.Sprintf("Invalid field '%s': %s", field, reason))
}
