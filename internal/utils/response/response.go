// Package response writes the JSON envelope every API endpoint answers with.
package response

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/aaravmahajanofficial/storefront/internal/errors"
	"github.com/go-playground/validator/v10"
)

type APIResponse struct {
	Success bool           `json:"success"`
	Data    any            `json:"data,omitempty"`
	Error   *ErrorResponse `json:"error,omitempty"`
}

type ErrorResponse struct {
	Code    string   `json:"code"`
	Message string   `json:"message"`
	Details []string `json:"details,omitempty"`
}

func Success(w http.ResponseWriter, statusCode int, data any) {
	write(w, statusCode, APIResponse{Success: true, Data: data})
}

// Error renders an AppError with its own status and code. Anything else is
// reported as an opaque 500 so internals never reach the client.
func Error(w http.ResponseWriter, err error) {
	appErr, ok := errors.IsAppError(err)
	if !ok {
		fail(w, http.StatusInternalServerError, &ErrorResponse{
			Code:    errors.ErrCodeInternal,
			Message: "An unexpected error occurred",
		})
		return
	}

	body := &ErrorResponse{Code: appErr.Code, Message: appErr.Message}
	if appErr.Detail != "" {
		body.Details = []string{appErr.Detail}
	}

	fail(w, appErr.StatusCode, body)
}

func ValidationError(w http.ResponseWriter, errs validator.ValidationErrors) {
	details := make([]string, 0, len(errs))
	for _, fe := range errs {
		details = append(details, describe(fe))
	}

	fail(w, http.StatusBadRequest, &ErrorResponse{
		Code:    errors.ErrCodeValidation,
		Message: "Validation failed",
		Details: details,
	})
}

var ruleMessages = map[string]string{
	"required":         "Field %[1]s is required",
	"email":            "Field %[1]s must be a valid email address",
	"min":              "Field %[1]s must be at least %[2]s characters",
	"max":              "Field %[1]s must be at most %[2]s characters",
	"gt":               "Field %[1]s must be greater than %[2]s",
	"lt":               "Field %[1]s must be less than %[2]s",
	"gte":              "Field %[1]s must be at least %[2]s",
	"lte":              "Field %[1]s must be at most %[2]s",
	"oneof":            "Field %[1]s must be one of: %[2]s",
	"iso3166_1_alpha2": "Field %[1]s must be a two-letter country code",
}

func describe(fe validator.FieldError) string {
	format, ok := ruleMessages[fe.Tag()]
	if !ok {
		return fmt.Sprintf("Field %s is invalid: %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}

	return fmt.Sprintf(format, fe.Field(), fe.Param())
}

func fail(w http.ResponseWriter, statusCode int, body *ErrorResponse) {
	write(w, statusCode, APIResponse{Success: false, Error: body})
}

func write(w http.ResponseWriter, statusCode int, body APIResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		slog.Warn("Failed to encode response", slog.Any("error", err))
	}
}
