// Package apperrors provides standardized error handling for the suggestion
// backend, mapping the internal taxonomy onto HTTP status codes for the API
// layer.
package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents semantic error codes for consistent error handling
type ErrorCode string

const (
	// Authentication errors
	ErrorCodeUnauthenticated ErrorCode = "UNAUTHENTICATED"

	// Validation errors
	ErrorCodeValidationError ErrorCode = "VALIDATION_ERROR"
	ErrorCodeRequiredField   ErrorCode = "REQUIRED_FIELD"
	ErrorCodeInvalidValue    ErrorCode = "INVALID_VALUE"

	// Resource errors
	ErrorCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrorCodeTaskNotFound ErrorCode = "TASK_NOT_FOUND"
	ErrorCodeSlotsFull    ErrorCode = "SLOTS_FULL"

	// Suggestion pipeline errors
	ErrorCodeSuggestionExhausted ErrorCode = "SUGGESTION_EXHAUSTED"
	ErrorCodeNoRerollsLeft       ErrorCode = "NO_REROLLS_LEFT"
	ErrorCodeInvalidTransition   ErrorCode = "INVALID_TRANSITION"

	// System errors
	ErrorCodeInternalError ErrorCode = "INTERNAL_ERROR"
	ErrorCodeStoreError    ErrorCode = "STORE_ERROR"
	ErrorCodeTimeout       ErrorCode = "TIMEOUT"
)

// Error is the unified error structure carried across layers.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	cause   error
}

// Error implements the Go error interface
func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.cause)
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is/As.
func (e *Error) Unwrap() error {
	return e.cause
}

// New creates a new standardized error
func New(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Wrap creates a standardized error wrapping an underlying cause
func Wrap(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, cause: cause}
}

// NewUnauthenticated creates an error for flows with no resolvable user
func NewUnauthenticated(reason string) *Error {
	return &Error{
		Code:    ErrorCodeUnauthenticated,
		Message: "authentication required: " + reason,
	}
}

// NewRequiredFieldError creates an error for missing required fields
func NewRequiredFieldError(field string) *Error {
	return &Error{
		Code:    ErrorCodeRequiredField,
		Message: fmt.Sprintf("required field '%s' is missing", field),
	}
}

// CodeOf extracts the semantic code from err, or INTERNAL_ERROR when err is
// not a standardized error.
func CodeOf(err error) ErrorCode {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrorCodeInternalError
}

// HTTPStatus maps err's semantic code onto an HTTP status code.
func HTTPStatus(err error) int {
	switch CodeOf(err) {
	case ErrorCodeUnauthenticated:
		return http.StatusUnauthorized
	case ErrorCodeValidationError, ErrorCodeRequiredField, ErrorCodeInvalidValue:
		return http.StatusBadRequest
	case ErrorCodeNotFound, ErrorCodeTaskNotFound:
		return http.StatusNotFound
	case ErrorCodeNoRerollsLeft, ErrorCodeInvalidTransition, ErrorCodeSlotsFull:
		return http.StatusConflict
	case ErrorCodeTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
