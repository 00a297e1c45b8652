// Package response provides standardized HTTP response structures and
// utilities for the API layer.
package response

import (
	"encoding/json"
	"net/http"
	"time"

	"habitquest/internal/apperrors"
)

// ErrorResponse represents a standardized error response
type ErrorResponse struct {
	Error     ErrorDetails `json:"error"`
	Timestamp string       `json:"timestamp"`
	RequestID string       `json:"request_id,omitempty"`
}

// ErrorDetails contains detailed error information
type ErrorDetails struct {
	Code    apperrors.ErrorCode `json:"code"`
	Message string              `json:"message"`
}

// SuccessResponse represents a standardized success response
type SuccessResponse struct {
	Data      interface{} `json:"data"`
	Message   string      `json:"message,omitempty"`
	Timestamp string      `json:"timestamp"`
}

// WriteError writes a standardized error response
func WriteError(w http.ResponseWriter, statusCode int, code apperrors.ErrorCode, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := ErrorResponse{
		Error:     ErrorDetails{Code: code, Message: message},
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	_ = json.NewEncoder(w).Encode(resp)
}

// WriteAppError writes an error response derived from a standardized error
func WriteAppError(w http.ResponseWriter, err error) {
	WriteError(w, apperrors.HTTPStatus(err), apperrors.CodeOf(err), err.Error())
}

// WriteSuccess writes a standardized success response
func WriteSuccess(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	resp := SuccessResponse{
		Data:      data,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}
	_ = json.NewEncoder(w).Encode(resp)
}
