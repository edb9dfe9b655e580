// Package apierror provides standardized error response structures for the API.
// All errors returned to clients go through this package to ensure consistency
// and to prevent leaking internal details (stack traces, DB errors, etc.).
package apierror

import (
	"errors"
	"net/http"
)

// APIError is the canonical error envelope for all 4xx/5xx HTTP responses.
type APIError struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Type    string `json:"type,omitempty"`
	Field   string `json:"field,omitempty"`
}

func New(msg string) *APIError {
	return &APIError{Message: msg}
}

// NewField builds a validation envelope pointing at a single request field.
func NewField(field, msg string) *APIError {
	return &APIError{Message: msg, Type: KindValidation, Field: field}
}

const internalMessage = "Internal server error"

// FromError maps err to its HTTP status and response body. Errors outside the
// domain taxonomy become 500; their text is only exposed when exposeInternal is set.
func FromError(err error, exposeInternal bool) (int, *APIError) {
	var de domainError
	if errors.As(err, &de) {
		return de.status(), &APIError{Message: de.Error(), Type: de.kind(), Field: de.field()}
	}
	msg := internalMessage
	if exposeInternal && err != nil {
		msg = err.Error()
	}
	return http.StatusInternalServerError, &APIError{Message: msg, Type: KindInternal}
}

// Status returns the HTTP status FromError would use for err.
func Status(err error) int {
	status, _ := FromError(err, false)
	return status
}

// KindOf returns the taxonomy kind of err, or KindInternal.
func KindOf(err error) string {
	var de domainError
	if errors.As(err, &de) {
		return de.kind()
	}
	return KindInternal
}
