// Package errors defines the structured error type the API handlers return
// and the echo middleware that renders it as a JSON response.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies an error for status mapping, logging and metrics.
type ErrorType string

const (
	TypeValidation ErrorType = "validation" // invalid request input
	TypeNotFound   ErrorType = "not_found"  // unknown resource id
	TypeConflict   ErrorType = "conflict"   // state conflict
	TypeInternal   ErrorType = "internal"   // server-side failure
	TypeExternal   ErrorType = "external"   // gateway or engine failure
)

// Error is a classified error with an optional cause and context fields.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func newError(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    errType,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

// ValidationError reports invalid request input (HTTP 400).
func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

// NotFoundError reports a lookup of an unknown resource (HTTP 404).
func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

// InternalError wraps a server-side failure (HTTP 500).
func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// ExternalError wraps a failure of an upstream dependency such as the
// comment gateway or a TTS engine (HTTP 502).
func ExternalError(message string, cause error) *Error {
	return newError(TypeExternal, message, cause)
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the cause to errors.Is and errors.As.
func (e *Error) Unwrap() error {
	return e.Cause
}

// HTTPStatus maps the error type to a response status. Unknown types fall
// back to 500.
func (e *Error) HTTPStatus() int {
	switch e.Type {
	case TypeValidation:
		return http.StatusBadRequest
	case TypeNotFound:
		return http.StatusNotFound
	case TypeConflict:
		return http.StatusConflict
	case TypeExternal:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// WithContext attaches a key/value pair and returns the error for chaining.
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// WithField is a readability alias for WithContext.
func (e *Error) WithField(key string, value any) *Error {
	return e.WithContext(key, value)
}

// ErrorResponse is the JSON body clients receive for a failed request.
type ErrorResponse struct {
	Error   string         `json:"error"`
	Type    ErrorType      `json:"type"`
	Context map[string]any `json:"context,omitempty"`
}

// ToResponse renders the error for the client. The cause stays server-side.
func (e *Error) ToResponse() ErrorResponse {
	return ErrorResponse{
		Error:   e.Message,
		Type:    e.Type,
		Context: e.Context,
	}
}

// AsStructuredError coerces any error into an *Error. Errors that are not
// already structured become opaque internal errors so their details never
// leak into a response body.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structured *Error
	if errors.As(err, &structured) {
		return structured
	}
	return InternalError("internal server error", err)
}
