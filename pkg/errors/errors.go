// Package errors defines custom error types and error handling utilities for the Vincent auth service.
// JWT verification failures carry a kind code (INVALID_JWT, INVALID_AUDIENCE, INVALID_SIGNATURE)
// and render as "<KIND>: <reason>".
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"

	"github.com/turtacn/vincent/pkg/constants"
)

// ================================================================================
// Base Error Interface
// ================================================================================

// VincentError represents a structured error with additional metadata
type VincentError interface {
	error

	// Code returns the error kind
	Code() constants.ErrorCode

	// HTTPStatus returns the HTTP status code
	HTTPStatus() int

	// Description returns a human-readable description
	Description() string

	// Unwrap returns the underlying error for error chain support
	Unwrap() error

	// WithCause adds a cause error to the error chain
	WithCause(cause error) VincentError

	// WithMetadata adds additional context metadata
	WithMetadata(key string, value interface{}) VincentError

	// Metadata returns all metadata
	Metadata() map[string]interface{}
}

// ================================================================================
// Base Error Implementation
// ================================================================================

type baseError struct {
	code        constants.ErrorCode
	httpStatus  int
	description string
	message     string
	cause       error
	metadata    map[string]interface{}
}

// Error implements the error interface
func (e *baseError) Error() string {
	if e.message != "" {
		return e.message
	}
	return e.description
}

func (e *baseError) Code() constants.ErrorCode { return e.code }

func (e *baseError) HTTPStatus() int { return e.httpStatus }

func (e *baseError) Description() string { return e.description }

func (e *baseError) Unwrap() error { return e.cause }

// WithCause adds a cause error to the error chain
func (e *baseError) WithCause(cause error) VincentError {
	e.cause = cause
	return e
}

// WithMetadata adds additional context metadata
func (e *baseError) WithMetadata(key string, value interface{}) VincentError {
	if e.metadata == nil {
		e.metadata = make(map[string]interface{})
	}
	e.metadata[key] = value
	return e
}

func (e *baseError) Metadata() map[string]interface{} { return e.metadata }

// Is matches another VincentError of the same kind, so errors.Is(err, ErrInvalidJWT("")) works.
func (e *baseError) Is(target error) bool {
	t, ok := target.(*baseError)
	if !ok {
		return false
	}
	return t.code == e.code
}

// ================================================================================
// Error Constructor
// ================================================================================

// NewError creates a new VincentError with the specified parameters
func NewError(code constants.ErrorCode, httpStatus int, description string, message string) VincentError {
	return &baseError{
		code:        code,
		httpStatus:  httpStatus,
		description: description,
		message:     message,
		metadata:    make(map[string]interface{}),
	}
}

// ================================================================================
// JWT Verification Errors
// ================================================================================

func kindMessage(code constants.ErrorCode, reason string) string {
	if reason == "" {
		return string(code)
	}
	return fmt.Sprintf("%s: %s", code, reason)
}

// ErrInvalidJWT creates an INVALID_JWT error (malformed token, missing required claim, expired)
func ErrInvalidJWT(reason string) VincentError {
	return NewError(
		constants.ErrCodeInvalidJWT,
		http.StatusUnauthorized,
		"The token is malformed, expired or missing a required claim.",
		kindMessage(constants.ErrCodeInvalidJWT, reason),
	).WithMetadata("reason", reason)
}

// ErrInvalidAudience creates an INVALID_AUDIENCE error
func ErrInvalidAudience(expected string) VincentError {
	return NewError(
		constants.ErrCodeInvalidAudience,
		http.StatusUnauthorized,
		"The token was not issued for this audience.",
		kindMessage(constants.ErrCodeInvalidAudience, fmt.Sprintf("token not issued for %q", expected)),
	).WithMetadata("expected", expected)
}

// ErrInvalidSignature creates an INVALID_SIGNATURE error
func ErrInvalidSignature(reason string) VincentError {
	return NewError(
		constants.ErrCodeInvalidSignature,
		http.StatusUnauthorized,
		"The token signature does not match the declared PKP public key.",
		kindMessage(constants.ErrCodeInvalidSignature, reason),
	).WithMetadata("reason", reason)
}

// ================================================================================
// General Errors
// ================================================================================

// ErrInvalidRequest creates an invalid_request error
func ErrInvalidRequest(message string) VincentError {
	return NewError(
		constants.ErrCodeInvalidRequest,
		http.StatusBadRequest,
		"The request is missing a required parameter, includes an invalid parameter value, or is otherwise malformed.",
		message,
	)
}

// ErrSignerFailure wraps an error returned by the delegated signer
func ErrSignerFailure(cause error) VincentError {
	msg := "delegated signer failed"
	if cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, cause)
	}
	return NewError(
		constants.ErrCodeSignerFailure,
		http.StatusBadGateway,
		"The delegated signer could not produce a signature.",
		msg,
	).WithCause(cause)
}

// ErrServerError creates a server_error error
func ErrServerError(message string) VincentError {
	return NewError(
		constants.ErrCodeServerError,
		http.StatusInternalServerError,
		"The server encountered an unexpected condition that prevented it from fulfilling the request.",
		message,
	)
}

// ErrParameterValidation creates a per-field validation error
func ErrParameterValidation(field string, message string) VincentError {
	return NewError(
		constants.ErrCodeParameterValidation,
		http.StatusUnprocessableEntity,
		"One or more parameters failed validation.",
		fmt.Sprintf("%s: %s", field, message),
	).WithMetadata("field", field).
		WithMetadata("message", message)
}

// ErrRateLimitExceeded creates a rate limit exceeded error
func ErrRateLimitExceeded(scope string, limit int) VincentError {
	return NewError(
		constants.ErrCodeRateLimitExceeded,
		http.StatusTooManyRequests,
		"Rate limit exceeded. Please try again later.",
		fmt.Sprintf("Rate limit exceeded for scope '%s': %d requests", scope, limit),
	).WithMetadata("scope", scope).
		WithMetadata("limit", limit)
}

// ErrVaultConnectionFailed creates a Vault connection failed error
func ErrVaultConnectionFailed(reason string) VincentError {
	return ErrServerError(fmt.Sprintf("Failed to connect to Vault: %s", reason)).
		WithMetadata("reason", reason)
}

// ErrCacheConnectionFailed creates a cache connection failed error
func ErrCacheConnectionFailed(reason string) VincentError {
	return ErrServerError(fmt.Sprintf("Failed to connect to cache: %s", reason)).
		WithMetadata("reason", reason)
}

// ================================================================================
// Error Validation Utilities
// ================================================================================

// AsVincentError finds the first VincentError in err's chain
func AsVincentError(err error) (VincentError, bool) {
	var ve VincentError
	if stderrors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// IsKind reports whether err carries the given kind code
func IsKind(err error, code constants.ErrorCode) bool {
	if ve, ok := AsVincentError(err); ok {
		return ve.Code() == code
	}
	return false
}

// IsAuthenticationError reports whether err is one of the JWT verification kinds
func IsAuthenticationError(err error) bool {
	if ve, ok := AsVincentError(err); ok {
		switch ve.Code() {
		case constants.ErrCodeInvalidJWT, constants.ErrCodeInvalidAudience, constants.ErrCodeInvalidSignature:
			return true
		}
	}
	return false
}

// IsRateLimitError checks if an error is related to rate limiting
func IsRateLimitError(err error) bool {
	return IsKind(err, constants.ErrCodeRateLimitExceeded)
}

// ShouldLogError determines if an error should be logged based on severity
func ShouldLogError(err error) bool {
	if ve, ok := AsVincentError(err); ok {
		status := ve.HTTPStatus()
		return status >= 500 || status == http.StatusTooManyRequests
	}
	return true
}

// ================================================================================
// Error Response Builder
// ================================================================================

// ErrorResponse represents the JSON structure for error responses
type ErrorResponse struct {
	Error            string                 `json:"error"`
	ErrorDescription string                 `json:"error_description,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
}

// ToErrorResponse converts a VincentError to an ErrorResponse.
// Authentication failures collapse to the generic "not authenticated" body.
func ToErrorResponse(err VincentError) *ErrorResponse {
	if IsAuthenticationError(err) {
		return UnauthenticatedResponse()
	}
	return &ErrorResponse{
		Error:            string(err.Code()),
		ErrorDescription: err.Error(),
		Metadata:         err.Metadata(),
	}
}

// ToGenericErrorResponse converts any error to an ErrorResponse
func ToGenericErrorResponse(err error) *ErrorResponse {
	if ve, ok := AsVincentError(err); ok {
		return ToErrorResponse(ve)
	}
	return &ErrorResponse{
		Error:            string(constants.ErrCodeServerError),
		ErrorDescription: "An unexpected error occurred",
	}
}

// UnauthenticatedResponse is the body of every 401.
func UnauthenticatedResponse() *ErrorResponse {
	return &ErrorResponse{Error: constants.NotAuthenticatedMessage}
}

// StatusOf returns the HTTP status for err, 500 for foreign errors.
func StatusOf(err error) int {
	if ve, ok := AsVincentError(err); ok {
		return ve.HTTPStatus()
	}
	return http.StatusInternalServerError
}
