package dto

import (
	"fmt"
	"net/http"
)

// ErrorCode is a machine-readable error identifier.
type ErrorCode string

// Error codes returned by the API.
const (
	CodeValidationFailed    ErrorCode = "VALIDATION_FAILED"
	CodeMissingField        ErrorCode = "MISSING_FIELD"
	CodeInvalidFormat       ErrorCode = "INVALID_FORMAT"
	CodeNotFound            ErrorCode = "NOT_FOUND"
	CodeDatabaseNotFound    ErrorCode = "DATABASE_NOT_FOUND"
	CodeEntryNotFound       ErrorCode = "ENTRY_NOT_FOUND"
	CodeColumnNotFound      ErrorCode = "COLUMN_NOT_FOUND"
	CodeViewNotFound        ErrorCode = "VIEW_NOT_FOUND"
	CodeInvalidColumnConfig ErrorCode = "INVALID_COLUMN_CONFIG"
	CodeImportFailed        ErrorCode = "IMPORT_FAILED"
	CodeQuotaExceeded       ErrorCode = "QUOTA_EXCEEDED"
	CodeForbidden           ErrorCode = "FORBIDDEN"
	CodeConflict            ErrorCode = "CONFLICT"
	CodePayloadTooLarge     ErrorCode = "PAYLOAD_TOO_LARGE"
	CodeRateLimited         ErrorCode = "RATE_LIMITED"
	CodeInternalError       ErrorCode = "INTERNAL_ERROR"
)

// ErrorDetails is the inner error object of an API error response.
type ErrorDetails struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// ErrorResponse is the wire format for all API errors.
type ErrorResponse struct {
	Error   ErrorDetails   `json:"error"`
	Details map[string]any `json:"details,omitempty"`
}

// ErrorWithStatus is an error that knows its HTTP status code.
type ErrorWithStatus interface {
	error
	StatusCode() int
	Code() ErrorCode
	Details() map[string]any
}

// APIError implements ErrorWithStatus.
type APIError struct {
	statusCode int
	code       ErrorCode
	message    string
	details    map[string]any
	wrappedErr error
}

// NewAPIError creates an APIError.
func NewAPIError(statusCode int, code ErrorCode, message string) *APIError {
	return &APIError{statusCode: statusCode, code: code, message: message}
}

func (e *APIError) Error() string { return e.message }

// StatusCode returns the HTTP status code.
func (e *APIError) StatusCode() int { return e.statusCode }

// Code returns the machine-readable error code.
func (e *APIError) Code() ErrorCode { return e.code }

// Details returns additional error context, or nil.
func (e *APIError) Details() map[string]any { return e.details }

// WithDetails attaches a details map to the error.
func (e *APIError) WithDetails(details map[string]any) *APIError {
	e.details = details
	return e
}

// WithDetail attaches a single detail key to the error.
func (e *APIError) WithDetail(key string, value any) *APIError {
	if e.details == nil {
		e.details = map[string]any{}
	}
	e.details[key] = value
	return e
}

// Wrap records an underlying cause, available via errors.Unwrap.
func (e *APIError) Wrap(err error) *APIError {
	e.wrappedErr = err
	return e
}

func (e *APIError) Unwrap() error { return e.wrappedErr }

// NotFound returns a 404 for the named resource.
func NotFound(resource string) *APIError {
	code := CodeNotFound
	switch resource {
	case "database":
		code = CodeDatabaseNotFound
	case "entry":
		code = CodeEntryNotFound
	case "column":
		code = CodeColumnNotFound
	case "view":
		code = CodeViewNotFound
	}
	return NewAPIError(http.StatusNotFound, code, resource+" not found")
}

// BadRequest returns a 400 with a validation failure message.
func BadRequest(message string) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeValidationFailed, message)
}

// MissingField returns a 400 for a missing required field.
func MissingField(field string) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeMissingField, "missing required field: "+field).
		WithDetail("field", field)
}

// InvalidFormat returns a 400 for a malformed field value.
func InvalidFormat(field, reason string) *APIError {
	return NewAPIError(http.StatusBadRequest, CodeInvalidFormat,
		fmt.Sprintf("invalid %s: %s", field, reason)).WithDetail("field", field)
}

// Forbidden returns a 403.
func Forbidden(message string) *APIError {
	return NewAPIError(http.StatusForbidden, CodeForbidden, message)
}

// Conflict returns a 409.
func Conflict(message string) *APIError {
	return NewAPIError(http.StatusConflict, CodeConflict, message)
}

// QuotaExceeded returns a 422 for a quota violation.
func QuotaExceeded(message string) *APIError {
	return NewAPIError(http.StatusUnprocessableEntity, CodeQuotaExceeded, message)
}

// PayloadTooLarge returns a 413 with the configured body limit.
func PayloadTooLarge(limit int64) *APIError {
	return NewAPIError(http.StatusRequestEntityTooLarge, CodePayloadTooLarge,
		"request body too large").WithDetail("limit_bytes", limit)
}

// RateLimitExceeded returns a 429 with a retry hint in seconds.
func RateLimitExceeded(retryAfterSeconds int) *APIError {
	return NewAPIError(http.StatusTooManyRequests, CodeRateLimited,
		"rate limit exceeded").WithDetail("retry_after_seconds", retryAfterSeconds)
}

// Internal returns a 500 without exposing internals.
func Internal(message string) *APIError {
	return NewAPIError(http.StatusInternalServerError, CodeInternalError, message)
}

// InternalWithError returns a 500 wrapping err for logging; the message sent
// to the client stays generic.
func InternalWithError(err error) *APIError {
	return Internal("internal server error").Wrap(err)
}
