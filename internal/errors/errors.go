package errors

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/render"
)

// APIError represents a structured API error response
type APIError struct {
	StatusCode int         `json:"status_code"`
	ErrorCode  string      `json:"error_code"`
	Message    string      `json:"message"`
	Details    interface{} `json:"details,omitempty"`
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Render implements the render.Renderer interface for chi/render
func (e *APIError) Render(w http.ResponseWriter, r *http.Request) error {
	render.Status(r, e.StatusCode)
	return nil
}

// ValidationError represents validation errors
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// New creates a new APIError with the given parameters
func New(statusCode int, errorCode, message string) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
	}
}

// NewWithDetails creates a new APIError with additional details
func NewWithDetails(statusCode int, errorCode, message string, details interface{}) *APIError {
	return &APIError{
		StatusCode: statusCode,
		ErrorCode:  errorCode,
		Message:    message,
		Details:    details,
	}
}

// Predefined error types for common scenarios
var (
	// 400 Bad Request
	ErrInvalidRequest   = New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")
	ErrValidationFailed = New(http.StatusBadRequest, "VALIDATION_FAILED", "Request validation failed")
	ErrMissingFile      = New(http.StatusBadRequest, "MISSING_FILE", "At least one file must be uploaded")

	// 404 Not Found
	ErrNotFound           = New(http.StatusNotFound, "NOT_FOUND", "Resource not found")
	ErrReportKindNotFound = New(http.StatusNotFound, "REPORT_KIND_NOT_FOUND", "Unknown report kind")

	// 413 Payload Too Large
	ErrPayloadTooLarge = New(http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "Upload exceeds the maximum allowed size")

	// 422 Unprocessable Entity
	ErrUnprocessableEntity = New(http.StatusUnprocessableEntity, "UNPROCESSABLE_ENTITY", "Request could not be processed")

	// 429 Too Many Requests
	ErrRateLimitExceeded = New(http.StatusTooManyRequests, "RATE_LIMIT_EXCEEDED", "Rate limit exceeded")

	// 500 Internal Server Error
	ErrInternalServer = New(http.StatusInternalServerError, "INTERNAL_SERVER_ERROR", "Internal server error")
)

// with copies e with a new message and details. An empty message keeps e's.
// The predefined errors are never modified.
func (e *APIError) with(message string, details interface{}) *APIError {
	if message == "" {
		message = e.Message
	}
	return NewWithDetails(e.StatusCode, e.ErrorCode, message, details)
}

// Helper functions for specific error types

// InvalidRequestWithError creates an invalid request error with details
func InvalidRequestWithError(err error) *APIError {
	return ErrInvalidRequest.with("", err.Error())
}

// ErrValidation creates a validation error with field details
func ErrValidation(field, message string) *APIError {
	return ErrValidationFailed.with("", ValidationError{
		Field:   field,
		Message: message,
	})
}

// NotFoundError creates a not found error with details
func NotFoundError(resource string) *APIError {
	return ErrNotFound.with(fmt.Sprintf("%s not found", resource), resource)
}

// FromAppError maps an AppError chain onto the API error it should surface as.
// It returns nil when err carries no AppError.
func FromAppError(err error) *APIError {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return nil
	}

	switch appErr.Type {
	case ErrTypeSchema:
		return NewWithDetails(http.StatusUnprocessableEntity, "SCHEMA_ERROR", appErr.Message, appErr.Context)
	case ErrTypeParsing:
		return NewWithDetails(http.StatusUnprocessableEntity, "PARSE_ERROR", appErr.Message, errMessage(appErr.Cause))
	case ErrTypeEmptyResult:
		return New(http.StatusUnprocessableEntity, "EMPTY_RESULT", appErr.Message)
	case ErrTypeValidation:
		return ErrValidationFailed.with(appErr.Message, nil)
	case ErrTypeNotFound:
		return ErrNotFound.with(appErr.Message, nil)
	case ErrTypeExport:
		return NewWithDetails(http.StatusInternalServerError, "EXPORT_FAILED", appErr.Message, errMessage(appErr.Cause))
	default:
		return ErrInternalServer.with(appErr.Message, nil)
	}
}

func errMessage(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// ValidationErrors represents multiple validation errors
type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

// NewValidationErrors creates validation errors from multiple fields
func NewValidationErrors(errors []ValidationError) *APIError {
	return ErrValidationFailed.with("", ValidationErrors{Errors: errors})
}
