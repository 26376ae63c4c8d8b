package errors

import (
	stderrors "errors"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Error codes
const (
	// Authentication errors
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"

	// Authorization errors
	ErrCodeForbidden = "FORBIDDEN"

	// Validation errors
	ErrCodeInvalidInput = "INVALID_INPUT"

	// Resource errors
	ErrCodeNotFound = "NOT_FOUND"
	ErrCodeConflict = "CONFLICT"

	// Lifecycle errors
	ErrCodeInvalidState    = "INVALID_STATE"
	ErrCodeDeliveryFailure = "DELIVERY_FAILURE"

	// Service errors
	ErrCodeInternalError      = "INTERNAL_ERROR"
	ErrCodeServiceUnavailable = "SERVICE_UNAVAILABLE"
)

// APIError represents a standardized API error response
type APIError struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`

	// kind marks the generic per-code sentinels that errors.Is matches by code.
	kind bool
}

// Error implements the error interface
func (e *APIError) Error() string {
	return e.Message
}

// Is reports whether target is the kind sentinel for e's code.
func (e *APIError) Is(target error) bool {
	t, ok := target.(*APIError)
	if !ok {
		return false
	}
	return t.kind && t.Code == e.Code
}

// NewAPIError creates a new APIError
func NewAPIError(code, message string) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
	}
}

// NewAPIErrorWithDetails creates a new APIError with details
func NewAPIErrorWithDetails(code, message string, details interface{}) *APIError {
	return &APIError{
		Code:    code,
		Message: message,
		Details: details,
	}
}

func newKind(code, message string) *APIError {
	return &APIError{Code: code, Message: message, kind: true}
}

// Kind sentinels. Any APIError with the same code satisfies errors.Is against these.
var (
	ErrUnauthorized       = newKind(ErrCodeUnauthorized, "Authentication required")
	ErrForbidden          = newKind(ErrCodeForbidden, "Access denied")
	ErrNotFound           = newKind(ErrCodeNotFound, "Resource not found")
	ErrConflict           = newKind(ErrCodeConflict, "Resource conflict")
	ErrInvalidState       = newKind(ErrCodeInvalidState, "Operation not allowed in the current state")
	ErrInvalidInput       = newKind(ErrCodeInvalidInput, "Invalid request body")
	ErrDeliveryFailure    = newKind(ErrCodeDeliveryFailure, "Notification delivery failed")
	ErrInternalError      = newKind(ErrCodeInternalError, "Internal server error")
	ErrServiceUnavailable = newKind(ErrCodeServiceUnavailable, "Service temporarily unavailable")
)

// NotFoundError creates a NOT_FOUND error with a specific message
func NotFoundError(message string) *APIError {
	return NewAPIError(ErrCodeNotFound, message)
}

// InvalidStateError creates an INVALID_STATE error with a specific message
func InvalidStateError(message string) *APIError {
	return NewAPIError(ErrCodeInvalidState, message)
}

// ForbiddenError creates a FORBIDDEN error with a specific message
func ForbiddenError(message string) *APIError {
	return NewAPIError(ErrCodeForbidden, message)
}

// ConflictError creates a CONFLICT error with a specific message
func ConflictError(message string) *APIError {
	return NewAPIError(ErrCodeConflict, message)
}

// InvalidInputError creates an INVALID_INPUT error with a specific message
func InvalidInputError(message string) *APIError {
	return NewAPIError(ErrCodeInvalidInput, message)
}

// StatusFor maps an error to its HTTP status code.
func StatusFor(err error) int {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		return http.StatusInternalServerError
	}

	switch apiErr.Code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeInvalidState, ErrCodeConflict:
		return http.StatusConflict
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeInvalidInput:
		return http.StatusBadRequest
	case ErrCodeUnauthorized, ErrCodeInvalidCredentials:
		return http.StatusUnauthorized
	case ErrCodeServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Respond writes err as a JSON error response. Errors that are not APIErrors
// are reported as internal errors without leaking their message.
func Respond(c *gin.Context, err error) {
	var apiErr *APIError
	if !stderrors.As(err, &apiErr) {
		RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, "Internal server error"))
		return
	}
	RespondWithError(c, StatusFor(apiErr), NewAPIErrorWithDetails(apiErr.Code, apiErr.Message, apiErr.Details))
}

// RespondWithError sends an error response
func RespondWithError(c *gin.Context, statusCode int, err *APIError) {
	c.JSON(statusCode, err)
}

// Helper functions for common error responses

// Unauthorized sends a 401 response
func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "Authentication required"
	}
	RespondWithError(c, http.StatusUnauthorized, NewAPIError(ErrCodeUnauthorized, message))
}

// Forbidden sends a 403 response
func Forbidden(c *gin.Context, message string) {
	if message == "" {
		message = "Access denied"
	}
	RespondWithError(c, http.StatusForbidden, NewAPIError(ErrCodeForbidden, message))
}

// NotFound sends a 404 response
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "Resource not found"
	}
	RespondWithError(c, http.StatusNotFound, NewAPIError(ErrCodeNotFound, message))
}

// BadRequest sends a 400 response
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = "Invalid request"
	}
	RespondWithError(c, http.StatusBadRequest, NewAPIError(ErrCodeInvalidInput, message))
}

// Conflict sends a 409 response
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = "Resource conflict"
	}
	RespondWithError(c, http.StatusConflict, NewAPIError(ErrCodeConflict, message))
}

// InternalError sends a 500 response
func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "Internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, NewAPIError(ErrCodeInternalError, message))
}
