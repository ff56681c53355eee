package errors

import (
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

var (
	// ErrInvalidCredentials is returned when the login identifier or password is wrong.
	ErrInvalidCredentials = &AuthError{Message: "invalid credentials"}
	// ErrAccountInactive is returned when a deactivated user tries to sign in.
	ErrAccountInactive = &AuthError{Message: "account is deactivated"}
	// ErrTokenInvalid is returned for missing, malformed, expired or revoked tokens.
	ErrTokenInvalid = &AuthError{Message: "invalid or expired token"}
)

// Is reports whether any error in err's chain matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As finds the first error in err's chain that matches target.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// ValidationError is returned for malformed or missing input.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return e.Message + ": " + strings.Join(parts, "; ")
}

// NewValidationError creates a ValidationError for a single field.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{field: message},
	}
}

// NotFoundError is returned when a referenced entity is absent.
// Reference marks entities named in a request body rather than in the path;
// those surface as bad requests.
type NotFoundError struct {
	Resource  string
	Reference bool
}

func (e *NotFoundError) Error() string {
	if e.Reference {
		return "invalid " + e.Resource
	}
	return e.Resource + " not found"
}

// NotFound creates a NotFoundError for a path resource.
func NotFound(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource}
}

// InvalidReference creates a NotFoundError for a body reference.
func InvalidReference(resource string) *NotFoundError {
	return &NotFoundError{Resource: resource, Reference: true}
}

// ConflictError is returned on a duplicate unique key or duplicate assignment.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

// Conflict creates a ConflictError.
func Conflict(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// AuthError is returned when the caller cannot be authenticated.
type AuthError struct {
	Message string
}

func (e *AuthError) Error() string {
	return e.Message
}

// ForbiddenError is returned when an authenticated caller may not perform an operation.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string {
	return e.Message
}

// Forbidden creates a ForbiddenError.
func Forbidden(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Error  string            `json:"error"`
	Code   string            `json:"code"`
	Fields map[string]string `json:"fields,omitempty"`
}

// HTTPError represents an HTTP error with status code.
type HTTPError struct {
	StatusCode int
	Message    string
	Code       string
	Fields     map[string]string
}

func (e *HTTPError) Error() string {
	return e.Message
}

// NewHTTPError creates a new HTTP error.
func NewHTTPError(statusCode int, message, code string) *HTTPError {
	return &HTTPError{
		StatusCode: statusCode,
		Message:    message,
		Code:       code,
	}
}

// ToErrorResponse converts an HTTPError to ErrorResponse.
func (e *HTTPError) ToErrorResponse() ErrorResponse {
	return ErrorResponse{
		Error:  e.Message,
		Code:   e.Code,
		Fields: e.Fields,
	}
}

// Internal reports whether err maps to a 500.
func (e *HTTPError) Internal() bool {
	return e.StatusCode >= http.StatusInternalServerError
}

// MapErrorToHTTP maps domain errors to HTTP errors.
func MapErrorToHTTP(err error) *HTTPError {
	var (
		validationErr *ValidationError
		notFoundErr   *NotFoundError
		conflictErr   *ConflictError
		authErr       *AuthError
		forbiddenErr  *ForbiddenError
	)
	switch {
	case errors.As(err, &validationErr):
		httpErr := NewHTTPError(http.StatusBadRequest, validationErr.Message, "VALIDATION_ERROR")
		httpErr.Fields = validationErr.Fields
		return httpErr
	case errors.As(err, &notFoundErr):
		if notFoundErr.Reference {
			return NewHTTPError(http.StatusBadRequest, notFoundErr.Error(), "INVALID_REFERENCE")
		}
		return NewHTTPError(http.StatusNotFound, notFoundErr.Error(), "NOT_FOUND")
	case errors.As(err, &conflictErr):
		return NewHTTPError(http.StatusBadRequest, conflictErr.Error(), "CONFLICT")
	case errors.As(err, &authErr):
		return NewHTTPError(http.StatusUnauthorized, authErr.Error(), "UNAUTHORIZED")
	case errors.As(err, &forbiddenErr):
		return NewHTTPError(http.StatusForbidden, forbiddenErr.Error(), "FORBIDDEN")
	default:
		return NewHTTPError(http.StatusInternalServerError, "internal server error", "INTERNAL_ERROR")
	}
}
