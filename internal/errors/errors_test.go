package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapErrorToHTTP(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"validation", NewValidationError("grade", "invalid grade"), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"path resource missing", NotFound("class"), http.StatusNotFound, "NOT_FOUND"},
		{"body reference missing", InvalidReference("teacher"), http.StatusBadRequest, "INVALID_REFERENCE"},
		{"conflict", Conflict("duplicate %s", "pair"), http.StatusBadRequest, "CONFLICT"},
		{"auth", ErrTokenInvalid, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"forbidden", Forbidden("nope"), http.StatusForbidden, "FORBIDDEN"},
		{"wrapped conflict", fmt.Errorf("assign: %w", Conflict("dup")), http.StatusBadRequest, "CONFLICT"},
		{"unknown", fmt.Errorf("connection reset"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			httpErr := MapErrorToHTTP(tt.err)
			assert.Equal(t, tt.wantStatus, httpErr.StatusCode)
			assert.Equal(t, tt.wantCode, httpErr.Code)
		})
	}
}

func TestMapErrorToHTTP_HidesInternalDetail(t *testing.T) {
	httpErr := MapErrorToHTTP(fmt.Errorf("dial tcp 10.0.0.1:3306: secret detail"))
	assert.True(t, httpErr.Internal())
	assert.Equal(t, "internal server error", httpErr.ToErrorResponse().Error)
}

func TestValidationError_Fields(t *testing.T) {
	err := &ValidationError{
		Message: "validation failed",
		Fields:  map[string]string{"name": "name is required", "grade": "invalid grade"},
	}
	assert.Equal(t, "validation failed: grade: invalid grade; name: name is required", err.Error())

	resp := MapErrorToHTTP(err).ToErrorResponse()
	assert.Equal(t, "invalid grade", resp.Fields["grade"])
}
