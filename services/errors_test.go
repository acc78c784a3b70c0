package services

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewDomainError(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeNotFound, "resource not found", baseErr)

	assert.Equal(t, ErrorTypeNotFound, domainErr.Type)
	assert.Equal(t, "resource not found", domainErr.Message)
	assert.Equal(t, baseErr, domainErr.Err)
	assert.NotNil(t, domainErr.Details)
}

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name    string
		err     *DomainError
		wantMsg string
	}{
		{
			name: "error with wrapped error",
			err: &DomainError{
				Type:    ErrorTypeNotFound,
				Message: "user not found",
				Err:     errors.New("db error"),
			},
			wantMsg: "not_found: user not found (db error)",
		},
		{
			name: "error without wrapped error",
			err: &DomainError{
				Type:    ErrorTypeValidation,
				Message: "invalid input",
			},
			wantMsg: "validation: invalid input",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantMsg, tt.err.Error())
		})
	}
}

func TestDomainError_Unwrap(t *testing.T) {
	baseErr := errors.New("base error")
	domainErr := NewDomainError(ErrorTypeInternal, "internal error", baseErr)

	assert.Equal(t, baseErr, errors.Unwrap(domainErr))
}

func TestDomainError_Is(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same error", ErrDuplicateEmail, ErrDuplicateEmail, true},
		{"wrapped copy", ErrComplaintNotFound.Wrap(errors.New("no rows")), ErrComplaintNotFound, true},
		{"same type different message", ErrUserNotFound, ErrComplaintNotFound, false},
		{"different type", ErrInvalidInput, ErrComplaintNotFound, false},
		{"not a domain error", ErrUserNotFound, errors.New("regular error"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, errors.Is(tt.err, tt.target))
		})
	}
}

func TestDomainError_WithDetailDoesNotMutateSentinel(t *testing.T) {
	err := ErrInvalidInput.WithDetail("field", "email").WithDetail("value", "invalid-email")

	assert.Equal(t, "email", err.Details["field"])
	assert.Equal(t, "invalid-email", err.Details["value"])
	assert.Empty(t, ErrInvalidInput.Details)
	assert.True(t, errors.Is(err, ErrInvalidInput))
}

func TestErrorTypeHelpers(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		check func(error) bool
		want  bool
	}{
		{"not found", ErrComplaintNotFound, IsNotFoundError, true},
		{"wrapped not found", fmt.Errorf("wrapped: %w", ErrUserNotFound), IsNotFoundError, true},
		{"validation", ErrInvalidTransition, IsValidationError, true},
		{"validation is not conflict", ErrInvalidInput, IsConflictError, false},
		{"unauthorized", ErrNotRegistered, IsUnauthorizedError, true},
		{"forbidden", ErrAccountDeactivated, IsForbiddenError, true},
		{"conflict", ErrDuplicateEmail, IsConflictError, true},
		{"internal", WrapInternal("boom", errors.New("x")), IsInternalError, true},
		{"external", WrapExternal("down", errors.New("x")), IsExternalError, true},
		{"regular error", errors.New("regular"), IsNotFoundError, false},
		{"nil error", nil, IsNotFoundError, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.check(tt.err))
		})
	}
}

func TestGetErrorAccessors(t *testing.T) {
	err := NewValidationError("Validation failed", map[string]string{"title": "title is required"})

	assert.Equal(t, ErrorTypeValidation, GetErrorType(err))
	assert.Equal(t, "Validation failed", GetErrorMessage(err))
	assert.Equal(t, "title is required", GetErrorDetails(err)["title"])

	plain := errors.New("plain")
	assert.Equal(t, ErrorType(""), GetErrorType(plain))
	assert.Empty(t, GetErrorMessage(plain))
	assert.Nil(t, GetErrorDetails(plain))
}
