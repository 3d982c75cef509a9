package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError_Error(t *testing.T) {
	assert.Equal(t, "session not found", NotFound("session not found").Error())

	wrapped := Wrap(errors.New("connection refused"), ErrCodeInternal, "query sessions")
	assert.Equal(t, "query sessions: connection refused", wrapped.Error())
}

func TestConstructors_SetCodes(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		code ErrorCode
	}{
		{"not found", NotFound("x"), ErrCodeNotFound},
		{"not found formatted", NotFoundf("invoice %q", "INV-1"), ErrCodeNotFound},
		{"conflict", Conflict("x"), ErrCodeConflict},
		{"validation", Validation("x"), ErrCodeValidation},
		{"validation field", ValidationField("amount", "x"), ErrCodeValidation},
		{"internal", Internal("x"), ErrCodeInternal},
		{"forbidden", Forbidden("x"), ErrCodeForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code)
		})
	}

	assert.Equal(t, `invoice "INV-1" not found`, NotFoundf("invoice %q not found", "INV-1").Message)
	assert.Equal(t, "amount", ValidationField("amount", "must be positive").Field)
}

func TestWrap_PreservesCause(t *testing.T) {
	cause := errors.New("no reachable servers")

	err := Wrap(cause, ErrCodeUpstreamUnavailable, "login")
	require.NotNil(t, err)
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, cause, err.Unwrap())

	// Wrapping nil yields nil so call sites can wrap unconditionally.
	assert.Nil(t, Wrap(nil, ErrCodeInternal, "x"))
	assert.Nil(t, Wrapf(nil, ErrCodeInternal, "x %d", 1))
}

func TestCodePredicates_SeeThroughWrapping(t *testing.T) {
	inner := NotFound("invoice missing")
	outer := fmt.Errorf("get invoice: %w", inner)

	assert.True(t, IsNotFound(outer))
	assert.False(t, IsConflict(outer))
	assert.False(t, IsValidation(outer))
	assert.False(t, IsForbidden(outer))

	assert.True(t, IsConflict(fmt.Errorf("create: %w", Conflict("dup"))))
	assert.True(t, IsValidation(ValidationField("name", "required")))
	assert.True(t, IsForbidden(Forbidden("nope")))
	assert.False(t, IsNotFound(errors.New("plain")))
	assert.False(t, IsNotFound(nil))
}

func TestGetCode(t *testing.T) {
	assert.Equal(t, ErrCodeInvalidCredentials,
		GetCode(Wrap(errors.New("401"), ErrCodeInvalidCredentials, "login rejected")))
	assert.Equal(t, ErrCodeNotFound, GetCode(fmt.Errorf("wrapped: %w", NotFound("x"))))
	assert.Equal(t, ErrorCode(""), GetCode(errors.New("plain")))
	assert.Equal(t, ErrorCode(""), GetCode(nil))
}

func TestGetField(t *testing.T) {
	assert.Equal(t, "email", GetField(ValidationField("email", "invalid")))
	assert.Equal(t, "", GetField(Validation("bad input")))
	assert.Equal(t, "", GetField(errors.New("plain")))
}
