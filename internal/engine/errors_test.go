package engine

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRuntimeError_Error(t *testing.T) {
	err := NewCompileError(errors.New("clang++ exited with status 1"))
	assert.Equal(t, "COMPILE_FAILED: device compiler failed: clang++ exited with status 1", err.Error())

	err.Tx = "T1"
	assert.Equal(t, "COMPILE_FAILED: device compiler failed (tx=T1): clang++ exited with status 1", err.Error())

	assert.Equal(t, "BUSY: device compilation in progress", NewBusyError().Error())
}

func TestRuntimeError_Helpers(t *testing.T) {
	cause := errors.New("cause")
	tests := []struct {
		err  error
		code RuntimeErrorCode
		is   func(error) bool
	}{
		{NewReparseError(cause), ErrCodeReparseFailed, IsReparseError},
		{NewCompileError(cause), ErrCodeCompileFailed, IsCompileError},
		{NewDeclareError(cause), ErrCodeDeclareFailed, IsDeclareError},
		{NewBusyError(), ErrCodeBusy, IsBusyError},
		{NewIncompleteError(), ErrCodeIncomplete, IsIncomplete},
	}
	for _, tt := range tests {
		t.Run(string(tt.code), func(t *testing.T) {
			wrapped := fmt.Errorf("submit: %w", tt.err)
			assert.Equal(t, tt.code, CodeOf(wrapped))
			assert.True(t, tt.is(wrapped))
		})
	}

	assert.False(t, IsCompileError(cause))
	assert.Equal(t, RuntimeErrorCode(""), CodeOf(nil))
}

func TestRuntimeError_Unwrap(t *testing.T) {
	cause := errors.New("cause")
	assert.ErrorIs(t, NewDeclareError(cause), cause)
}
