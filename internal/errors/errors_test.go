package errors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("formats with cause", func(t *testing.T) {
		cause := errors.New("disk full")
		err := NewStorageError("failed to write snapshot", cause)

		assert.Equal(t, "[STORAGE] failed to write snapshot: disk full", err.Error())
		assert.Equal(t, cause, errors.Unwrap(err))
	})

	t.Run("formats without cause", func(t *testing.T) {
		err := NewAppValidationError("threshold out of range")
		assert.Equal(t, "[VALIDATION] threshold out of range", err.Error())
	})

	t.Run("with context", func(t *testing.T) {
		err := NewParsingError("bad cell", nil).WithContext("row", 4)
		assert.Equal(t, 4, err.Context["row"])
	})
}

func TestDuplicateNameError(t *testing.T) {
	err := NewDuplicateNameError("Math", "Alice")

	assert.True(t, errors.Is(err, ErrDuplicateName))
	assert.Contains(t, err.Error(), "Alice")
	assert.Contains(t, err.Error(), "Math")
	assert.True(t, IsValidation(err))
}

func TestInvalidMarkError(t *testing.T) {
	err := NewInvalidMarkError("Science", "Bob", 120, 0, 100)

	assert.True(t, errors.Is(err, ErrInvalidMark))
	assert.Contains(t, err.Error(), "120.00")
	assert.True(t, IsValidation(err))

	var markErr *InvalidMarkError
	require.True(t, errors.As(err, &markErr))
	assert.Equal(t, "Bob", markErr.Name)
	assert.Equal(t, 100.0, markErr.Max)
}

func TestIsValidation(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"duplicate name", ErrDuplicateName, true},
		{"invalid mark", ErrInvalidMark, true},
		{"empty input", ErrEmptyInput, true},
		{"input too large", ErrInputTooLarge, true},
		{"wrapped", fmt.Errorf("validate tables: %w", ErrEmptyInput), true},
		{"snapshot not found", ErrSnapshotNotFound, false},
		{"plain error", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidation(tt.err))
		})
	}
}

func TestAPIError(t *testing.T) {
	t.Run("new error", func(t *testing.T) {
		err := New(http.StatusBadRequest, "INVALID_REQUEST", "Invalid request format")

		assert.Equal(t, http.StatusBadRequest, err.StatusCode)
		assert.Equal(t, "INVALID_REQUEST", err.ErrorCode)
		assert.Equal(t, "Invalid request format", err.Error())
	})

	t.Run("sheet validation maps to 422", func(t *testing.T) {
		err := SheetValidationError(NewDuplicateNameError("Math", "Alice"))

		assert.Equal(t, http.StatusUnprocessableEntity, err.StatusCode)
		assert.Equal(t, "SHEET_VALIDATION_FAILED", err.ErrorCode)
	})

	t.Run("validation error with field", func(t *testing.T) {
		err := ErrValidation("threshold", "must be between 0 and 1")

		details, ok := err.Details.(ValidationError)
		require.True(t, ok)
		assert.Equal(t, "threshold", details.Field)
	})
}
