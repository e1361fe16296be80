package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestErrors_Existence tests that all error variables exist and are not nil
func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrAlreadyExists", ErrAlreadyExists},
		{"ErrInvalidInput", ErrInvalidInput},
		{"ErrNotImplemented", ErrNotImplemented},
		{"ErrUnsupportedType", ErrUnsupportedType},
		{"ErrUnknownEntity", ErrUnknownEntity},
		{"ErrInvalidConfiguration", ErrInvalidConfiguration},
		{"ErrResolution", ErrResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestValidationError(t *testing.T) {
	t.Run("with field", func(t *testing.T) {
		err := NewValidationError("employee", "salary.value", "expected number")
		assert.Equal(t, `validate employee: field "salary.value": expected number`, err.Error())
		assert.ErrorIs(t, err, ErrInvalidInput)
	})

	t.Run("without field", func(t *testing.T) {
		err := NewValidationError("doc", "", "empty record")
		assert.Equal(t, "validate doc: empty record", err.Error())
	})

	t.Run("matches through wrapping", func(t *testing.T) {
		wrapped := fmt.Errorf("load relation: %w", NewValidationError("state", "state", "required"))
		var verr *ValidationError
		assert.True(t, errors.As(wrapped, &verr))
		assert.Equal(t, "state", verr.Field)
	})
}

func TestResolutionError(t *testing.T) {
	cause := errors.New("connection refused")
	err := &ResolutionError{Ref: "org/acme/doc/abc", Err: cause}

	assert.Equal(t, "resolve org/acme/doc/abc: connection refused", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.ErrorIs(t, err, ErrResolution)
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestConfigurationError(t *testing.T) {
	err := &ConfigurationError{Entity: "grant", Reason: "bad"}
	assert.Equal(t, "configure grant: bad", err.Error())
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
