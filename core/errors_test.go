package core

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInvalidField(t *testing.T) {
	cause := errors.New("attended must not exceed total")
	err := errors.Wrap(InvalidField("attended", cause), "creating subject")

	vErr, ok := AsValidationError(err)
	require.True(t, ok)
	assert.Equal(t, []FieldError{{Field: "attended", Error: cause.Error()}}, vErr.Fields)
	assert.True(t, errors.Is(err, cause))
}

func TestValidationError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "cause", err: NewValidationError(errors.New("bad target")), want: "bad target"},
		{name: "field only", err: NewValidationError(nil, FieldError{Field: "date", Error: "must be a date"}), want: "date: must be a date"},
		{name: "empty", err: NewValidationError(nil), want: ""},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, tc.err.Error())
		})
	}
}

func TestAsValidationError_otherErrors(t *testing.T) {
	_, ok := AsValidationError(errors.New("connection refused"))
	assert.False(t, ok)
	_, ok = AsValidationError(nil)
	assert.False(t, ok)
}

func TestIsShutdown(t *testing.T) {
	err := NewShutdownError("database schema is behind")
	assert.True(t, IsShutdown(err))
	assert.True(t, IsShutdown(errors.Wrap(err, "finding subject")))
	assert.False(t, IsShutdown(errors.New("finding subject")))
	assert.Equal(t, "shutdown requested: database schema is behind", err.Error())
}
