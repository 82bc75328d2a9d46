package domain

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrors_Existence(t *testing.T) {
	tests := []struct {
		name string
		err  error
	}{
		{"ErrNotFound", ErrNotFound},
		{"ErrInvalid", ErrInvalid},
		{"ErrRetry", ErrRetry},
		{"ErrBackend", ErrBackend},
		{"ErrCorrupt", ErrCorrupt},
		{"ErrFatal", ErrFatal},
		{"ErrConflict", ErrConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.NotNil(t, tt.err)
			assert.NotEmpty(t, tt.err.Error())
		})
	}
}

func TestErrors_Uniqueness(t *testing.T) {
	all := []error{ErrNotFound, ErrInvalid, ErrRetry, ErrBackend, ErrCorrupt, ErrFatal, ErrConflict}
	for i, a := range all {
		for j, b := range all {
			if i != j {
				assert.False(t, errors.Is(a, b), "%v should not match %v", a, b)
			}
		}
	}
}

func TestKindOf(t *testing.T) {
	tests := []struct {
		err  error
		want Kind
	}{
		{nil, ""},
		{ErrNotFound, KindNotFound},
		{fmt.Errorf("wrapped: %w", ErrNotFound), KindNotFound},
		{ErrInvalid, KindInvalid},
		{ErrRetry, KindRetry},
		{ErrBackend, KindBackend},
		{ErrCorrupt, KindCorrupt},
		{ErrFatal, KindFatal},
		{ErrConflict, KindConflict},
		{errors.New("boom"), KindInternal},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, KindOf(tt.err))
	}
}

func TestErrors_WrappingPreservesIs(t *testing.T) {
	wrapped := fmt.Errorf("reading %s: %w", "a.md", ErrRetry)
	assert.True(t, errors.Is(wrapped, ErrRetry))
	assert.Equal(t, KindRetry, KindOf(wrapped))
}
