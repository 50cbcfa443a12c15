package circle

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestError_Is(t *testing.T) {
	tcases := []struct {
		name   string
		err    error
		target error
		want   bool
	}{
		{"same sentinel", ErrMuted, ErrMuted, true},
		{"wrapped", fmt.Errorf("send stamp: %w", ErrRateLimited), ErrRateLimited, true},
		{"same code", ErrContentTooLong, ErrShortTextTooLong, true},
		{"different code", ErrTooFrequent, ErrRateLimited, false},
		{"plain error", errors.New("boom"), ErrMuted, false},
	}

	for _, tc := range tcases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, errors.Is(tc.err, tc.target))
		})
	}
}

func TestError_As(t *testing.T) {
	var e *Error
	err := fmt.Errorf("join: %w", ErrWrongPassphrase)

	assert.True(t, errors.As(err, &e))
	assert.Equal(t, KindForbidden, e.Kind)
	assert.Equal(t, "WrongPassphrase", e.Code)
	assert.Equal(t, "Forbidden", e.Kind.String())
}
