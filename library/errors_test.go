package library

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorKinds(t *testing.T) {
	tests := []struct {
		err  error
		kind ErrorKind
		msg  string
	}{
		{&BookNotAvailableError{Title: "1984"}, KindBookNotAvailable, "the book '1984' is not available"},
		{&LateReturnError{Title: "1984"}, KindLateReturn, "the book '1984' was returned late"},
		{&InvalidMembershipError{Level: "INVALID_LEVEL"}, KindInvalidMembership, "'INVALID_LEVEL' is not a valid membership level"},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			assert.EqualError(t, tt.err, tt.msg)

			wrapped := fmt.Errorf("checkout: %w", tt.err)
			kind, ok := KindOf(wrapped)
			assert.True(t, ok)
			assert.Equal(t, tt.kind, kind)
		})
	}
}

func TestErrorSentinelsAreDistinct(t *testing.T) {
	err := error(&LateReturnError{Title: "x"})
	assert.ErrorIs(t, err, ErrLateReturn)
	assert.False(t, errors.Is(err, ErrBookNotAvailable))
	assert.False(t, errors.Is(err, ErrInvalidMembership))

	_, ok := KindOf(errors.New("plain"))
	assert.False(t, ok)
}
