package common

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserError(t *testing.T) {
	cause := errors.New("connection reset")
	err := NewUserError("Попробуйте ещё раз.", cause)

	assert.Equal(t, "Попробуйте ещё раз.: connection reset", err.Error())
	assert.ErrorIs(t, err, cause)

	var userErr *UserError
	require.ErrorAs(t, err, &userErr)
	assert.Equal(t, "Попробуйте ещё раз.", userErr.UserMessage)
}

func TestUserErrorWithoutCause(t *testing.T) {
	err := NewUserError("Неизвестная ошибка.", nil)
	assert.Equal(t, "Неизвестная ошибка.", err.Error())
}

func TestIsParseFailure(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"unclassifiable type", ErrUnclassifiableType, true},
		{"amount not found", fmt.Errorf("parse: %w", ErrAmountNotFound), true},
		{"category text not found", ErrCategoryTextNotFound, true},
		{"no category match", ErrNoCategoryMatch, false},
		{"unrelated", errors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsParseFailure(tt.err))
		})
	}
}
