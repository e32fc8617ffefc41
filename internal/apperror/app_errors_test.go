package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(fmt.Errorf("invalid turn: %w", ErrNotYourTurn)))
	assert.True(t, IsValidation(fmt.Errorf("failed: %w", fmt.Errorf("%w: 4 of 3", ErrRoomFull))))
	assert.False(t, IsValidation(ErrConflict))
	assert.False(t, IsValidation(errors.New("redis down")))
}

func TestSentinel(t *testing.T) {
	t.Run("Unwraps to the application error", func(t *testing.T) {
		sentinel, ok := Sentinel(fmt.Errorf("failed to make move: %w", fmt.Errorf("invalid turn: %w: cell 4", ErrCellOccupied)))

		assert.True(t, ok)
		assert.Equal(t, ErrCellOccupied, sentinel)
	})

	t.Run("Storage errors", func(t *testing.T) {
		sentinel, ok := Sentinel(fmt.Errorf("gave up after 3 attempts: %w", ErrConflict))

		assert.True(t, ok)
		assert.Equal(t, ErrConflict, sentinel)
	})

	t.Run("Unknown error", func(t *testing.T) {
		_, ok := Sentinel(errors.New("boom"))

		assert.False(t, ok)
	})
}
