package tictactoe

import (
	"testing"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWinLines(t *testing.T) {
	t.Run("Classic board", func(t *testing.T) {
		// When: generating lines for a 3x3 board
		lines := WinLines(3)

		// Then: they are the eight classic combinations
		expected := [][]int{
			{0, 1, 2}, {3, 4, 5}, {6, 7, 8},
			{0, 3, 6}, {1, 4, 7}, {2, 5, 8},
			{0, 4, 8}, {2, 4, 6},
		}
		assert.Equal(t, expected, lines)
	})

	t.Run("Every line spans the whole board", func(t *testing.T) {
		for size := entity.MinBoardSize; size <= entity.MaxBoardSize; size++ {
			lines := WinLines(size)

			require.Len(t, lines, 2*size+2)
			for _, line := range lines {
				assert.Len(t, line, size)
			}
		}
	})
}

func TestDetectOutcome(t *testing.T) {
	t.Run("Malformed board has no outcome", func(t *testing.T) {
		full := entity.Board{"X", "X", "X", "X"}

		assert.Equal(t, Outcome{}, DetectOutcome(full, 0))
		assert.Equal(t, Outcome{}, DetectOutcome(full, 3))
		assert.Equal(t, Outcome{}, DetectOutcome(entity.NewBoard(9), -3))
		assert.Nil(t, WinLines(0))
	})

	t.Run("Any full line of identical marks wins", func(t *testing.T) {
		for size := entity.MinBoardSize; size <= 6; size++ {
			for _, line := range WinLines(size) {
				// Given: a board where only this line is filled
				board := entity.NewBoard(size)
				for _, cell := range line {
					board[cell] = "A"
				}

				// When: detecting the outcome
				outcome := DetectOutcome(board, size)

				// Then: this line is reported
				require.Equal(t, line, outcome.Line, "size %d", size)
				assert.False(t, outcome.IsDraw)
			}
		}
	})

	t.Run("Row of A at 0,1,2 wins", func(t *testing.T) {
		// Given: marks A at [0,1,2]
		board := entity.Board{"A", "A", "A", "", "B", "", "B", "", ""}

		// When: detecting the outcome
		outcome := DetectOutcome(board, 3)

		// Then: the first row is the winning line
		assert.Equal(t, []int{0, 1, 2}, outcome.Line)
		assert.True(t, outcome.IsDecided())
	})

	t.Run("Full board without a line is a draw", func(t *testing.T) {
		// Given: a full 3x3 board with no line
		board := entity.Board{
			"X", "O", "X",
			"X", "O", "O",
			"O", "X", "X",
		}

		// When: detecting the outcome
		outcome := DetectOutcome(board, 3)

		// Then: it is a draw
		assert.Nil(t, outcome.Line)
		assert.True(t, outcome.IsDraw)
	})

	t.Run("Full 4x4 board without a line is a draw", func(t *testing.T) {
		board := entity.Board{
			"A", "A", "B", "B",
			"B", "B", "A", "A",
			"A", "A", "B", "B",
			"B", "B", "A", "A",
		}

		outcome := DetectOutcome(board, 4)

		assert.Nil(t, outcome.Line)
		assert.True(t, outcome.IsDraw)
	})

	t.Run("Three in a row on a 4x4 board is not a win", func(t *testing.T) {
		// Given: three marks in the first row of a 4x4 board
		board := entity.NewBoard(4)
		board[0], board[1], board[2] = "A", "A", "A"

		// When: detecting the outcome
		outcome := DetectOutcome(board, 4)

		// Then: the game goes on
		assert.False(t, outcome.IsDecided())
	})

	t.Run("Ongoing game", func(t *testing.T) {
		board := entity.Board{"X", "O", "X", "", "O", "", "X", "", ""}

		outcome := DetectOutcome(board, 3)

		assert.False(t, outcome.IsDecided())
	})
}

func TestApplyMark(t *testing.T) {
	t.Run("Places the mark on a copy", func(t *testing.T) {
		// Given: an empty board
		board := entity.NewBoard(3)

		// When: applying a mark
		next, err := ApplyMark(board, 4, "X")

		// Then: only the copy changes
		require.NoError(t, err)
		assert.Equal(t, "X", next[4])
		assert.Equal(t, entity.EmptyCell, board[4])
	})

	t.Run("Error on occupied cell", func(t *testing.T) {
		board := entity.Board{"X", "", "", "", "", "", "", "", ""}

		_, err := ApplyMark(board, 0, "O")

		require.ErrorIs(t, err, apperror.ErrCellOccupied)
		assert.Equal(t, "X", board[0])
	})

	t.Run("Error on index out of range", func(t *testing.T) {
		board := entity.NewBoard(3)

		_, err := ApplyMark(board, 9, "X")
		require.ErrorIs(t, err, apperror.ErrOutOfRange)

		_, err = ApplyMark(board, -1, "X")
		require.ErrorIs(t, err, apperror.ErrOutOfRange)
	})

	t.Run("Error on empty mark", func(t *testing.T) {
		_, err := ApplyMark(entity.NewBoard(3), 0, entity.EmptyCell)

		require.ErrorIs(t, err, apperror.ErrInvalidMark)
	})
}
