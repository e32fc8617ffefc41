package tictactoe

import (
	"fmt"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Outcome of a board. Line is nil unless some line is complete.
type Outcome struct {
	Line   []int
	IsDraw bool
}

func (that Outcome) IsDecided() bool {
	return that.Line != nil || that.IsDraw
}

var winLinesCache sync.Map // map[int][][]int

// WinLines returns every row, every column and both diagonals of a size x size board.
// A win needs all size cells of one line, there is no k-in-a-row on larger boards.
// The returned slices are shared and must not be modified.
func WinLines(size int) [][]int {
	if size <= 0 {
		return nil
	}

	if lines, ok := winLinesCache.Load(size); ok {
		return lines.([][]int) //nolint: forcetypeassert // only [][]int is stored
	}

	lines := make([][]int, 0, 2*size+2)

	for row := 0; row < size; row++ {
		line := make([]int, size)
		for col := 0; col < size; col++ {
			line[col] = row*size + col
		}
		lines = append(lines, line)
	}

	for col := 0; col < size; col++ {
		line := make([]int, size)
		for row := 0; row < size; row++ {
			line[row] = row*size + col
		}
		lines = append(lines, line)
	}

	diagonal := make([]int, size)
	antiDiagonal := make([]int, size)
	for i := 0; i < size; i++ {
		diagonal[i] = i*size + i
		antiDiagonal[i] = i*size + (size - 1 - i)
	}
	lines = append(lines, diagonal, antiDiagonal)

	winLinesCache.Store(size, lines)

	return lines
}

// ApplyMark returns a copy of board with mark placed at index.
func ApplyMark(board entity.Board, index int, mark string) (entity.Board, error) {
	if mark == entity.EmptyCell {
		return nil, apperror.ErrInvalidMark
	}

	if index < 0 || index >= len(board) {
		return nil, fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, index)
	}

	if board[index] != entity.EmptyCell {
		return nil, fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, index)
	}

	next := board.Clone()
	next[index] = mark

	return next, nil
}

// DetectOutcome reports the first complete line, or a draw when the board is full.
// A board that is not size x size has no outcome.
func DetectOutcome(board entity.Board, size int) Outcome {
	if size <= 0 || len(board) != size*size {
		return Outcome{}
	}

	for _, line := range WinLines(size) {
		first := board[line[0]]
		if first == entity.EmptyCell {
			continue
		}

		complete := true
		for _, cell := range line[1:] {
			if board[cell] != first {
				complete = false
				break
			}
		}

		if complete {
			return Outcome{Line: append([]int{}, line...)}
		}
	}

	// the game will continue until all the squares are full
	if board.IsFull() {
		return Outcome{IsDraw: true}
	}

	return Outcome{}
}
