package entity

import (
	"encoding/json"
	"fmt"
)

// EmptyCell marks a free cell. It is stored as JSON null.
const EmptyCell = ""

// Board is a flat size*size grid of marks, row by row.
type Board []string

func NewBoard(size int) Board {
	return make(Board, size*size)
}

// Clone returns an independent copy of the board.
func (that Board) Clone() Board {
	if that == nil {
		return nil
	}

	board := make(Board, len(that))
	copy(board, that)

	return board
}

func (that Board) IsFull() bool {
	for _, cell := range that {
		if cell == EmptyCell {
			return false
		}
	}

	return true
}

func (that Board) MarshalJSON() ([]byte, error) {
	cells := make([]*string, len(that))
	for i := range that {
		if that[i] != EmptyCell {
			cells[i] = &that[i]
		}
	}

	return json.Marshal(cells)
}

func (that *Board) UnmarshalJSON(data []byte) error {
	var cells []*string
	if err := json.Unmarshal(data, &cells); err != nil {
		return fmt.Errorf("failed to unmarshal board: %w", err)
	}

	if cells == nil {
		*that = nil
		return nil
	}

	board := make(Board, len(cells))
	for i, cell := range cells {
		if cell != nil {
			board[i] = *cell
		}
	}

	*that = board

	return nil
}
