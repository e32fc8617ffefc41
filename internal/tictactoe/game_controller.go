package tictactoe

import (
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// CanMove returns the error MakeTurn would fail with, or nil.
func CanMove(room *entity.Room, playerID string, cell int) error {
	if err := room.ConfirmActiveState(); err != nil {
		return err
	}

	if _, ok := room.PlayerByID(playerID); !ok {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotInRoom, playerID)
	}

	if current := room.CurrentPlayer(); current == nil || current.ID != playerID {
		return apperror.ErrNotYourTurn
	}

	if cell < 0 || cell >= len(room.Board) {
		return fmt.Errorf("%w: cell %d", apperror.ErrOutOfRange, cell)
	}

	if room.Board[cell] != entity.EmptyCell {
		return fmt.Errorf("%w: cell %d", apperror.ErrCellOccupied, cell)
	}

	return nil
}

// MakeTurn computes the complete next snapshot for a move by the player whose turn it is.
// The input room is left untouched.
func MakeTurn(room *entity.Room, playerID string, cell int, now time.Time) (*entity.Room, *entity.Move, error) {
	if err := CanMove(room, playerID, cell); err != nil {
		return nil, nil, fmt.Errorf("invalid turn: %w", err)
	}

	mover := room.CurrentPlayer()

	board, err := ApplyMark(room.Board, cell, mover.Mark)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid turn: %w", err)
	}

	next := room.Clone()
	next.Board = board
	updateRoomStatus(next, DetectOutcome(board, next.Config.BoardSize))
	touch(next, now)

	move := &entity.Move{
		PlayerID: mover.ID,
		Cell:     cell,
		Mark:     mover.Mark,
		Board:    board.Clone(),
		At:       now,
	}

	return next, move, nil
}

// updateRoomStatus - applies the outcome after a move.
func updateRoomStatus(room *entity.Room, outcome Outcome) {
	switch {
	// one player wins
	case outcome.Line != nil:
		winner, ok := room.PlayerByMark(room.Board[outcome.Line[0]])
		if !ok {
			winner = room.CurrentPlayer()
		}

		winnerID := winner.ID
		winner.Score++

		room.Status = entity.StatusFinished
		room.WinnerID = &winnerID
		room.IsDraw = false
		room.WinningCells = outcome.Line
	// tie
	case outcome.IsDraw:
		room.Status = entity.StatusFinished
		room.WinnerID = nil
		room.IsDraw = true
		room.WinningCells = []int{}
	// game continue
	default:
		room.CurrentPlayerIndex = (room.CurrentPlayerIndex + 1) % len(room.Players)
	}
}
