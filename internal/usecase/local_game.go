package usecase

import (
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

const localRoomCode = "LOCAL"

// LocalGame runs a room on one device: every player shares a connection and nothing is stored.
type LocalGame struct {
	mu   sync.Mutex
	room *entity.Room
	now  func() time.Time
}

func NewLocalGame() *LocalGame {
	return &LocalGame{
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Start seats every player in order and starts the game, replacing any game in progress.
func (that *LocalGame) Start(seats []tictactoe.Seat, boardSize int, gameMode string) (*entity.Room, error) {
	if len(seats) < entity.MinPlayers {
		return nil, fmt.Errorf("%w: %d of %d", apperror.ErrNotEnoughPlayers, len(seats), entity.MinPlayers)
	}

	seats = slices.Clone(seats)
	for i := range seats {
		if seats[i].ID == "" {
			seats[i].ID = fmt.Sprintf("local-%d", i)
		}
	}

	now := that.now()

	room, err := tictactoe.NewRoom(localRoomCode, seats[0], entity.NewRoomConfig(len(seats), boardSize, false, gameMode), now)
	if err != nil {
		return nil, fmt.Errorf("failed to create local game: %w", err)
	}

	for _, seat := range seats[1:] {
		if room, err = tictactoe.Join(room, seat, now); err != nil {
			return nil, fmt.Errorf("failed to seat local player: %w", err)
		}
	}

	if room, err = tictactoe.Start(room, seats[0].ID, now); err != nil {
		return nil, fmt.Errorf("failed to start local game: %w", err)
	}

	that.mu.Lock()
	that.room = room
	that.mu.Unlock()

	return room.Clone(), nil
}

// Move plays cell for whoever's turn it is.
func (that *LocalGame) Move(cell int) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.room == nil {
		return nil, apperror.ErrNoSuchGame
	}

	current := that.room.CurrentPlayer()
	if current == nil {
		return nil, apperror.ErrNoSuchGame
	}

	next, _, err := tictactoe.MakeTurn(that.room, current.ID, cell, that.now())
	if err != nil {
		return nil, err
	}

	that.room = next

	return next.Clone(), nil
}

// Rematch starts the next game right away: on one device everybody agrees at once.
func (that *LocalGame) Rematch() (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.room == nil {
		return nil, apperror.ErrNoSuchGame
	}

	room := that.room
	for _, player := range that.room.Players {
		next, err := tictactoe.RequestRematch(room, player.ID, that.now())
		if err != nil {
			return nil, err
		}

		room = next
	}

	that.room = room

	return room.Clone(), nil
}

func (that *LocalGame) Room() (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.room == nil {
		return nil, apperror.ErrNoSuchGame
	}

	return that.room.Clone(), nil
}
