package tictactoe

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// WordLength is the exact length of a mark in words mode.
const WordLength = 3

// Seat is what a player brings to a room. The room decides join order and, in regular mode, the mark.
type Seat struct {
	ID    string
	Name  string
	Mark  string
	Color string
}

// NewRoom creates a waiting room with the creator in the first seat.
func NewRoom(code string, creator Seat, config entity.RoomConfig, now time.Time) (*entity.Room, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	mark, err := resolveMark(config, 0, creator.Mark)
	if err != nil {
		return nil, err
	}

	return &entity.Room{
		Code: code,
		Players: []*entity.Player{
			{
				ID:        creator.ID,
				Name:      creator.Name,
				Mark:      mark,
				Color:     creator.Color,
				JoinOrder: 0,
				IsCreator: true,
			},
		},
		Board:              entity.NewBoard(config.BoardSize),
		CurrentPlayerIndex: 0,
		Status:             entity.StatusWaiting,
		WinningCells:       []int{},
		Config:             config,
		RematchIntents:     []string{},
		GameCount:          1,
		Version:            1,
		CreatedAt:          now,
		UpdatedAt:          now,
	}, nil
}

// CanJoin returns the error Join would fail with, or nil.
func CanJoin(room *entity.Room, seat Seat) error {
	if room.IsFull() {
		return fmt.Errorf("%w: %d of %d players", apperror.ErrRoomFull, len(room.Players), room.Config.MaxPlayers)
	}

	if !room.IsWaiting() {
		return fmt.Errorf("%w: room is %s", apperror.ErrRoomNotJoinable, room.Status)
	}

	if _, ok := room.PlayerByID(seat.ID); ok {
		return fmt.Errorf("%w: %s", apperror.ErrAlreadyJoined, seat.ID)
	}

	mark, err := resolveMark(room.Config, len(room.Players), seat.Mark)
	if err != nil {
		return err
	}

	if _, ok := room.PlayerByMark(mark); ok {
		return fmt.Errorf("%w: %q", apperror.ErrMarkTaken, mark)
	}

	return nil
}

// Join seats a new player. With AutoStartAtMinPlayers the room becomes active once two players are in.
func Join(room *entity.Room, seat Seat, now time.Time) (*entity.Room, error) {
	if err := CanJoin(room, seat); err != nil {
		return nil, fmt.Errorf("invalid join: %w", err)
	}

	joinOrder := len(room.Players)

	mark, err := resolveMark(room.Config, joinOrder, seat.Mark)
	if err != nil {
		return nil, fmt.Errorf("invalid join: %w", err)
	}

	next := room.Clone()
	next.Players = append(next.Players, &entity.Player{
		ID:        seat.ID,
		Name:      seat.Name,
		Mark:      mark,
		Color:     seat.Color,
		JoinOrder: joinOrder,
	})

	if next.Config.AutoStartAtMinPlayers && len(next.Players) >= entity.MinPlayers {
		next.Status = entity.StatusActive
	}

	touch(next, now)

	return next, nil
}

// CanStart returns the error Start would fail with, or nil.
func CanStart(room *entity.Room, playerID string) error {
	player, ok := room.PlayerByID(playerID)
	if !ok {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotInRoom, playerID)
	}

	if !player.IsCreator {
		return apperror.ErrNotCreator
	}

	if !room.IsWaiting() {
		return fmt.Errorf("%w: game already started", apperror.ErrGameNotActive)
	}

	if len(room.Players) < entity.MinPlayers {
		return fmt.Errorf("%w: %d of %d", apperror.ErrNotEnoughPlayers, len(room.Players), entity.MinPlayers)
	}

	return nil
}

// Start activates a waiting room on the creator's request.
func Start(room *entity.Room, playerID string, now time.Time) (*entity.Room, error) {
	if err := CanStart(room, playerID); err != nil {
		return nil, fmt.Errorf("invalid start: %w", err)
	}

	next := room.Clone()
	next.Status = entity.StatusActive
	touch(next, now)

	return next, nil
}

// CanRematch returns the error RequestRematch would fail with, or nil.
func CanRematch(room *entity.Room, playerID string) error {
	if _, ok := room.PlayerByID(playerID); !ok {
		return fmt.Errorf("%w: %s", apperror.ErrPlayerNotInRoom, playerID)
	}

	if !room.IsFinished() {
		return fmt.Errorf("%w: room is %s", apperror.ErrGameNotFinished, room.Status)
	}

	return nil
}

// RequestRematch records the player's intent. Once every player has asked, the board resets
// and a new game starts with the first player. A repeated request returns an unchanged copy.
func RequestRematch(room *entity.Room, playerID string, now time.Time) (*entity.Room, error) {
	if err := CanRematch(room, playerID); err != nil {
		return nil, fmt.Errorf("invalid rematch: %w", err)
	}

	next := room.Clone()
	if next.HasRematchIntent(playerID) {
		return next, nil
	}

	next.RematchIntents = append(next.RematchIntents, playerID)

	if len(next.RematchIntents) == len(next.Players) {
		next.Board = entity.NewBoard(next.Config.BoardSize)
		next.CurrentPlayerIndex = 0
		next.Status = entity.StatusActive
		next.WinnerID = nil
		next.IsDraw = false
		next.WinningCells = []int{}
		next.RematchIntents = []string{}
		next.GameCount++
	}

	touch(next, now)

	return next, nil
}

func resolveMark(config entity.RoomConfig, joinOrder int, requested string) (string, error) {
	if config.GameMode == entity.ModeRegular {
		if joinOrder >= len(entity.RegularMarks) {
			return "", fmt.Errorf("%w: no regular mark for seat %d", apperror.ErrRoomFull, joinOrder)
		}

		return entity.RegularMarks[joinOrder], nil
	}

	mark := strings.TrimSpace(requested)
	if mark == "" {
		return "", apperror.ErrInvalidMark
	}

	if config.GameMode == entity.ModeWords {
		mark = strings.ToUpper(mark)
		if utf8.RuneCountInString(mark) != WordLength {
			return "", fmt.Errorf("%w: word %q must be %d letters", apperror.ErrInvalidMark, mark, WordLength)
		}
	}

	return mark, nil
}

func touch(room *entity.Room, now time.Time) {
	room.Version++
	room.UpdatedAt = now
}
