package entity

import (
	"errors"
	"fmt"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
)

const (
	StatusWaiting  = "waiting"
	StatusActive   = "active"
	StatusFinished = "finished"
)

const (
	ModeRegular = "regular"
	ModeWords   = "words"
	ModeEmoji   = "emoji"
)

const (
	MinPlayers   = 2
	MaxPlayers   = 8
	MinBoardSize = 3
	MaxBoardSize = 10
)

// RegularMarks are handed out by join order in regular mode.
var RegularMarks = [MaxPlayers]string{"X", "O", "△", "□", "◯", "★", "♦", "♠"}

var ErrUnknownRoomStatus = errors.New("unknown room status")

// RoomConfig is fixed when the room is created.
type RoomConfig struct {
	MaxPlayers            int    `json:"max_players"`
	BoardSize             int    `json:"board_size"`
	AutoStartAtMinPlayers bool   `json:"auto_start_at_min_players"`
	GameMode              string `json:"game_mode"`
}

// NewRoomConfig fills in defaults: board size max(3, maxPlayers+1) and regular mode.
func NewRoomConfig(maxPlayers, boardSize int, autoStart bool, gameMode string) RoomConfig {
	if boardSize == 0 {
		boardSize = max(MinBoardSize, maxPlayers+1)
	}

	if gameMode == "" {
		gameMode = ModeRegular
	}

	return RoomConfig{
		MaxPlayers:            maxPlayers,
		BoardSize:             boardSize,
		AutoStartAtMinPlayers: autoStart,
		GameMode:              gameMode,
	}
}

func (that RoomConfig) Validate() error {
	if that.MaxPlayers < MinPlayers || that.MaxPlayers > MaxPlayers {
		return fmt.Errorf("%w: max players %d not in [%d, %d]", apperror.ErrInvalidConfig, that.MaxPlayers, MinPlayers, MaxPlayers)
	}

	if that.BoardSize < MinBoardSize || that.BoardSize > MaxBoardSize {
		return fmt.Errorf("%w: board size %d not in [%d, %d]", apperror.ErrInvalidConfig, that.BoardSize, MinBoardSize, MaxBoardSize)
	}

	switch that.GameMode {
	case ModeRegular, ModeWords, ModeEmoji:
		return nil
	default:
		return fmt.Errorf("%w: unknown game mode %q", apperror.ErrInvalidConfig, that.GameMode)
	}
}

// Room is the authoritative, self-describing snapshot shared by every client of a room.
type Room struct {
	Code               string     `json:"room_code"`
	Players            []*Player  `json:"players"`
	Board              Board      `json:"board"`
	CurrentPlayerIndex int        `json:"current_player_index"`
	Status             string     `json:"status"`
	WinnerID           *string    `json:"winner_id"`
	IsDraw             bool       `json:"is_draw"`
	WinningCells       []int      `json:"winning_cells"`
	Config             RoomConfig `json:"config"`
	RematchIntents     []string   `json:"rematch_intents"`
	GameCount          int        `json:"game_count"`
	Version            int64      `json:"version"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

// Clone returns a deep copy, so transitions never share memory with their input.
func (that *Room) Clone() *Room {
	room := *that

	room.Players = make([]*Player, len(that.Players))
	for i, player := range that.Players {
		room.Players[i] = player.Clone()
	}

	room.Board = that.Board.Clone()
	room.WinningCells = append([]int{}, that.WinningCells...)
	room.RematchIntents = append([]string{}, that.RematchIntents...)

	if that.WinnerID != nil {
		winner := *that.WinnerID
		room.WinnerID = &winner
	}

	return &room
}

func (that *Room) IsWaiting() bool {
	return that.Status == StatusWaiting
}

func (that *Room) IsActive() bool {
	return that.Status == StatusActive
}

func (that *Room) IsFinished() bool {
	return that.Status == StatusFinished
}

// ConfirmActiveState returns nil only when moves are allowed.
func (that *Room) ConfirmActiveState() error {
	switch that.Status {
	case StatusActive:
		return nil
	case StatusWaiting:
		return fmt.Errorf("%w: waiting for players", apperror.ErrGameNotActive)
	case StatusFinished:
		return fmt.Errorf("%w: game is finished", apperror.ErrGameNotActive)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoomStatus, that.Status)
	}
}

func (that *Room) IsFull() bool {
	return len(that.Players) >= that.Config.MaxPlayers
}

func (that *Room) PlayerByID(id string) (*Player, bool) {
	for _, player := range that.Players {
		if player.ID == id {
			return player, true
		}
	}

	return nil, false
}

func (that *Room) PlayerByMark(mark string) (*Player, bool) {
	for _, player := range that.Players {
		if player.Mark == mark {
			return player, true
		}
	}

	return nil, false
}

func (that *Room) CurrentPlayer() *Player {
	if that.CurrentPlayerIndex < 0 || that.CurrentPlayerIndex >= len(that.Players) {
		return nil
	}

	return that.Players[that.CurrentPlayerIndex]
}

func (that *Room) Creator() *Player {
	for _, player := range that.Players {
		if player.IsCreator {
			return player
		}
	}

	return nil
}

func (that *Room) HasRematchIntent(playerID string) bool {
	for _, id := range that.RematchIntents {
		if id == playerID {
			return true
		}
	}

	return false
}

// Validate checks the room invariants. Every snapshot written to the store passes it.
func (that *Room) Validate() error {
	if err := that.Config.Validate(); err != nil {
		return err
	}

	size := that.Config.BoardSize
	if len(that.Board) != size*size {
		return fmt.Errorf("%w: board has %d cells, want %d", apperror.ErrInvalidRoomState, len(that.Board), size*size)
	}

	if len(that.Players) > that.Config.MaxPlayers {
		return fmt.Errorf("%w: %d players exceed max %d", apperror.ErrInvalidRoomState, len(that.Players), that.Config.MaxPlayers)
	}

	if that.CurrentPlayerIndex < 0 || that.CurrentPlayerIndex >= max(1, len(that.Players)) {
		return fmt.Errorf("%w: current player index %d", apperror.ErrInvalidRoomState, that.CurrentPlayerIndex)
	}

	if err := that.validatePlayers(); err != nil {
		return err
	}

	return that.validateOutcome()
}

func (that *Room) validatePlayers() error {
	creators := 0
	for i, player := range that.Players {
		if player.JoinOrder != i {
			return fmt.Errorf("%w: player %s has join order %d at position %d", apperror.ErrInvalidRoomState, player.ID, player.JoinOrder, i)
		}

		if player.IsCreator {
			creators++
			if player.JoinOrder != 0 {
				return fmt.Errorf("%w: creator must join first", apperror.ErrInvalidRoomState)
			}
		}
	}

	if len(that.Players) > 0 && creators != 1 {
		return fmt.Errorf("%w: room has %d creators", apperror.ErrInvalidRoomState, creators)
	}

	return nil
}

func (that *Room) validateOutcome() error {
	if that.WinnerID != nil && that.IsDraw {
		return fmt.Errorf("%w: both winner and draw are set", apperror.ErrInvalidRoomState)
	}

	decided := that.WinnerID != nil || that.IsDraw

	switch that.Status {
	case StatusWaiting, StatusActive:
		if decided {
			return fmt.Errorf("%w: %s room has an outcome", apperror.ErrInvalidRoomState, that.Status)
		}
	case StatusFinished:
		if !decided {
			return fmt.Errorf("%w: finished room has no outcome", apperror.ErrInvalidRoomState)
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownRoomStatus, that.Status)
	}

	if that.WinnerID == nil && len(that.WinningCells) > 0 {
		return fmt.Errorf("%w: winning cells without a winner", apperror.ErrInvalidRoomState)
	}

	return nil
}
