package websocket

import (
	"encoding/json"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Message represents a WebSocket message with an action type and a payload.
type Message struct {
	Action  string          `json:"action"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type Payload struct {
	Player   *entity.Player   `json:"player,omitempty"`
	RoomCode string           `json:"room_code,omitempty"`
	Settings *RoomSettings    `json:"settings,omitempty"`
	Cell     *int             `json:"cell,omitempty"`
	Seats    []*entity.Player `json:"seats,omitempty"`

	Room  *entity.Room `json:"room,omitempty"`
	Error string       `json:"error,omitempty"`
}

// RoomSettings - zero values fall back to the server defaults.
type RoomSettings struct {
	MaxPlayers int    `json:"max_players,omitempty"`
	BoardSize  int    `json:"board_size,omitempty"`
	AutoStart  *bool  `json:"auto_start,omitempty"`
	GameMode   string `json:"game_mode,omitempty"`
}
