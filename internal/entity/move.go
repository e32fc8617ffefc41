package entity

import "time"

// Move is one accepted turn together with the board it produced.
type Move struct {
	PlayerID string    `json:"player_id"`
	Cell     int       `json:"cell"`
	Mark     string    `json:"mark"`
	Board    Board     `json:"board"`
	At       time.Time `json:"at"`
}
