package entity

import "time"

// Result is the archived outcome of one finished game of a room.
type Result struct {
	RoomCode   string    `json:"room_code"`
	GameNumber int       `json:"game_number"`
	WinnerID   *string   `json:"winner_id"`
	IsDraw     bool      `json:"is_draw"`
	Board      Board     `json:"board"`
	Players    []*Player `json:"players"`
	FinishedAt time.Time `json:"finished_at"`
}

// NewResult captures a finished room.
func NewResult(room *Room) *Result {
	snapshot := room.Clone()

	return &Result{
		RoomCode:   snapshot.Code,
		GameNumber: snapshot.GameCount,
		WinnerID:   snapshot.WinnerID,
		IsDraw:     snapshot.IsDraw,
		Board:      snapshot.Board,
		Players:    snapshot.Players,
		FinishedAt: snapshot.UpdatedAt,
	}
}
