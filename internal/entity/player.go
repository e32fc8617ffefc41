package entity

// Player is a seat in a room. ID is an opaque token handed out at join time.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Mark      string `json:"mark"`
	Color     string `json:"color,omitempty"`
	JoinOrder int    `json:"join_order"`
	IsCreator bool   `json:"is_creator"`
	Score     int    `json:"score"`
}

func (that *Player) Clone() *Player {
	player := *that
	return &player
}
