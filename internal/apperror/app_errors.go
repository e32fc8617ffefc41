package apperror

import "errors"

// validation errors, never mutate the room.
var (
	ErrNotYourTurn      = errors.New("it's not your turn")
	ErrCellOccupied     = errors.New("cell is already occupied")
	ErrOutOfRange       = errors.New("cell index is out of range")
	ErrGameNotActive    = errors.New("game is not active")
	ErrGameNotFinished  = errors.New("game is not finished")
	ErrRoomFull         = errors.New("room is full")
	ErrRoomNotJoinable  = errors.New("room is not accepting new players")
	ErrAlreadyJoined    = errors.New("player already joined the room")
	ErrMarkTaken        = errors.New("mark is already taken in this room")
	ErrInvalidMark      = errors.New("mark must not be empty")
	ErrNotCreator       = errors.New("only the room creator can start the game")
	ErrNotEnoughPlayers = errors.New("not enough players to start the game")
	ErrPlayerNotInRoom  = errors.New("player is not in this room")
	ErrInvalidConfig    = errors.New("invalid room config")
)

// storage and synchronization errors.
var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrRoomAlreadyExists = errors.New("room already exists")
	ErrConflict          = errors.New("room was changed by another player")
	ErrInvalidRoomState  = errors.New("invalid room state")
	ErrNoSuchGame        = errors.New("no local game in progress")
)

var validationErrors = []error{
	ErrNotYourTurn, ErrCellOccupied, ErrOutOfRange, ErrGameNotActive, ErrGameNotFinished,
	ErrRoomFull, ErrRoomNotJoinable, ErrAlreadyJoined, ErrMarkTaken, ErrInvalidMark,
	ErrNotCreator, ErrNotEnoughPlayers, ErrPlayerNotInRoom, ErrInvalidConfig,
}

var storageErrors = []error{
	ErrRoomNotFound, ErrRoomAlreadyExists, ErrConflict, ErrInvalidRoomState, ErrNoSuchGame,
}

// IsValidation reports whether err is a local rule violation that the acting player can fix.
func IsValidation(err error) bool {
	_, ok := find(err, validationErrors)
	return ok
}

// Sentinel returns the application error err wraps, without the context added on the way up.
func Sentinel(err error) (error, bool) {
	if sentinel, ok := find(err, validationErrors); ok {
		return sentinel, true
	}

	return find(err, storageErrors)
}

func find(err error, targets []error) (error, bool) {
	for _, target := range targets {
		if errors.Is(err, target) {
			return target, true
		}
	}

	return nil, false
}
