package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/roomsync"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
)

type roomRepo interface {
	Create(ctx context.Context, room *entity.Room) error
	AppendMove(ctx context.Context, code string, move *entity.Move) error
	ListMoves(ctx context.Context, code string) ([]*entity.Move, error)
}

type roomSync interface {
	Fetch(ctx context.Context, code string) (*entity.Room, error)
	Submit(ctx context.Context, code string, expected roomsync.Expectation, next *entity.Room) (*entity.Room, error)
	Resync(ctx context.Context, code string, onChange func(*entity.Room)) (*entity.Room, *roomsync.Subscription, error)
}

// ResultArchive keeps finished games.
type ResultArchive interface {
	Save(ctx context.Context, result *entity.Result) error
	ListByRoom(ctx context.Context, code string) ([]*entity.Result, error)
}

// RoomDefaults apply when a create request leaves a setting out.
type RoomDefaults struct {
	MaxPlayers       int
	AutoStart        bool
	MaxSubmitRetries int
	CodeAttempts     int
}

type CreateRoomRequest struct {
	Creator    tictactoe.Seat
	MaxPlayers int
	BoardSize  int
	AutoStart  *bool
	GameMode   string
}

type RoomManager struct {
	logger *slog.Logger

	rooms    roomRepo
	adapter  roomSync
	results  ResultArchive
	defaults RoomDefaults

	now          func() time.Time
	generateCode func() (string, error)
}

// NewRoomManager - results may be nil, finished games are then not archived.
func NewRoomManager(logger *slog.Logger, rooms roomRepo, adapter roomSync, results ResultArchive, defaults RoomDefaults) *RoomManager {
	return &RoomManager{
		logger: logger.With("component", "room_manager"),

		rooms:    rooms,
		adapter:  adapter,
		results:  results,
		defaults: defaults,

		now:          func() time.Time { return time.Now().UTC() },
		generateCode: pkg.GenerateRoomCode,
	}
}

// CreateRoom - a fresh code is drawn until one is free, at most CodeAttempts times.
func (that *RoomManager) CreateRoom(ctx context.Context, req CreateRoomRequest) (*entity.Room, error) {
	log := that.logger.With("method", "CreateRoom")

	if req.Creator.ID == "" {
		req.Creator.ID = pkg.GenerateNewSessionID()
	}

	maxPlayers := req.MaxPlayers
	if maxPlayers == 0 {
		maxPlayers = that.defaults.MaxPlayers
	}

	// The default only covers two seat rooms. Larger rooms wait for the creator unless asked otherwise.
	autoStart := that.defaults.AutoStart && maxPlayers == entity.MinPlayers
	if req.AutoStart != nil {
		autoStart = *req.AutoStart
	}

	config := entity.NewRoomConfig(maxPlayers, req.BoardSize, autoStart, req.GameMode)

	var lastErr error
	for range max(1, that.defaults.CodeAttempts) {
		code, err := that.generateCode()
		if err != nil {
			return nil, fmt.Errorf("failed to generate room code: %w", err)
		}

		room, err := tictactoe.NewRoom(code, req.Creator, config, that.now())
		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		err = that.rooms.Create(ctx, room)
		if errors.Is(err, apperror.ErrRoomAlreadyExists) {
			log.Debug("room code taken, retrying", "roomCode", code)
			lastErr = err
			continue
		}

		if err != nil {
			return nil, fmt.Errorf("failed to create room: %w", err)
		}

		log.Info("room created", "roomCode", code, "playerID", req.Creator.ID, "maxPlayers", config.MaxPlayers)

		return room, nil
	}

	return nil, fmt.Errorf("failed to find a free room code: %w", lastErr)
}

// JoinRoom - joining a room the player is already in returns the room unchanged.
func (that *RoomManager) JoinRoom(ctx context.Context, code string, seat tictactoe.Seat) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)
	if seat.ID == "" {
		seat.ID = pkg.GenerateNewSessionID()
	}

	room, err := that.update(ctx, code, "JoinRoom", func(room *entity.Room) (*entity.Room, error) {
		if _, ok := room.PlayerByID(seat.ID); ok {
			return room, nil
		}

		return tictactoe.Join(room, seat, that.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to join room: %w", err)
	}

	return room, nil
}

func (that *RoomManager) GetRoom(ctx context.Context, code string) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)
	room, err := that.adapter.Fetch(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to get room: %w", err)
	}

	return room, nil
}

func (that *RoomManager) StartGame(ctx context.Context, code, playerID string) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)
	room, err := that.update(ctx, code, "StartGame", func(room *entity.Room) (*entity.Room, error) {
		return tictactoe.Start(room, playerID, that.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start game: %w", err)
	}

	return room, nil
}

// MakeMove - a move that lost a race is checked again against the fresh room,
// so it fails with the rule it now breaks.
func (that *RoomManager) MakeMove(ctx context.Context, code, playerID string, cell int) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)
	log := that.logger.With("method", "MakeMove", "roomCode", code, "playerID", playerID)

	var move *entity.Move
	room, err := that.update(ctx, code, "MakeMove", func(room *entity.Room) (*entity.Room, error) {
		next, accepted, err := tictactoe.MakeTurn(room, playerID, cell, that.now())
		move = accepted
		return next, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to make move: %w", err)
	}

	if err = that.rooms.AppendMove(ctx, code, move); err != nil {
		log.Error("failed to record move", "cell", cell, "error", err)
	}

	if room.IsFinished() {
		log.Info("game finished", "winnerID", room.WinnerID, "isDraw", room.IsDraw, "game", room.GameCount)
		that.archive(ctx, room)
	}

	return room, nil
}

func (that *RoomManager) RequestRematch(ctx context.Context, code, playerID string) (*entity.Room, error) {
	code = pkg.NormalizeRoomCode(code)
	room, err := that.update(ctx, code, "RequestRematch", func(room *entity.Room) (*entity.Room, error) {
		return tictactoe.RequestRematch(room, playerID, that.now())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to request rematch: %w", err)
	}

	return room, nil
}

func (that *RoomManager) ListMoves(ctx context.Context, code string) ([]*entity.Move, error) {
	code = pkg.NormalizeRoomCode(code)
	if _, err := that.GetRoom(ctx, code); err != nil {
		return nil, err
	}

	moves, err := that.rooms.ListMoves(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	return moves, nil
}

// ListResults - empty when archiving is disabled.
func (that *RoomManager) ListResults(ctx context.Context, code string) ([]*entity.Result, error) {
	code = pkg.NormalizeRoomCode(code)
	if that.results == nil {
		return []*entity.Result{}, nil
	}

	results, err := that.results.ListByRoom(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to list results: %w", err)
	}

	return results, nil
}

// Watch returns the current room and calls onChange for every later change.
func (that *RoomManager) Watch(ctx context.Context, code string, onChange func(*entity.Room)) (*entity.Room, *roomsync.Subscription, error) {
	code = pkg.NormalizeRoomCode(code)
	room, sub, err := that.adapter.Resync(ctx, code, onChange)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to watch room: %w", err)
	}

	return room, sub, nil
}

// update runs fetch, transition and conditional submit, starting over on a conflict.
// A transition that leaves the version as it was is not submitted.
func (that *RoomManager) update(
	ctx context.Context,
	code, method string,
	transition func(*entity.Room) (*entity.Room, error),
) (*entity.Room, error) {
	log := that.logger.With("method", method, "roomCode", code)

	attempts := max(1, that.defaults.MaxSubmitRetries)

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		var room *entity.Room
		room, err = that.adapter.Fetch(ctx, code)
		if err != nil {
			return nil, err
		}

		var next *entity.Room
		next, err = transition(room)
		if err != nil {
			return nil, err
		}

		if next.Version == room.Version {
			return next, nil
		}

		var stored *entity.Room
		stored, err = that.adapter.Submit(ctx, code, roomsync.ExpectationOf(room), next)
		if err == nil {
			return stored, nil
		}

		if !errors.Is(err, apperror.ErrConflict) {
			return nil, err
		}

		log.Debug("conflict, refetching", "attempt", attempt)
	}

	log.Warn("gave up after conflicts", "attempts", attempts)

	return nil, fmt.Errorf("gave up after %d attempts: %w", attempts, err)
}

func (that *RoomManager) archive(ctx context.Context, room *entity.Room) {
	if that.results == nil {
		return
	}

	log := that.logger.With("method", "archive", "roomCode", room.Code)

	if err := that.results.Save(ctx, entity.NewResult(room)); err != nil {
		log.Error("failed to archive result", "error", err)
	}
}
