package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

const pingTimeout = 2 * time.Second

type Handlers interface {
	PingHandler(w http.ResponseWriter, r *http.Request)

	GetRoom(w http.ResponseWriter, r *http.Request)
	ListMoves(w http.ResponseWriter, r *http.Request)
	ListResults(w http.ResponseWriter, r *http.Request)
}

type roomService interface {
	GetRoom(ctx context.Context, code string) (*entity.Room, error)
	ListMoves(ctx context.Context, code string) ([]*entity.Move, error)
	ListResults(ctx context.Context, code string) ([]*entity.Result, error)
}

type pinger interface {
	Ping(ctx context.Context) error
}

type handlers struct {
	logger      *slog.Logger
	roomService roomService
	storage     pinger
}

func NewHandlers(logger *slog.Logger, roomService roomService, storage pinger) Handlers {
	return &handlers{
		logger:      logger.With("component", "rest"),
		roomService: roomService,
		storage:     storage,
	}
}

// PingHandler - answers pong only while the room store is reachable.
func (that *handlers) PingHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), pingTimeout)
	defer cancel()

	if err := that.storage.Ping(ctx); err != nil {
		that.logger.Error("storage ping failed", "error", err)
		http.Error(w, "storage unavailable", http.StatusServiceUnavailable)
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte("pong")); err != nil {
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
}

func (that *handlers) GetRoom(w http.ResponseWriter, r *http.Request) {
	room, err := that.roomService.GetRoom(r.Context(), r.PathValue("code"))
	if err != nil {
		that.writeError(w, "GetRoom", err)
		return
	}

	that.writeJSON(w, room)
}

func (that *handlers) ListMoves(w http.ResponseWriter, r *http.Request) {
	moves, err := that.roomService.ListMoves(r.Context(), r.PathValue("code"))
	if err != nil {
		that.writeError(w, "ListMoves", err)
		return
	}

	that.writeJSON(w, moves)
}

func (that *handlers) ListResults(w http.ResponseWriter, r *http.Request) {
	results, err := that.roomService.ListResults(r.Context(), r.PathValue("code"))
	if err != nil {
		that.writeError(w, "ListResults", err)
		return
	}

	that.writeJSON(w, results)
}

func (that *handlers) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		that.logger.Error("failed to encode response", "error", err)
	}
}

func (that *handlers) writeError(w http.ResponseWriter, method string, err error) {
	if errors.Is(err, apperror.ErrRoomNotFound) {
		http.Error(w, apperror.ErrRoomNotFound.Error(), http.StatusNotFound)
		return
	}

	that.logger.Error("request failed", "method", method, "error", err)
	http.Error(w, "Internal Server Error", http.StatusInternalServerError)
}
