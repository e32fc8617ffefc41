package rest

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type mockRoomService struct {
	mock.Mock
}

func (that *mockRoomService) GetRoom(ctx context.Context, code string) (*entity.Room, error) {
	args := that.Called(ctx, code)
	room, _ := args.Get(0).(*entity.Room)
	return room, args.Error(1)
}

func (that *mockRoomService) ListMoves(ctx context.Context, code string) ([]*entity.Move, error) {
	args := that.Called(ctx, code)
	moves, _ := args.Get(0).([]*entity.Move)
	return moves, args.Error(1)
}

func (that *mockRoomService) ListResults(ctx context.Context, code string) ([]*entity.Result, error) {
	args := that.Called(ctx, code)
	results, _ := args.Get(0).([]*entity.Result)
	return results, args.Error(1)
}

type mockPinger struct {
	mock.Mock
}

func (that *mockPinger) Ping(ctx context.Context) error {
	return that.Called(ctx).Error(0)
}

func newRouter(service *mockRoomService, storage *mockPinger) http.Handler {
	return NewRouter(NewHandlers(slog.New(slog.NewTextHandler(io.Discard, nil)), service, storage))
}

func get(t *testing.T, handler http.Handler, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func TestPingHandler(t *testing.T) {
	t.Run("Pong while redis answers", func(t *testing.T) {
		storage := &mockPinger{}
		storage.On("Ping", mock.Anything).Return(nil)

		rec := get(t, newRouter(&mockRoomService{}, storage), "/ping")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "pong", rec.Body.String())
	})

	t.Run("Unavailable when redis is down", func(t *testing.T) {
		storage := &mockPinger{}
		storage.On("Ping", mock.Anything).Return(assert.AnError)

		rec := get(t, newRouter(&mockRoomService{}, storage), "/ping")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestGetRoom(t *testing.T) {
	t.Run("Returns the room snapshot", func(t *testing.T) {
		// Given: a stored room
		service := &mockRoomService{}
		room := &entity.Room{Code: "ABC123", Board: entity.NewBoard(3), Status: entity.StatusWaiting, Version: 1}
		service.On("GetRoom", mock.Anything, "ABC123").Return(room, nil)

		// When: fetching it over http
		rec := get(t, newRouter(service, &mockPinger{}), "/rooms/ABC123")

		// Then: the snapshot is the body, empty cells as null
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, "ABC123", body["room_code"])
		assert.Equal(t, []any{nil, nil, nil, nil, nil, nil, nil, nil, nil}, body["board"])
	})

	t.Run("Unknown room is 404", func(t *testing.T) {
		service := &mockRoomService{}
		service.On("GetRoom", mock.Anything, "NOPE00").Return(nil, fmt.Errorf("failed to get room: %w", apperror.ErrRoomNotFound))

		rec := get(t, newRouter(service, &mockPinger{}), "/rooms/NOPE00")

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("Store failure is 500", func(t *testing.T) {
		service := &mockRoomService{}
		service.On("GetRoom", mock.Anything, "ABC123").Return(nil, assert.AnError)

		rec := get(t, newRouter(service, &mockPinger{}), "/rooms/ABC123")

		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})
}

func TestListMovesAndResults(t *testing.T) {
	service := &mockRoomService{}
	service.On("ListMoves", mock.Anything, "ABC123").Return([]*entity.Move{{PlayerID: "p0", Cell: 4, Mark: "X"}}, nil)
	service.On("ListResults", mock.Anything, "ABC123").Return([]*entity.Result{}, nil)
	router := newRouter(service, &mockPinger{})

	t.Run("Moves", func(t *testing.T) {
		rec := get(t, router, "/rooms/ABC123/moves")

		require.Equal(t, http.StatusOK, rec.Code)

		var moves []*entity.Move
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &moves))
		require.Len(t, moves, 1)
		assert.Equal(t, 4, moves[0].Cell)
	})

	t.Run("Results", func(t *testing.T) {
		rec := get(t, router, "/rooms/ABC123/results")

		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("Only GET is routed", func(t *testing.T) {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/rooms/ABC123", nil))

		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}
