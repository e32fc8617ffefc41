package usecase

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/roomsync"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

// memStore keeps rooms in memory with the same compare-and-swap rule as the redis repository.
type memStore struct {
	mu    sync.Mutex
	rooms map[string]*entity.Room
	moves map[string][]*entity.Move

	// beforeSwap runs once per submit, before the stored room is compared.
	beforeSwap func(code string)
	// conflictsLeft submits fail with a conflict before any comparison.
	conflictsLeft int
	submits       int
}

func newMemStore() *memStore {
	return &memStore{
		rooms: make(map[string]*entity.Room),
		moves: make(map[string][]*entity.Move),
	}
}

func (that *memStore) Create(_ context.Context, room *entity.Room) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	if _, ok := that.rooms[room.Code]; ok {
		return fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, room.Code)
	}

	that.rooms[room.Code] = room.Clone()
	return nil
}

func (that *memStore) Fetch(_ context.Context, code string) (*entity.Room, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	room, ok := that.rooms[code]
	if !ok {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	return room.Clone(), nil
}

func (that *memStore) Submit(_ context.Context, code string, expected roomsync.Expectation, next *entity.Room) (*entity.Room, error) {
	that.mu.Lock()
	hook := that.beforeSwap
	that.beforeSwap = nil
	that.submits++
	if that.conflictsLeft > 0 {
		that.conflictsLeft--
		that.mu.Unlock()
		return nil, apperror.ErrConflict
	}
	that.mu.Unlock()

	if hook != nil {
		hook(code)
	}

	that.mu.Lock()
	defer that.mu.Unlock()

	current, ok := that.rooms[code]
	if !ok {
		return nil, apperror.ErrRoomNotFound
	}

	if current.Version != expected.Version || current.Status != expected.Status {
		return nil, apperror.ErrConflict
	}

	if err := next.Validate(); err != nil {
		return nil, err
	}

	that.rooms[code] = next.Clone()
	return next.Clone(), nil
}

func (that *memStore) submitCount() int {
	that.mu.Lock()
	defer that.mu.Unlock()

	return that.submits
}

func (that *memStore) Resync(ctx context.Context, code string, _ func(*entity.Room)) (*entity.Room, *roomsync.Subscription, error) {
	room, err := that.Fetch(ctx, code)
	return room, nil, err
}

// put overwrites a room as another client's winning write.
func (that *memStore) put(room *entity.Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.rooms[room.Code] = room.Clone()
}

func (that *memStore) AppendMove(_ context.Context, code string, move *entity.Move) error {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.moves[code] = append(that.moves[code], move)
	return nil
}

func (that *memStore) ListMoves(_ context.Context, code string) ([]*entity.Move, error) {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*entity.Move{}, that.moves[code]...), nil
}

type mockResultRepo struct {
	mock.Mock
}

func (that *mockResultRepo) Save(ctx context.Context, result *entity.Result) error {
	return that.Called(ctx, result).Error(0)
}

func (that *mockResultRepo) ListByRoom(ctx context.Context, code string) ([]*entity.Result, error) {
	args := that.Called(ctx, code)
	results, _ := args.Get(0).([]*entity.Result)
	return results, args.Error(1)
}
