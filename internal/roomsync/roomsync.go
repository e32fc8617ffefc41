package roomsync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

// Store is the part of the room repository the adapter needs.
type Store interface {
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	CompareAndSwap(ctx context.Context, code string, expectedVersion int64, expectedStatus string, next *entity.Room) (*entity.Room, error)
	Subscribe(ctx context.Context, code string) (<-chan *entity.Room, func() error, error)
}

// Expectation is what the stored room must still look like for a submit to apply.
type Expectation struct {
	Version int64
	Status  string
}

// ExpectationOf - the expectation for a transition computed from room.
func ExpectationOf(room *entity.Room) Expectation {
	return Expectation{Version: room.Version, Status: room.Status}
}

type Adapter struct {
	logger *slog.Logger
	store  Store
}

func New(logger *slog.Logger, store Store) *Adapter {
	return &Adapter{
		logger: logger.With("component", "roomsync"),
		store:  store,
	}
}

func (that *Adapter) Fetch(ctx context.Context, code string) (*entity.Room, error) {
	room, err := that.store.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch room: %w", err)
	}

	return room, nil
}

// Submit writes next only if the stored room still matches expected, otherwise apperror.ErrConflict.
// The returned room is the snapshot the store confirmed.
func (that *Adapter) Submit(ctx context.Context, code string, expected Expectation, next *entity.Room) (*entity.Room, error) {
	log := that.logger.With("method", "Submit", "roomCode", code)

	stored, err := that.store.CompareAndSwap(ctx, code, expected.Version, expected.Status, next)
	if errors.Is(err, apperror.ErrConflict) {
		log.Debug("submit lost the race", "expectedVersion", expected.Version, "error", err)
		return nil, err
	}

	if err != nil {
		log.Error("failed to submit room", "error", err)
		return nil, fmt.Errorf("failed to submit room: %w", err)
	}

	log.Debug("room updated", "version", stored.Version, "status", stored.Status)

	return stored, nil
}

// Subscribe calls onChange for every change written after it returns, in store order.
// There is no replay: use Resync to get the current snapshot as well.
// Delivery stops when ctx is cancelled or the subscription is closed.
// onChange runs on the delivery goroutine and must not close its own subscription synchronously.
func (that *Adapter) Subscribe(ctx context.Context, code string, onChange func(*entity.Room)) (*Subscription, error) {
	sub, err := that.subscribe(ctx, code, onChange)
	if err != nil {
		return nil, err
	}

	sub.start()

	return sub, nil
}

// Resync subscribes first and then fetches, so no change between the two is lost.
// Changes not newer than the returned snapshot are not delivered.
func (that *Adapter) Resync(ctx context.Context, code string, onChange func(*entity.Room)) (*entity.Room, *Subscription, error) {
	sub, err := that.subscribe(ctx, code, onChange)
	if err != nil {
		return nil, nil, err
	}

	room, err := that.Fetch(ctx, code)
	if err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	// the feed holds what was published meanwhile until delivery starts
	sub.skipUpTo(room.Version)
	sub.start()

	return room, sub, nil
}

func (that *Adapter) Unsubscribe(sub *Subscription) error {
	return sub.Close()
}

func (that *Adapter) subscribe(ctx context.Context, code string, onChange func(*entity.Room)) (*Subscription, error) {
	ctx, cancel := context.WithCancel(ctx)

	changes, closeFeed, err := that.store.Subscribe(ctx, code)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to subscribe to room %s: %w", code, err)
	}

	sub := &Subscription{
		code:      code,
		cancel:    cancel,
		closeFeed: closeFeed,
		onChange:  onChange,
		ctx:       ctx,
		changes:   changes,
		done:      make(chan struct{}),
	}

	go func() {
		<-ctx.Done()
		if err := sub.Close(); err != nil {
			that.logger.Error("failed to close room feed", "roomCode", code, "error", err)
		}
	}()

	return sub, nil
}

type Subscription struct {
	code      string
	cancel    context.CancelFunc
	closeFeed func() error
	onChange  func(*entity.Room)

	ctx     context.Context
	changes <-chan *entity.Room

	mu       sync.Mutex
	closed   bool
	lastSeen int64

	once     sync.Once
	closeErr error
	done     chan struct{}
}

func (that *Subscription) Code() string {
	return that.code
}

// Done is closed once no further change will be delivered.
func (that *Subscription) Done() <-chan struct{} {
	return that.done
}

// Close is idempotent. After it returns onChange is not called again.
func (that *Subscription) Close() error {
	that.once.Do(func() {
		that.mu.Lock()
		that.closed = true
		that.mu.Unlock()

		that.cancel()
		that.closeErr = that.closeFeed()
	})

	return that.closeErr
}

func (that *Subscription) skipUpTo(version int64) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if version > that.lastSeen {
		that.lastSeen = version
	}
}

func (that *Subscription) start() {
	go that.deliver()
}

func (that *Subscription) deliver() {
	defer close(that.done)

	for {
		select {
		case <-that.ctx.Done():
			return
		case room, ok := <-that.changes:
			if !ok {
				return
			}

			that.dispatch(room)
		}
	}
}

func (that *Subscription) dispatch(room *entity.Room) {
	that.mu.Lock()
	defer that.mu.Unlock()

	if that.closed || room.Version <= that.lastSeen {
		return
	}

	that.lastSeen = room.Version
	that.onChange(room)
}
