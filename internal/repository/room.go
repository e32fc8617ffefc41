package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
)

type RoomRepository interface {
	Create(ctx context.Context, room *entity.Room) error
	GetByCode(ctx context.Context, code string) (*entity.Room, error)
	CompareAndSwap(ctx context.Context, code string, expectedVersion int64, expectedStatus string, next *entity.Room) (*entity.Room, error)
	Subscribe(ctx context.Context, code string) (<-chan *entity.Room, func() error, error)
	AppendMove(ctx context.Context, code string, move *entity.Move) error
	ListMoves(ctx context.Context, code string) ([]*entity.Move, error)
}

type dbRoom struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRoomRepository - rooms and their move history expire ttl after the last write. Zero keeps them forever.
func NewRoomRepository(client *redis.Client, ttl time.Duration) RoomRepository {
	return &dbRoom{
		client: client,
		ttl:    ttl,
	}
}

func roomKey(code string) string {
	return "room:" + code
}

func movesKey(code string) string {
	return "room:" + code + ":moves"
}

func changesChannel(code string) string {
	return "room:" + code + ":changes"
}

func (that *dbRoom) Create(ctx context.Context, room *entity.Room) error {
	if err := room.Validate(); err != nil {
		return fmt.Errorf("refused to create room: %w", err)
	}

	roomJSON, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("could not marshal room: %w", err)
	}

	created, err := that.client.SetNX(ctx, roomKey(room.Code), roomJSON, that.ttl).Result()
	if err != nil {
		return fmt.Errorf("failed to set room: %w", err)
	}

	if !created {
		return fmt.Errorf("%w: %s", apperror.ErrRoomAlreadyExists, room.Code)
	}

	return nil
}

func (that *dbRoom) GetByCode(ctx context.Context, code string) (*entity.Room, error) {
	response, err := that.client.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get room by code: %w", err)
	}

	return decodeRoom(response)
}

// CompareAndSwap stores next only if the stored room still has the expected version and status.
// The write and its change notification go out in one transaction.
func (that *dbRoom) CompareAndSwap(
	ctx context.Context,
	code string,
	expectedVersion int64,
	expectedStatus string,
	next *entity.Room,
) (*entity.Room, error) {
	if next.Code != code {
		return nil, fmt.Errorf("%w: snapshot for %q written to %q", apperror.ErrInvalidRoomState, next.Code, code)
	}

	if next.Version <= expectedVersion {
		return nil, fmt.Errorf("%w: version %d does not advance %d", apperror.ErrInvalidRoomState, next.Version, expectedVersion)
	}

	if err := next.Validate(); err != nil {
		return nil, fmt.Errorf("refused to store room: %w", err)
	}

	roomJSON, err := json.Marshal(next)
	if err != nil {
		return nil, fmt.Errorf("could not marshal room: %w", err)
	}

	key := roomKey(code)
	txf := func(tx *redis.Tx) error {
		response, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return fmt.Errorf("%w: %s", apperror.ErrRoomNotFound, code)
		}

		if err != nil {
			return fmt.Errorf("failed to get room by code: %w", err)
		}

		current, err := decodeRoom(response)
		if err != nil {
			return err
		}

		if current.Version != expectedVersion || current.Status != expectedStatus {
			return fmt.Errorf("%w: stored version %d status %s, expected %d %s",
				apperror.ErrConflict, current.Version, current.Status, expectedVersion, expectedStatus)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, roomJSON, that.ttl)
			pipe.Publish(ctx, changesChannel(code), roomJSON)
			return nil
		})

		return err
	}

	err = that.client.Watch(ctx, txf, key)
	if errors.Is(err, redis.TxFailedErr) {
		return nil, fmt.Errorf("%w: room %s changed during write", apperror.ErrConflict, code)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to swap room: %w", err)
	}

	return next.Clone(), nil
}

// Subscribe - returns every snapshot written after the subscription is confirmed, in publish order.
// The channel closes when the returned close func is called.
func (that *dbRoom) Subscribe(ctx context.Context, code string) (<-chan *entity.Room, func() error, error) {
	pubsub := that.client.Subscribe(ctx, changesChannel(code))

	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("failed to subscribe to room changes: %w", err)
	}

	changes := make(chan *entity.Room)
	go func() {
		defer close(changes)

		for msg := range pubsub.Channel() {
			room, err := decodeRoom([]byte(msg.Payload))
			if err != nil {
				// every publisher writes a validated snapshot
				continue
			}

			select {
			case changes <- room:
			case <-ctx.Done():
				return
			}
		}
	}()

	return changes, pubsub.Close, nil
}

func (that *dbRoom) AppendMove(ctx context.Context, code string, move *entity.Move) error {
	moveJSON, err := json.Marshal(move)
	if err != nil {
		return fmt.Errorf("could not marshal move: %w", err)
	}

	key := movesKey(code)
	_, err = that.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.RPush(ctx, key, moveJSON)
		if that.ttl > 0 {
			pipe.Expire(ctx, key, that.ttl)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to append move: %w", err)
	}

	return nil
}

func (that *dbRoom) ListMoves(ctx context.Context, code string) ([]*entity.Move, error) {
	response, err := that.client.LRange(ctx, movesKey(code), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list moves: %w", err)
	}

	moves := make([]*entity.Move, 0, len(response))
	for _, raw := range response {
		var move entity.Move
		if err = json.Unmarshal([]byte(raw), &move); err != nil {
			return nil, fmt.Errorf("failed to unmarshal move: %w", err)
		}

		moves = append(moves, &move)
	}

	return moves, nil
}

func decodeRoom(raw []byte) (*entity.Room, error) {
	var room entity.Room
	if err := json.Unmarshal(raw, &room); err != nil {
		return nil, fmt.Errorf("failed to unmarshal room: %w", err)
	}

	return &room, nil
}
