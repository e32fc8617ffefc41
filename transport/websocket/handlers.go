package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const actionRoomUpdate = "room:update"

// handleConnect - a client may bring back the player id of an earlier session.
func (that *Server) handleConnect(_ context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handleConnect")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	if payloadReq.Player != nil && payloadReq.Player.ID != "" {
		client.setPlayerID(payloadReq.Player.ID)
	}

	playerID := client.getPlayerID()

	if err = client.sendMessage(msg.Action, Payload{Player: &entity.Player{ID: playerID}}); err != nil {
		return fmt.Errorf("failed to send response: %w", err)
	}

	log.Info("successfully connected player", "playerID", playerID)

	return nil
}

func (that *Server) handleCreateRoom(ctx context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handleCreateRoom")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	req := usecase.CreateRoomRequest{Creator: seatOf(client, payloadReq.Player)}
	if settings := payloadReq.Settings; settings != nil {
		req.MaxPlayers = settings.MaxPlayers
		req.BoardSize = settings.BoardSize
		req.AutoStart = settings.AutoStart
		req.GameMode = settings.GameMode
	}

	room, err := that.uRoom.CreateRoom(ctx, req)
	if err != nil {
		return that.sendActionError(client, msg.Action, err)
	}

	log.Info("room created", "roomCode", room.Code, "playerID", req.Creator.ID)

	return that.watchAndReply(ctx, client, msg.Action, room)
}

func (that *Server) handleJoinRoom(ctx context.Context, client *client, msg *Message) error {
	log := that.logger.With("method", "handleJoinRoom")

	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	if payloadReq.RoomCode == "" {
		return that.sendErrorResponse(client, msg.Action, "room_code is required")
	}

	seat := seatOf(client, payloadReq.Player)

	room, err := that.uRoom.JoinRoom(ctx, payloadReq.RoomCode, seat)
	if err != nil {
		return that.sendActionError(client, msg.Action, err)
	}

	log.Info("player joined room", "roomCode", room.Code, "playerID", seat.ID)

	return that.watchAndReply(ctx, client, msg.Action, room)
}

func (that *Server) handleStartGame(ctx context.Context, client *client, msg *Message) error {
	return that.handleRoomAction(ctx, client, msg, func(code string, _ *Payload) (*entity.Room, error) {
		return that.uRoom.StartGame(ctx, code, client.getPlayerID())
	})
}

func (that *Server) handleRoomTurn(ctx context.Context, client *client, msg *Message) error {
	return that.handleRoomAction(ctx, client, msg, func(code string, payloadReq *Payload) (*entity.Room, error) {
		if payloadReq.Cell == nil {
			return nil, fmt.Errorf("%w: cell is required", apperror.ErrOutOfRange)
		}

		return that.uRoom.MakeMove(ctx, code, client.getPlayerID(), *payloadReq.Cell)
	})
}

func (that *Server) handleRematch(ctx context.Context, client *client, msg *Message) error {
	return that.handleRoomAction(ctx, client, msg, func(code string, _ *Payload) (*entity.Room, error) {
		return that.uRoom.RequestRematch(ctx, code, client.getPlayerID())
	})
}

// handleSubscribe - the reply carries the current room, later changes arrive as room:update.
func (that *Server) handleSubscribe(ctx context.Context, client *client, msg *Message) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	if payloadReq.RoomCode == "" {
		return that.sendErrorResponse(client, msg.Action, "room_code is required")
	}

	room, sub, err := that.uRoom.Watch(ctx, payloadReq.RoomCode, that.forwardChanges(client))
	if err != nil {
		return that.sendActionError(client, msg.Action, err)
	}

	client.subscribe(room.Code, sub)

	return client.sendMessage(msg.Action, Payload{Room: room})
}

func (that *Server) handleUnsubscribe(_ context.Context, client *client, msg *Message) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	code := pkg.NormalizeRoomCode(payloadReq.RoomCode)
	if !client.unsubscribe(code) {
		return that.sendErrorResponse(client, msg.Action, "not subscribed to this room")
	}

	return client.sendMessage(msg.Action, Payload{RoomCode: code})
}

func (that *Server) handleLocalStart(_ context.Context, client *client, msg *Message) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	seats := make([]tictactoe.Seat, 0, len(payloadReq.Seats))
	for _, player := range payloadReq.Seats {
		if player == nil {
			continue
		}
		seats = append(seats, tictactoe.Seat{ID: player.ID, Name: player.Name, Mark: player.Mark, Color: player.Color})
	}

	var boardSize int
	var gameMode string
	if payloadReq.Settings != nil {
		boardSize = payloadReq.Settings.BoardSize
		gameMode = payloadReq.Settings.GameMode
	}

	room, err := client.local.Start(seats, boardSize, gameMode)
	if err != nil {
		return that.sendActionError(client, msg.Action, err)
	}

	return client.sendMessage(msg.Action, Payload{Room: room})
}

func (that *Server) handleLocalTurn(_ context.Context, client *client, msg *Message) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	if payloadReq.Cell == nil {
		return that.sendErrorResponse(client, msg.Action, "cell is required")
	}

	room, err := client.local.Move(*payloadReq.Cell)
	if err != nil {
		return that.sendActionError(client, msg.Action, err)
	}

	return client.sendMessage(msg.Action, Payload{Room: room})
}

func (that *Server) handleLocalRematch(_ context.Context, client *client, msg *Message) error {
	room, err := client.local.Rematch()
	if err != nil {
		return that.sendActionError(client, msg.Action, err)
	}

	return client.sendMessage(msg.Action, Payload{Room: room})
}

// handleRoomAction - decodes the room code, runs action and replies with the new room.
// Other clients of the room see the change through their subscription.
func (that *Server) handleRoomAction(
	ctx context.Context,
	client *client,
	msg *Message,
	action func(code string, payloadReq *Payload) (*entity.Room, error),
) error {
	payloadReq, err := decodePayload(msg)
	if err != nil {
		return that.sendErrorResponse(client, msg.Action, "malformed payload")
	}

	if payloadReq.RoomCode == "" {
		return that.sendErrorResponse(client, msg.Action, "room_code is required")
	}

	room, err := action(payloadReq.RoomCode, payloadReq)
	if err != nil {
		return that.sendActionError(client, msg.Action, err)
	}

	return client.sendMessage(msg.Action, Payload{Room: room})
}

// watchAndReply subscribes the client to the room unless it already is, then replies with room.
func (that *Server) watchAndReply(ctx context.Context, client *client, action string, room *entity.Room) error {
	log := that.logger.With("method", "watchAndReply", "roomCode", room.Code)

	if !client.subscribed(room.Code) {
		current, sub, err := that.uRoom.Watch(ctx, room.Code, that.forwardChanges(client))
		if err != nil {
			log.Error("failed to watch room", "error", err)
		} else {
			client.subscribe(room.Code, sub)
			if current.Version > room.Version {
				room = current
			}
		}
	}

	return client.sendMessage(action, Payload{Room: room})
}

func (that *Server) forwardChanges(client *client) func(*entity.Room) {
	log := that.logger.With("method", "forwardChanges")

	return func(room *entity.Room) {
		if err := client.sendMessage(actionRoomUpdate, Payload{Room: room}); err != nil {
			log.Debug("failed to forward room change", "roomCode", room.Code, "error", err)
			go client.unsubscribe(room.Code)
		}
	}
}

// sendActionError - rule violations go back verbatim, anything else is logged and reported generically.
func (that *Server) sendActionError(client *client, action string, err error) error {
	switch {
	case apperror.IsValidation(err),
		errors.Is(err, apperror.ErrRoomNotFound),
		errors.Is(err, apperror.ErrConflict),
		errors.Is(err, apperror.ErrNoSuchGame):
		sentinel, _ := apperror.Sentinel(err)
		return that.sendErrorResponse(client, action, sentinel.Error())
	default:
		that.logger.Error("action failed", "action", action, "playerID", client.getPlayerID(), "error", err)
		return that.sendErrorResponse(client, action, "internal error")
	}
}

func (that *Server) sendErrorResponse(client *client, action, errorMsg string) error {
	payload := Payload{Error: errorMsg}
	if err := client.sendMessage(action, payload); err != nil {
		return fmt.Errorf("failed to send error response: %w", err)
	}

	return nil
}

func decodePayload(msg *Message) (*Payload, error) {
	var payloadReq Payload
	if len(msg.Payload) == 0 {
		return &payloadReq, nil
	}

	if err := json.Unmarshal(msg.Payload, &payloadReq); err != nil {
		return nil, fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	return &payloadReq, nil
}

func seatOf(client *client, player *entity.Player) tictactoe.Seat {
	seat := tictactoe.Seat{ID: client.getPlayerID()}
	if player != nil {
		seat.Name = player.Name
		seat.Mark = player.Mark
		seat.Color = player.Color
	}

	return seat
}
