package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/entity"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/pkg"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/roomsync"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/tictactoe"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

const (
	sessionCookie = "player_session"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 30 * time.Second
)

type uRoom interface {
	CreateRoom(ctx context.Context, req usecase.CreateRoomRequest) (*entity.Room, error)
	JoinRoom(ctx context.Context, code string, seat tictactoe.Seat) (*entity.Room, error)
	StartGame(ctx context.Context, code, playerID string) (*entity.Room, error)
	MakeMove(ctx context.Context, code, playerID string, cell int) (*entity.Room, error)
	RequestRematch(ctx context.Context, code, playerID string) (*entity.Room, error)
	Watch(ctx context.Context, code string, onChange func(*entity.Room)) (*entity.Room, *roomsync.Subscription, error)
}

type handlerFunc func(ctx context.Context, client *client, message *Message) error

type Server struct {
	logger *slog.Logger
	uRoom  uRoom

	upgrader websocket.Upgrader
	handlers map[string]handlerFunc

	clientsMutex sync.Mutex
	clients      map[*client]struct{}
}

func New(logger *slog.Logger, uRoom uRoom) *Server {
	server := &Server{
		logger: logger.With("component", "websocket"),
		uRoom:  uRoom,

		upgrader: websocket.Upgrader{
			CheckOrigin: func(*http.Request) bool { return true },
		},
		handlers: make(map[string]handlerFunc),
		clients:  make(map[*client]struct{}),
	}

	server.handlers["connect"] = server.handleConnect
	server.handlers["room:create"] = server.handleCreateRoom
	server.handlers["room:join"] = server.handleJoinRoom
	server.handlers["room:start"] = server.handleStartGame
	server.handlers["room:turn"] = server.handleRoomTurn
	server.handlers["room:rematch"] = server.handleRematch
	server.handlers["room:subscribe"] = server.handleSubscribe
	server.handlers["room:unsubscribe"] = server.handleUnsubscribe
	server.handlers["local:start"] = server.handleLocalStart
	server.handlers["local:turn"] = server.handleLocalTurn
	server.handlers["local:rematch"] = server.handleLocalRematch

	return server
}

// Handler - the /ws endpoint. Connections live until they close or ctx is done.
func (that *Server) Handler(ctx context.Context) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		that.upgradeToWebSocket(ctx, w, r)
	})

	return mux
}

// Start - starts WebSocket server.
func (that *Server) Start(ctx context.Context, port string) error {
	srv := &http.Server{
		Addr:         ":" + port,
		Handler:      that.Handler(ctx),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}

	go func() {
		<-ctx.Done()
		that.closeClients()
		_ = srv.Close()
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start server: %w", err)
	}

	return nil
}

// upgradeToWebSocket - upgrades the connection to WebSocket.
func (that *Server) upgradeToWebSocket(ctx context.Context, writer http.ResponseWriter, req *http.Request) {
	log := that.logger.With("method", "upgradeConnection")

	playerID := that.sessionPlayerID(req)
	header := http.Header{}
	header.Add("Set-Cookie", (&http.Cookie{
		Name:    sessionCookie,
		Value:   playerID,
		Expires: time.Now().Add(24 * time.Hour),
		Path:    "/ws",
	}).String())

	conn, err := that.upgrader.Upgrade(writer, req, header)
	if err != nil {
		log.Error("failed to upgrade connection", "error", err)
		return
	}

	client := newClient(conn, playerID)

	that.clientsMutex.Lock()
	that.clients[client] = struct{}{}
	that.clientsMutex.Unlock()

	defer that.handleDisconnect(client)

	log.Info("WebSocket connection established", "playerID", playerID)

	if err = that.handleMessages(ctx, client); err != nil {
		log.Debug("connection closed", "playerID", client.getPlayerID(), "error", err)
	}
}

// handleMessages - processes messages from the client.
func (that *Server) handleMessages(ctx context.Context, client *client) error {
	log := that.logger.With("method", "handleMessages")

	client.conn.SetReadLimit(64 << 10)
	_ = client.conn.SetReadDeadline(time.Now().Add(pongWait))
	client.conn.SetPongHandler(func(string) error {
		return client.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	go client.keepAlive()

	for {
		_, reqBody, err := client.conn.ReadMessage()
		if err != nil {
			return err
		}

		var message Message
		if err = json.Unmarshal(reqBody, &message); err != nil {
			log.Error("failed to unmarshal message", "error", err)
			if err = that.sendErrorResponse(client, "", "malformed message"); err != nil {
				return err
			}
			continue
		}

		handler, ok := that.handlers[message.Action]
		if !ok {
			log.Error("unknown action", "action", message.Action)
			if err = that.sendErrorResponse(client, message.Action, "unknown action"); err != nil {
				return err
			}
			continue
		}

		if err = handler(ctx, client, &message); err != nil {
			log.Error("error processing message", "action", message.Action, "error", err)
		}
	}
}

func (that *Server) sessionPlayerID(req *http.Request) string {
	log := that.logger.With("method", "sessionPlayerID")

	cookie, err := req.Cookie(sessionCookie)
	if err != nil || cookie.Value == "" {
		playerID := pkg.GenerateNewSessionID()
		log.Info("session cookie not found, new one created", "playerID", playerID)
		return playerID
	}

	return cookie.Value
}

func (that *Server) handleDisconnect(client *client) {
	that.clientsMutex.Lock()
	delete(that.clients, client)
	that.clientsMutex.Unlock()

	client.close()

	that.logger.Info("player disconnected", "playerID", client.getPlayerID())
}

func (that *Server) closeClients() {
	that.clientsMutex.Lock()
	defer that.clientsMutex.Unlock()

	for client := range that.clients {
		client.close()
	}
}
