package websocket

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/rocketscienceinc/tictactoe-rooms/internal/roomsync"
	"github.com/rocketscienceinc/tictactoe-rooms/internal/usecase"
)

// client is one websocket connection. gorilla allows a single concurrent writer, hence writeMutex.
type client struct {
	conn       *websocket.Conn
	writeMutex sync.Mutex

	mutex         sync.Mutex
	playerID      string
	subscriptions map[string]*roomsync.Subscription
	local         *usecase.LocalGame

	closeOnce sync.Once
	done      chan struct{}
}

func newClient(conn *websocket.Conn, playerID string) *client {
	return &client{
		conn:          conn,
		playerID:      playerID,
		subscriptions: make(map[string]*roomsync.Subscription),
		local:         usecase.NewLocalGame(),
		done:          make(chan struct{}),
	}
}

func (that *client) getPlayerID() string {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	return that.playerID
}

func (that *client) setPlayerID(playerID string) {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	that.playerID = playerID
}

// subscribe keeps one subscription per room, a previous one for the same room is closed.
func (that *client) subscribe(code string, sub *roomsync.Subscription) {
	that.mutex.Lock()
	previous := that.subscriptions[code]
	that.subscriptions[code] = sub
	that.mutex.Unlock()

	if previous != nil {
		_ = previous.Close()
	}
}

func (that *client) subscribed(code string) bool {
	that.mutex.Lock()
	defer that.mutex.Unlock()

	_, ok := that.subscriptions[code]
	return ok
}

func (that *client) unsubscribe(code string) bool {
	that.mutex.Lock()
	sub, ok := that.subscriptions[code]
	delete(that.subscriptions, code)
	that.mutex.Unlock()

	if ok {
		_ = sub.Close()
	}

	return ok
}

func (that *client) sendMessage(action string, payload Payload) error {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	that.writeMutex.Lock()
	defer that.writeMutex.Unlock()

	_ = that.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err = that.conn.WriteJSON(Message{Action: action, Payload: payloadBytes}); err != nil {
		return fmt.Errorf("failed to write message: %w", err)
	}

	return nil
}

func (that *client) keepAlive() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-that.done:
			return
		case <-ticker.C:
			that.writeMutex.Lock()
			err := that.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait))
			that.writeMutex.Unlock()

			if err != nil {
				return
			}
		}
	}
}

// close releases every subscription and the connection. Safe to call more than once.
func (that *client) close() {
	that.closeOnce.Do(func() {
		close(that.done)

		that.mutex.Lock()
		subs := that.subscriptions
		that.subscriptions = make(map[string]*roomsync.Subscription)
		that.mutex.Unlock()

		for _, sub := range subs {
			_ = sub.Close()
		}

		_ = that.conn.Close()
	})
}
