// Package ws manages the realtime client connections. The Manager implements
// the game Broadcaster contract: engines hand it events, it fans the JSON
// encoding out to every connected client without ever blocking a tick loop.
package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	gamedomain "github.com/ivofi20024w-art/in1bet-sub001/internal/modules/game/domain"
	"github.com/ivofi20024w-art/in1bet-sub001/pkg/logger"
)

type closeReason string

const (
	reasonWriteError closeReason = "write_error"
	reasonPingError  closeReason = "ping_error"
	reasonReadError  closeReason = "read_error"
	reasonReplaced   closeReason = "replaced_by_new_connection"
	reasonShutdown   closeReason = "server_shutdown"
	reasonBufferFull closeReason = "buffer_full"
	reasonTimeout    closeReason = "timeout"
)

const (
	sendBufferSize = 256
	writeWait      = 30 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 54 * time.Second
	maxMessageSize = 4096
)

// Connection is one client's WebSocket session
type Connection struct {
	UserID    int64
	Conn      *websocket.Conn
	Send      chan []byte
	manager   *Manager
	closeOnce sync.Once
}

// Manager tracks all live connections, one per user.
type Manager struct {
	clients    map[int64]*Connection
	register   chan *Connection
	unregister chan *Connection
	mu         sync.RWMutex
}

// NewManager creates a new connection manager
func NewManager() *Manager {
	return &Manager{
		clients:    make(map[int64]*Connection),
		register:   make(chan *Connection),
		unregister: make(chan *Connection),
	}
}

// Register attaches a new connection, replacing any previous one for the
// same user.
func (m *Manager) Register(conn *websocket.Conn, userID int64) *Connection {
	c := &Connection{
		UserID:  userID,
		Conn:    conn,
		Send:    make(chan []byte, sendBufferSize),
		manager: m,
	}
	m.register <- c
	return c
}

// Run starts the manager loop
func (m *Manager) Run() {
	for {
		select {
		case client := <-m.register:
			m.mu.Lock()
			if old, ok := m.clients[client.UserID]; ok {
				old.closeWithReason(reasonReplaced, nil)
			}
			m.clients[client.UserID] = client
			m.mu.Unlock()

		case client := <-m.unregister:
			m.mu.Lock()
			if current, ok := m.clients[client.UserID]; ok && current == client {
				delete(m.clients, client.UserID)
			}
			m.mu.Unlock()
		}
	}
}

// Broadcast sends a game event to every connected client. A client whose
// buffer is full is dropped rather than allowed to stall the caller.
func (m *Manager) Broadcast(event *gamedomain.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, client := range m.clients {
		select {
		case client.Send <- message:
		default:
			client.closeWithReason(reasonBufferFull, nil)
		}
	}
}

// SendToUser sends a game event to one user, waiting briefly on a full
// buffer before giving up on the connection.
func (m *Manager) SendToUser(userID int64, event *gamedomain.Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	m.mu.RLock()
	client, ok := m.clients[userID]
	m.mu.RUnlock()
	if !ok {
		return
	}

	select {
	case client.Send <- message:
		return
	default:
	}

	select {
	case client.Send <- message:
	case <-time.After(5 * time.Second):
		client.closeWithReason(reasonTimeout, nil)
	}
}

// Shutdown closes all connections
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, client := range m.clients {
		client.closeWithReason(reasonShutdown, nil)
	}
}

func (c *Connection) closeWithReason(r closeReason, err error) {
	c.closeOnce.Do(func() {
		logger.Warn(context.Background()).
			Int64("user_id", c.UserID).
			Str("reason", string(r)).
			Err(err).
			Msg("WebSocket connection closed")
		c.Conn.Close()
	})
}

// WritePump drains the send buffer onto the wire and keeps the connection
// alive with pings. Run it in its own goroutine per connection.
func (c *Connection) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				c.closeWithReason(reasonWriteError, err)
				return
			}

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.closeWithReason(reasonPingError, err)
				return
			}
		}
	}
}

// ReadPump consumes client messages until the connection dies. The stream is
// one-directional for game state; incoming frames only feed the keepalive.
func (c *Connection) ReadPump() {
	var readErr error
	defer func() {
		c.manager.unregister <- c
		c.closeWithReason(reasonReadError, readErr)
	}()

	c.Conn.SetReadLimit(maxMessageSize)
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				readErr = err
			}
			break
		}
	}
}
