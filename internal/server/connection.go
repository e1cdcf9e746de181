package server

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/gorilla/websocket"

	"github.com/gameshowhq/gameshow/internal/presenter"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 4096
)

var ErrConnectionClosed = websocket.ErrCloseSent

// Connection wraps one websocket client subscribed to a game's snapshot
// stream.
type Connection struct {
	conn      *websocket.Conn
	send      chan *Message
	gameID    string
	viewer    presenter.Viewer
	logger    *log.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	mu        sync.RWMutex
	closeOnce sync.Once
}

// NewConnection creates a connection wrapper bound to one game.
func NewConnection(conn *websocket.Conn, gameID string, logger *log.Logger) *Connection {
	ctx, cancel := context.WithCancel(context.Background())
	return &Connection{
		conn:   conn,
		send:   make(chan *Message, 64),
		gameID: gameID,
		viewer: presenter.Viewer{Role: presenter.RoleDisplay},
		logger: logger.WithPrefix("conn"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start begins the read and write pumps.
func (c *Connection) Start() {
	go c.writePump()
	go c.readPump()
}

// Close closes the connection.
func (c *Connection) Close() error {
	var err error
	c.closeOnce.Do(func() {
		c.cancel()
		close(c.send)
		err = c.conn.Close()
	})
	return err
}

// GameID returns the game this connection is subscribed to.
func (c *Connection) GameID() string { return c.gameID }

// Viewer returns the projection identity for this connection.
func (c *Connection) Viewer() presenter.Viewer {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.viewer
}

func (c *Connection) setViewer(v presenter.Viewer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.viewer = v
}

// SendMessage queues a message for the client. A full buffer closes the
// connection; a slow consumer must not stall the broadcast path.
func (c *Connection) SendMessage(msg *Message) error {
	defer func() {
		if r := recover(); r != nil {
			// Channel closed during shutdown.
			c.logger.Debug("send on closed connection", "error", r)
		}
	}()

	select {
	case c.send <- msg:
		return nil
	case <-c.ctx.Done():
		return c.ctx.Err()
	default:
		c.logger.Warn("send buffer full, closing connection", "game", c.gameID)
		_ = c.Close()
		return ErrConnectionClosed
	}
}

// readPump drains client frames. The stream is server-to-client except for
// the hello handshake; anything else is ignored.
func (c *Connection) readPump() {
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		select {
		case <-c.ctx.Done():
			return
		default:
		}

		var msg Message
		if err := c.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.logger.Error("websocket error", "error", err)
			}
			return
		}
		c.handleMessage(&msg)
	}
}

func (c *Connection) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(message); err != nil {
				c.logger.Error("failed to write message", "error", err)
				return
			}

		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-c.ctx.Done():
			return
		}
	}
}

func (c *Connection) handleMessage(msg *Message) {
	switch msg.Type {
	case MessageTypeHello:
		var data HelloData
		if err := json.Unmarshal(msg.Data, &data); err != nil {
			c.sendError("invalid_message", "failed to parse hello data")
			return
		}
		c.handleHello(data)
	default:
		// Player input rides the REST API; the socket is one-way.
		c.logger.Debug("ignoring client frame", "type", msg.Type)
	}
}

func (c *Connection) handleHello(data HelloData) {
	role := presenter.Role(data.Role)
	switch role {
	case presenter.RoleHost, presenter.RolePlayer, presenter.RoleDisplay:
	default:
		c.sendError("invalid_role", "unknown viewer role: "+data.Role)
		return
	}
	if role == presenter.RolePlayer && data.PlayerID == "" {
		c.sendError("invalid_role", "player role requires player_id")
		return
	}
	c.setViewer(presenter.Viewer{Role: role, PlayerID: data.PlayerID})
	c.logger.Debug("viewer identified", "game", c.gameID, "role", role, "player", data.PlayerID)
}

func (c *Connection) sendError(code, message string) {
	errorMsg, err := NewMessage(MessageTypeError, ErrorData{Code: code, Message: message})
	if err != nil {
		c.logger.Error("failed to create error message", "error", err)
		return
	}
	_ = c.SendMessage(errorMsg)
}
