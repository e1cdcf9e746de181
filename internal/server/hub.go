package server

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/gameshowhq/gameshow/internal/model"
	"github.com/gameshowhq/gameshow/internal/presenter"
)

// Hub tracks the websocket connections of every game and fans snapshots out
// to them. Each connection gets the snapshot projected for its own viewer,
// so a player socket never carries another role's secrets.
type Hub struct {
	connections map[*Connection]bool
	unregister  chan *Connection
	logger      *log.Logger
	mu          sync.RWMutex
	ctx         context.Context
	cancel      context.CancelFunc
}

// NewHub creates a hub. Call Run to start the lifecycle loop.
func NewHub(logger *log.Logger) *Hub {
	ctx, cancel := context.WithCancel(context.Background())
	return &Hub{
		connections: make(map[*Connection]bool),
		unregister:  make(chan *Connection),
		logger:      logger.WithPrefix("hub"),
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Run handles connection teardown until Stop.
func (h *Hub) Run() {
	for {
		select {
		case conn := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.connections[conn]; ok {
				delete(h.connections, conn)
				_ = conn.Close()
			}
			total := len(h.connections)
			h.mu.Unlock()
			h.logger.Info("client disconnected", "game", conn.GameID(), "total", total)

		case <-h.ctx.Done():
			return
		}
	}
}

// Stop closes every connection and ends the lifecycle loop.
func (h *Hub) Stop() {
	h.cancel()
	h.mu.Lock()
	for conn := range h.connections {
		_ = conn.Close()
	}
	h.mu.Unlock()
}

// Add registers a connection and schedules its removal when it closes.
// Registration is synchronous: once Add returns, broadcasts reach conn, so
// a bootstrap snapshot sent right after cannot miss the new subscriber.
func (h *Hub) Add(conn *Connection) {
	select {
	case <-h.ctx.Done():
		_ = conn.Close()
		return
	default:
	}
	h.mu.Lock()
	h.connections[conn] = true
	total := len(h.connections)
	h.mu.Unlock()
	h.logger.Info("client connected", "game", conn.GameID(), "total", total)
	conn.Start()
	go func() {
		<-conn.ctx.Done()
		select {
		case h.unregister <- conn:
		case <-h.ctx.Done():
		}
	}()
}

// BroadcastSnapshot sends a snapshot to every connection of one game,
// projected per viewer. Send failures are logged and otherwise dropped.
func (h *Hub) BroadcastSnapshot(gameID string, snap model.Snapshot) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	count := 0
	for conn := range h.connections {
		if conn.GameID() != gameID {
			continue
		}
		view := presenter.Project(snap, conn.Viewer())
		msg, err := NewMessage(MessageTypeSnapshot, view)
		if err != nil {
			h.logger.Error("failed to encode snapshot", "game", gameID, "error", err)
			return
		}
		if err := conn.SendMessage(msg); err != nil {
			h.logger.Debug("snapshot send failed", "game", gameID, "error", err)
		} else {
			count++
		}
	}
	h.logger.Debug("snapshot broadcast", "game", gameID, "recipients", count)
}

// GameConnections returns how many sockets are subscribed to a game.
func (h *Hub) GameConnections(gameID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for conn := range h.connections {
		if conn.GameID() == gameID {
			n++
		}
	}
	return n
}
