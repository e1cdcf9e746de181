package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gameshowhq/gameshow/internal/model"
)

// dialTestConn returns a server-side Connection paired with the client end
// of a real websocket.
func dialTestConn(t *testing.T, gameID string) (*Connection, *websocket.Conn) {
	t.Helper()
	upgrader := websocket.Upgrader{}
	serverSide := make(chan *websocket.Conn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		serverSide <- ws
	}))
	t.Cleanup(srv.Close)

	client, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	if resp != nil {
		resp.Body.Close()
	}
	t.Cleanup(func() { client.Close() })
	return NewConnection(<-serverSide, gameID, testLogger()), client
}

func TestHubAddIsSynchronous(t *testing.T) {
	t.Parallel()
	hub := NewHub(testLogger())
	// Run is deliberately not started: registration must not depend on
	// the lifecycle goroutine, or a broadcast issued right after Add can
	// miss the new subscriber.
	conn, client := dialTestConn(t, "g1")
	hub.Add(conn)
	assert.Equal(t, 1, hub.GameConnections("g1"))

	hub.BroadcastSnapshot("g1", model.Snapshot{Game: &model.Game{ID: "g1"}})

	require.NoError(t, client.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, client.ReadJSON(&msg))
	assert.Equal(t, MessageTypeSnapshot, msg.Type)
	var snap model.Snapshot
	require.NoError(t, json.Unmarshal(msg.Data, &snap))
	assert.Equal(t, "g1", snap.Game.ID)
}

func TestHubBroadcastScopedToGame(t *testing.T) {
	t.Parallel()
	hub := NewHub(testLogger())
	go hub.Run()
	t.Cleanup(hub.Stop)

	connA, clientA := dialTestConn(t, "game-a")
	connB, clientB := dialTestConn(t, "game-b")
	hub.Add(connA)
	hub.Add(connB)

	hub.BroadcastSnapshot("game-a", model.Snapshot{Game: &model.Game{ID: "game-a"}})

	require.NoError(t, clientA.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, clientA.ReadJSON(&msg))
	assert.Equal(t, MessageTypeSnapshot, msg.Type)

	require.NoError(t, clientB.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	var stray Message
	assert.Error(t, clientB.ReadJSON(&stray))
}

func TestHubUnregisterOnClose(t *testing.T) {
	t.Parallel()
	hub := NewHub(testLogger())
	go hub.Run()
	t.Cleanup(hub.Stop)

	conn, client := dialTestConn(t, "g1")
	hub.Add(conn)
	require.Equal(t, 1, hub.GameConnections("g1"))

	client.Close()
	assert.Eventually(t, func() bool {
		return hub.GameConnections("g1") == 0
	}, 2*time.Second, 10*time.Millisecond)
}
