package messages

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

// dialTestHub spins up a bare ws endpoint that registers connections into
// the thread hub, and returns a connected client.
func dialTestHub(t *testing.T, serviceID string) *websocket.Conn {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		getHub(serviceID).register(ws)
	}))
	t.Cleanup(server.Close)

	url := strings.Replace(server.URL, "http", "ws", 1)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn) wsEvent {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, payload, err := conn.ReadMessage()
	require.NoError(t, err)
	var evt wsEvent
	require.NoError(t, json.Unmarshal(payload, &evt))
	return evt
}

func TestBroadcastNewMessageReachesThreadSubscribers(t *testing.T) {
	conn := dialTestHub(t, "svc-broadcast")

	BroadcastNewMessage("svc-broadcast", map[string]string{"id": "m1", "content": "hi"})

	evt := readEvent(t, conn)
	require.Equal(t, "message_new", evt.Type)
	data, ok := evt.Data.(map[string]interface{})
	require.True(t, ok)
	require.Equal(t, "m1", data["id"])
}

func TestBroadcastIsScopedToServiceThread(t *testing.T) {
	connA := dialTestHub(t, "svc-a")
	connB := dialTestHub(t, "svc-b")

	BroadcastNewMessage("svc-a", map[string]string{"id": "m1"})

	evt := readEvent(t, connA)
	require.Equal(t, "message_new", evt.Type)

	// The other thread's subscriber sees nothing
	connB.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := connB.ReadMessage()
	require.Error(t, err)
}

func TestUnregisterStopsDelivery(t *testing.T) {
	conn := dialTestHub(t, "svc-unreg")

	h := getHub("svc-unreg")
	h.mu.Lock()
	var serverSide *websocket.Conn
	for c := range h.clients {
		serverSide = c
	}
	h.mu.Unlock()
	require.NotNil(t, serverSide)

	h.unregister(serverSide)
	BroadcastNewMessage("svc-unreg", map[string]string{"id": "m1"})

	conn.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err := conn.ReadMessage()
	require.Error(t, err)
}

func TestCanJoinThread(t *testing.T) {
	// Owners and conversation parties always have access
	require.True(t, canJoinThread(true, false, "completed"))
	require.True(t, canJoinThread(false, true, "cancelled"))
	// Anyone else only while the listing is still active
	require.True(t, canJoinThread(false, false, "active"))
	require.False(t, canJoinThread(false, false, "completed"))
	require.False(t, canJoinThread(false, false, "cancelled"))
}

func TestBroadcastMessageRead(t *testing.T) {
	conn := dialTestHub(t, "svc-read")

	BroadcastMessageRead("svc-read", map[string]string{"message_id": "m1"})

	evt := readEvent(t, conn)
	require.Equal(t, "message_read", evt.Type)
}
