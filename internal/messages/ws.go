package messages

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

type wsEvent struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// hub fans message events out to everyone watching a service thread
type hub struct {
	serviceID string
	clients   map[*websocket.Conn]bool
	mu        sync.RWMutex
}

var (
	hubsMu sync.RWMutex
	hubs   = make(map[string]*hub)
)

func getHub(serviceID string) *hub {
	hubsMu.Lock()
	defer hubsMu.Unlock()
	if h, ok := hubs[serviceID]; ok {
		return h
	}
	h := &hub{serviceID: serviceID, clients: make(map[*websocket.Conn]bool)}
	hubs[serviceID] = h
	return h
}

func (h *hub) broadcast(evt wsEvent) {
	payload, _ := json.Marshal(evt)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		_ = c.WriteMessage(websocket.TextMessage, payload)
	}
}

func (h *hub) register(c *websocket.Conn) {
	h.mu.Lock()
	h.clients[c] = true
	h.mu.Unlock()
}

func (h *hub) unregister(c *websocket.Conn) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
	}
	h.mu.Unlock()
}

// canJoinThread reports whether a user may subscribe to a service thread.
// Owners and existing conversation parties always may; anyone else only
// while the listing is active, since any signed-in user can open a
// conversation on an active listing.
func canJoinThread(isOwner, hasMessages bool, status string) bool {
	return isOwner || hasMessages || status == "active"
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// ThreadWS - websocket for realtime events on a service thread.
// Subscribers get a message_new event on every insert to the thread and
// re-fetch their open conversation; the protocol is server push only.
// GET /services/:id/ws
func ThreadWS(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	var isOwner, hasMessages bool
	var status string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT s.user_id = $2, s.status,
		        EXISTS (SELECT 1 FROM messages m
		                WHERE m.service_id = s.id AND (m.sender_id = $2 OR m.receiver_id = $2))
		 FROM services s WHERE s.id = $1`,
		serviceID, userID).Scan(&isOwner, &status, &hasMessages)
	if err == pgx.ErrNoRows {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check thread access"})
	}
	if !canJoinThread(isOwner, hasMessages, status) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "not a participant in this thread"})
	}

	ws, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		return err
	}

	h := getHub(serviceID)
	h.register(ws)

	h.broadcast(wsEvent{Type: "presence_join", Data: echo.Map{"user_id": userID}})

	// Read loop; client frames are discarded
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			h.unregister(ws)
			_ = ws.Close()
			h.broadcast(wsEvent{Type: "presence_leave", Data: echo.Map{"user_id": userID}})
			break
		}
	}
	return nil
}

// BroadcastNewMessage - publish a new message event to the thread hub
func BroadcastNewMessage(serviceID string, message interface{}) {
	h := getHub(serviceID)
	h.broadcast(wsEvent{Type: "message_new", Data: message})
}

// BroadcastMessageRead - publish a message read event
func BroadcastMessageRead(serviceID string, payload interface{}) {
	h := getHub(serviceID)
	h.broadcast(wsEvent{Type: "message_read", Data: payload})
}
