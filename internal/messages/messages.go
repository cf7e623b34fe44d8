package messages

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/alerts"
	"github.com/user-pratik/service-app/internal/db"
)

// Sender carries the joined public profile fields of a message author
type Sender struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type Message struct {
	ID         string    `json:"id"`
	ServiceID  string    `json:"service_id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Content    string    `json:"content"`
	Read       bool      `json:"read"`
	CreatedAt  time.Time `json:"created_at"`
	Sender     *Sender   `json:"sender,omitempty"`
}

// GetConversation returns the thread for a service involving the given
// other user, oldest first. GET /services/:id/messages?other_user=<id>
func GetConversation(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	otherUserID := c.QueryParam("other_user")
	if serviceID == "" || otherUserID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service id and other_user are required"})
	}

	// The conversation is viewer-relative: only messages between the
	// caller and the other user, never third parties on the same thread.
	rows, err := db.Conn.Query(context.Background(),
		`SELECT m.id, m.service_id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
                p.username, p.avatar_url
         FROM messages m
         JOIN profiles p ON p.id = m.sender_id
         WHERE m.service_id = $1
           AND ((m.sender_id = $2 AND m.receiver_id = $3) OR (m.sender_id = $3 AND m.receiver_id = $2))
         ORDER BY m.created_at ASC`, serviceID, userID, otherUserID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch conversation"})
	}
	defer rows.Close()

	list, err := scanMessages(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse message record"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": list})
}

// GetUserMessages returns every message the authenticated user sent or
// received, newest first. GET /messages
func GetUserMessages(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT m.id, m.service_id, m.sender_id, m.receiver_id, m.content, m.read, m.created_at,
                p.username, p.avatar_url
         FROM messages m
         JOIN profiles p ON p.id = m.sender_id
         WHERE m.sender_id = $1 OR m.receiver_id = $1
         ORDER BY m.created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch messages"})
	}
	defer rows.Close()

	list, err := scanMessages(rows)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse message record"})
	}
	return c.JSON(http.StatusOK, echo.Map{"messages": list})
}

// SendMessage posts into a service thread. Messages are created unread and
// are never edited or deleted afterwards. POST /services/:id/messages
func SendMessage(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	var body struct {
		ReceiverID string `json:"receiver_id"`
		Content    string `json:"content"`
	}
	if err := c.Bind(&body); err != nil || body.Content == "" || body.ReceiverID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "receiver_id and content are required"})
	}
	if body.ReceiverID == userID {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot message yourself"})
	}

	// The thread must exist
	var serviceTitle string
	err := db.Conn.QueryRow(context.Background(),
		`SELECT title FROM services WHERE id = $1`, serviceID).Scan(&serviceTitle)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}

	msgID := uuid.New().String()
	var createdAt time.Time
	err = db.Conn.QueryRow(context.Background(),
		`INSERT INTO messages (id, service_id, sender_id, receiver_id, content, read)
         VALUES ($1, $2, $3, $4, $5, FALSE) RETURNING created_at`,
		msgID, serviceID, userID, body.ReceiverID, body.Content,
	).Scan(&createdAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to send message"})
	}

	msg := Message{
		ID:         msgID,
		ServiceID:  serviceID,
		SenderID:   userID,
		ReceiverID: body.ReceiverID,
		Content:    body.Content,
		Read:       false,
		CreatedAt:  createdAt,
	}

	// Push insert event to thread subscribers. Ids only: subscribers
	// re-fetch their own conversation, which applies the read filter.
	BroadcastNewMessage(serviceID, echo.Map{
		"id":          msgID,
		"service_id":  serviceID,
		"sender_id":   userID,
		"receiver_id": body.ReceiverID,
		"created_at":  createdAt.UTC().Format(time.RFC3339),
	})

	// In-app notification for the receiver
	ref := msgID
	_ = alerts.CreateNotification(body.ReceiverID, "message:new", "New message about "+serviceTitle, body.Content, &ref)

	// Email notification (best-effort)
	var receiverEmail string
	_ = db.Conn.QueryRow(context.Background(), `SELECT email FROM profiles WHERE id = $1`, body.ReceiverID).Scan(&receiverEmail)
	if receiverEmail != "" {
		_ = alerts.EnqueueMessageNew(serviceID, userID, receiverEmail, body.ReceiverID, body.Content)
	}

	return c.JSON(http.StatusCreated, msg)
}

// MarkRead flips a message's read flag. Only the receiver may do so.
// POST /messages/:id/read
func MarkRead(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	messageID := c.Param("id")
	if messageID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing message id"})
	}

	var serviceID string
	err := db.Conn.QueryRow(context.Background(),
		`UPDATE messages SET read = TRUE WHERE id = $1 AND receiver_id = $2 RETURNING service_id`,
		messageID, userID).Scan(&serviceID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "message not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to mark message read"})
	}

	BroadcastMessageRead(serviceID, echo.Map{"message_id": messageID, "reader_id": userID})

	return c.JSON(http.StatusOK, echo.Map{"message_id": messageID, "read": true})
}

func scanMessages(rows pgx.Rows) ([]Message, error) {
	list := []Message{}
	for rows.Next() {
		var m Message
		var s Sender
		if err := rows.Scan(&m.ID, &m.ServiceID, &m.SenderID, &m.ReceiverID, &m.Content, &m.Read, &m.CreatedAt,
			&s.Username, &s.AvatarURL); err != nil {
			return nil, err
		}
		m.Sender = &s
		list = append(list, m)
	}
	return list, rows.Err()
}
