package client

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// Sender is the message author's public profile, joined server-side.
type Sender struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// Message is one entry in a service thread.
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

// MessageStore caches conversations keyed by "serviceID-otherUserID" and
// the user's flat message list.
type MessageStore struct {
	c *Client

	mu            sync.RWMutex
	messages      []Message
	conversations map[string][]Message
	convSeq       map[string]uint64
	convApplied   map[string]uint64
}

// NewMessageStore creates a message store over the client.
func NewMessageStore(c *Client) *MessageStore {
	return &MessageStore{
		c:             c,
		conversations: make(map[string][]Message),
		convSeq:       make(map[string]uint64),
		convApplied:   make(map[string]uint64),
	}
}

func convKey(serviceID, otherUserID string) string {
	return serviceID + "-" + otherUserID
}

// FetchMessages loads every message the user sent or received, newest first.
func (s *MessageStore) FetchMessages(ctx context.Context) ([]Message, error) {
	var resp struct {
		Messages []Message `json:"messages"`
	}
	if err := s.c.do(ctx, "GET", "/messages", nil, &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.messages = resp.Messages
	s.mu.Unlock()
	return resp.Messages, nil
}

// FetchConversation loads the thread for a service involving the other
// user, oldest first, and caches it under "serviceID-otherUserID". Stale
// completions are discarded per conversation, same rule as the listing feed.
func (s *MessageStore) FetchConversation(ctx context.Context, serviceID, otherUserID string) ([]Message, error) {
	key := convKey(serviceID, otherUserID)

	s.mu.Lock()
	s.convSeq[key]++
	seq := s.convSeq[key]
	s.mu.Unlock()

	var resp struct {
		Messages []Message `json:"messages"`
	}
	path := "/services/" + serviceID + "/messages?other_user=" + otherUserID
	if err := s.c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if seq > s.convApplied[key] {
		s.convApplied[key] = seq
		s.conversations[key] = resp.Messages
	}
	s.mu.Unlock()
	return resp.Messages, nil
}

// SendMessage posts into a thread (created unread) and re-fetches only the
// affected conversation.
func (s *MessageStore) SendMessage(ctx context.Context, serviceID, receiverID, content string) error {
	err := s.c.do(ctx, "POST", "/services/"+serviceID+"/messages", map[string]string{
		"receiver_id": receiverID,
		"content":     content,
	}, nil)
	if err != nil {
		return err
	}

	_, err = s.FetchConversation(ctx, serviceID, receiverID)
	return err
}

// MarkRead flips a message's read flag.
func (s *MessageStore) MarkRead(ctx context.Context, messageID string) error {
	return s.c.do(ctx, "POST", "/messages/"+messageID+"/read", nil, nil)
}

// Conversation returns the cached thread for the key, nil if never fetched.
func (s *MessageStore) Conversation(serviceID, otherUserID string) []Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	msgs := s.conversations[convKey(serviceID, otherUserID)]
	out := make([]Message, len(msgs))
	copy(out, msgs)
	return out
}

// Subscribe opens the realtime socket for a service thread and re-fetches
// the conversation on every insert event. It returns the teardown func;
// callers must invoke it when the conversation view goes away, or the
// subscription leaks.
func (s *MessageStore) Subscribe(ctx context.Context, serviceID, otherUserID string) (func(), error) {
	wsURL := strings.Replace(s.c.BaseURL(), "http", "ws", 1) + "/services/" + serviceID + "/ws"

	header := http.Header{}
	if t := s.c.Token(); t != "" {
		header.Set("Authorization", "Bearer "+t)
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, wsURL, header)
	if err != nil {
		return nil, err
	}

	done := make(chan struct{})
	go func() {
		defer conn.Close()
		for {
			_, payload, err := conn.ReadMessage()
			if err != nil {
				return
			}
			var evt struct {
				Type string `json:"type"`
			}
			if err := json.Unmarshal(payload, &evt); err != nil {
				continue
			}
			if evt.Type == "message_new" {
				select {
				case <-done:
					return
				default:
				}
				// Coarse invalidation: any insert re-fetches the open thread
				_, _ = s.FetchConversation(ctx, serviceID, otherUserID)
			}
		}
	}()

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			close(done)
			_ = conn.Close()
		})
	}
	return unsubscribe, nil
}
