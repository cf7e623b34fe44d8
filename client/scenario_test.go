package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// fakeAPI is an in-memory stand-in for the server with the same contract:
// new listings are forced active, feeds are newest-first, conversations are
// oldest-first and filtered by service + other user.
type fakeAPI struct {
	mu       sync.Mutex
	seq      int
	users    map[string]Profile // token -> profile
	services []Service
	messages []Message
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{users: map[string]Profile{}}
}

func (f *fakeAPI) nextID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *fakeAPI) user(r *http.Request) (Profile, bool) {
	tok := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")
	p, ok := f.users[tok]
	return p, ok
}

func (f *fakeAPI) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()

		switch {
		case r.URL.Path == "/auth/signup":
			var in map[string]string
			json.NewDecoder(r.Body).Decode(&in)
			id := f.nextID("user")
			tok := "tok-" + id
			f.users[tok] = Profile{ID: id, Email: in["email"], Username: in["username"], FullName: in["full_name"]}
			json.NewEncoder(w).Encode(map[string]string{"token": tok, "user_id": id})

		case r.URL.Path == "/auth/me":
			p, ok := f.user(r)
			if !ok {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
				return
			}
			json.NewEncoder(w).Encode(p)

		case r.URL.Path == "/services" && r.Method == http.MethodPost:
			p, _ := f.user(r)
			var in CreateServiceInput
			json.NewDecoder(r.Body).Decode(&in)
			s := Service{
				ID: f.nextID("svc"), UserID: p.ID, Title: in.Title, Description: in.Description,
				Price: in.Price, Category: in.Category, Location: in.Location, Type: in.Type,
				Status: "active", CreatedAt: time.Now(), UpdatedAt: time.Now(),
				Owner: &Owner{Username: p.Username},
			}
			f.services = append(f.services, s)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(s)

		case r.URL.Path == "/services" && r.Method == http.MethodGet:
			listType := r.URL.Query().Get("type")
			out := []Service{}
			for _, s := range f.services {
				if listType == "" || s.Type == listType {
					out = append(out, s)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
			json.NewEncoder(w).Encode(map[string]any{"services": out})

		case strings.HasSuffix(r.URL.Path, "/messages") && r.Method == http.MethodPost:
			p, _ := f.user(r)
			serviceID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/services/"), "/messages")
			var in map[string]string
			json.NewDecoder(r.Body).Decode(&in)
			m := Message{
				ID: f.nextID("msg"), ServiceID: serviceID, SenderID: p.ID,
				ReceiverID: in["receiver_id"], Content: in["content"], CreatedAt: time.Now(),
			}
			f.messages = append(f.messages, m)
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(m)

		case strings.HasSuffix(r.URL.Path, "/messages") && r.Method == http.MethodGet:
			serviceID := strings.TrimSuffix(strings.TrimPrefix(r.URL.Path, "/services/"), "/messages")
			other := r.URL.Query().Get("other_user")
			out := []Message{}
			for _, m := range f.messages {
				if m.ServiceID == serviceID && (m.SenderID == other || m.ReceiverID == other) {
					out = append(out, m)
				}
			}
			sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
			json.NewEncoder(w).Encode(map[string]any{"messages": out})

		default:
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "not found"})
		}
	})
}

// Two users: A lists an offer, B finds it in the feed and messages A, and
// both sides read the same thread.
func TestOfferListingAndConversationScenario(t *testing.T) {
	server := httptest.NewServer(newFakeAPI().handler())
	defer server.Close()
	ctx := context.Background()

	// User A signs up and lists an offer
	clientA := New(server.URL)
	authA := NewAuthStore(clientA)
	require.NoError(t, authA.SignUp(ctx, "a@example.com", "secret1", "alice", "Alice A"))
	require.False(t, authA.IsAdmin())

	servicesA := NewServiceStore(clientA)
	created, err := servicesA.CreateService(ctx, CreateServiceInput{
		Title: "garden work", Description: "weeding and mowing",
		Price: 25.00, Category: "Home & Garden", Location: "Springfield", Type: "offer",
	})
	require.NoError(t, err)
	require.Equal(t, "active", created.Status)
	require.Equal(t, 25.00, created.Price)

	// User B sees the offer in the feed
	clientB := New(server.URL)
	authB := NewAuthStore(clientB)
	require.NoError(t, authB.SignUp(ctx, "b@example.com", "secret1", "bob", "Bob B"))

	servicesB := NewServiceStore(clientB)
	feed, err := servicesB.FetchServices(ctx, "offer")
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, created.ID, feed[0].ID)
	require.Equal(t, "alice", feed[0].Owner.Username)

	// B messages A about it; both sides read the same thread
	messagesB := NewMessageStore(clientB)
	require.NoError(t, messagesB.SendMessage(ctx, created.ID, authA.UserID(), "is this still available?"))

	threadB := messagesB.Conversation(created.ID, authA.UserID())
	require.Len(t, threadB, 1)
	require.Equal(t, "is this still available?", threadB[0].Content)

	messagesA := NewMessageStore(clientA)
	threadA, err := messagesA.FetchConversation(ctx, created.ID, authB.UserID())
	require.NoError(t, err)
	require.Len(t, threadA, 1)
	require.Equal(t, authB.UserID(), threadA[0].SenderID)
	require.Equal(t, authA.UserID(), threadA[0].ReceiverID)
}
