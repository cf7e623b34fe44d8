package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
)

func authTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/auth/signup", "/auth/login":
			json.NewEncoder(w).Encode(map[string]string{"token": "tok-1", "user_id": "user-1"})
		case "/auth/me":
			if r.Header.Get("Authorization") != "Bearer tok-1" {
				w.WriteHeader(http.StatusUnauthorized)
				json.NewEncoder(w).Encode(map[string]string{"error": "invalid or expired token"})
				return
			}
			json.NewEncoder(w).Encode(Profile{
				ID: "user-1", Email: "a@example.com", Username: "alice",
				FullName: "Alice A", IsAdmin: false,
			})
		case "/auth/signout":
			json.NewEncoder(w).Encode(map[string]string{"message": "signed out"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func TestSignUpSetsSessionAndProfile(t *testing.T) {
	server := authTestServer(t)
	defer server.Close()

	c := New(server.URL)
	store := NewAuthStore(c)

	var notified int32
	store.OnAuthChange(func(p *Profile) {
		atomic.AddInt32(&notified, 1)
	})

	err := store.SignUp(context.Background(), "a@example.com", "secret1", "alice", "Alice A")
	require.NoError(t, err)

	require.Equal(t, "tok-1", c.Token())
	require.NotNil(t, store.Profile())
	require.Equal(t, "alice", store.Profile().Username)
	require.False(t, store.IsAdmin(), "new accounts are never admin")
	require.EqualValues(t, 1, atomic.LoadInt32(&notified))
}

func TestGetProfileIsIdempotent(t *testing.T) {
	server := authTestServer(t)
	defer server.Close()

	store := NewAuthStore(New(server.URL))
	require.NoError(t, store.SignIn(context.Background(), "a@example.com", "secret1"))

	first := *store.Profile()
	require.NoError(t, store.GetProfile(context.Background()))
	require.NoError(t, store.GetProfile(context.Background()))
	second := *store.Profile()

	require.Equal(t, first, second)
	require.Equal(t, first.IsAdmin, store.IsAdmin())
}

func TestSignOutClearsState(t *testing.T) {
	server := authTestServer(t)
	defer server.Close()

	c := New(server.URL)
	store := NewAuthStore(c)
	require.NoError(t, store.SignIn(context.Background(), "a@example.com", "secret1"))
	require.NotNil(t, store.Profile())

	store.SignOut(context.Background())

	require.Nil(t, store.Profile())
	require.False(t, store.IsAdmin())
	require.Empty(t, store.UserID())
	require.Empty(t, c.Token())
}

func TestInitRestoresSession(t *testing.T) {
	server := authTestServer(t)
	defer server.Close()

	store := NewAuthStore(New(server.URL))
	require.True(t, store.Loading(), "store starts loading until Init completes")

	require.NoError(t, store.Init(context.Background(), "tok-1"))

	require.False(t, store.Loading())
	require.Equal(t, "user-1", store.UserID())
}

func TestInitWithBadTokenStartsSignedOut(t *testing.T) {
	server := authTestServer(t)
	defer server.Close()

	c := New(server.URL)
	store := NewAuthStore(c)

	err := store.Init(context.Background(), "expired-token")
	require.Error(t, err)

	require.False(t, store.Loading(), "loading ends even when restoration fails")
	require.Nil(t, store.Profile())
	require.Empty(t, c.Token(), "stale token is dropped")
}

func TestInitWithoutTokenEndsLoading(t *testing.T) {
	store := NewAuthStore(New("http://unused"))
	require.NoError(t, store.Init(context.Background(), ""))
	require.False(t, store.Loading())
	require.Nil(t, store.Profile())
}
