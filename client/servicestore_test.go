package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func svc(id, title, listType, status string, created time.Time) Service {
	return Service{
		ID:        id,
		UserID:    "user-1",
		Title:     title,
		Type:      listType,
		Status:    status,
		Price:     25.00,
		CreatedAt: created,
		UpdatedAt: created,
	}
}

func TestFetchServicesFiltersByType(t *testing.T) {
	now := time.Now()
	offers := []Service{svc("s2", "newer offer", "offer", "active", now), svc("s1", "older offer", "offer", "active", now.Add(-time.Hour))}
	requests := []Service{svc("s3", "a request", "request", "active", now)}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/services", r.URL.Path)
		list := append(append([]Service{}, offers...), requests...)
		switch r.URL.Query().Get("type") {
		case "offer":
			list = offers
		case "request":
			list = requests
		}
		json.NewEncoder(w).Encode(map[string]any{"services": list})
	}))
	defer server.Close()

	store := NewServiceStore(New(server.URL))

	got, err := store.FetchServices(context.Background(), "offer")
	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, s := range got {
		require.Equal(t, "offer", s.Type)
	}
	// Newest-first order is preserved as served
	require.Equal(t, "s2", got[0].ID)
	require.Equal(t, "s1", got[1].ID)

	got, err = store.FetchServices(context.Background(), "request")
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "request", got[0].Type)
	require.Equal(t, got, store.Services())
}

func TestCreateServiceMergesEchoedRow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"services": []Service{
				svc("s1", "existing", "offer", "active", time.Now().Add(-time.Hour)),
			}})
		case r.Method == http.MethodPost:
			var in map[string]any
			json.NewDecoder(r.Body).Decode(&in)
			// Server forces active regardless of caller input
			created := svc("s9", in["title"].(string), "offer", "active", time.Now())
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(created)
		}
	}))
	defer server.Close()

	store := NewServiceStore(New(server.URL))
	_, err := store.FetchServices(context.Background(), "")
	require.NoError(t, err)

	created, err := store.CreateService(context.Background(), CreateServiceInput{
		Title: "new listing", Description: "d", Price: 25, Type: "offer",
	})
	require.NoError(t, err)
	require.Equal(t, "active", created.Status)

	cached := store.Services()
	require.Len(t, cached, 2)
	// Merged row is prepended to keep newest-first order
	require.Equal(t, "s9", cached[0].ID)
	require.Equal(t, "s1", cached[1].ID)
}

func TestUpdateServiceMergesById(t *testing.T) {
	owner := &Owner{Username: "alice"}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			s := svc("s1", "before", "offer", "active", time.Now())
			s.Owner = owner
			json.NewEncoder(w).Encode(map[string]any{"services": []Service{s}})
		case http.MethodPatch:
			require.Equal(t, "/services/s1", r.URL.Path)
			// Echo has no joined owner fields
			json.NewEncoder(w).Encode(svc("s1", "after", "offer", "completed", time.Now()))
		}
	}))
	defer server.Close()

	store := NewServiceStore(New(server.URL))
	_, err := store.FetchServices(context.Background(), "")
	require.NoError(t, err)

	status := "completed"
	title := "after"
	_, err = store.UpdateService(context.Background(), "s1", UpdateServiceInput{Title: &title, Status: &status})
	require.NoError(t, err)

	cached := store.Services()
	require.Len(t, cached, 1)
	require.Equal(t, "after", cached[0].Title)
	require.Equal(t, "completed", cached[0].Status)
	// Joined owner fields survive the merge
	require.NotNil(t, cached[0].Owner)
	require.Equal(t, "alice", cached[0].Owner.Username)
}

func TestDeleteServiceRemovesFromCache(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			json.NewEncoder(w).Encode(map[string]any{"services": []Service{
				svc("s1", "one", "offer", "active", time.Now()),
				svc("s2", "two", "offer", "active", time.Now()),
			}})
		case http.MethodDelete:
			json.NewEncoder(w).Encode(map[string]string{"message": "service deleted"})
		}
	}))
	defer server.Close()

	store := NewServiceStore(New(server.URL))
	_, err := store.FetchServices(context.Background(), "")
	require.NoError(t, err)

	require.NoError(t, store.DeleteService(context.Background(), "s1"))

	cached := store.Services()
	require.Len(t, cached, 1)
	require.Equal(t, "s2", cached[0].ID)
}

func TestStaleFetchDoesNotOverwriteNewer(t *testing.T) {
	stale := []Service{svc("old", "stale data", "offer", "active", time.Now().Add(-time.Hour))}
	fresh := []Service{svc("new", "fresh data", "offer", "active", time.Now())}

	firstArrived := make(chan struct{})
	release := make(chan struct{})
	var mu sync.Mutex
	first := true
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		isFirst := first
		first = false
		mu.Unlock()
		if isFirst {
			close(firstArrived)
			<-release // hold the first response until the second lands
			json.NewEncoder(w).Encode(map[string]any{"services": stale})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"services": fresh})
	}))
	defer server.Close()

	store := NewServiceStore(New(server.URL))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.FetchServices(context.Background(), "")
	}()

	// The newer fetch starts only after the slow one is in flight
	<-firstArrived
	got, err := store.FetchServices(context.Background(), "")
	require.NoError(t, err)
	require.Equal(t, "new", got[0].ID)

	close(release)
	<-done

	cached := store.Services()
	require.Len(t, cached, 1)
	require.Equal(t, "new", cached[0].ID, "stale completion must be discarded")
}

func TestStaleFetchDoesNotDropMergedMutation(t *testing.T) {
	fetchArrived := make(chan struct{})
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Method {
		case http.MethodGet:
			close(fetchArrived)
			<-release // hold the list response until the create lands
			json.NewEncoder(w).Encode(map[string]any{"services": []Service{}})
		case http.MethodPost:
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(svc("s9", "just created", "offer", "active", time.Now()))
		}
	}))
	defer server.Close()

	store := NewServiceStore(New(server.URL))

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, _ = store.FetchServices(context.Background(), "")
	}()

	// The create completes while the empty-list fetch is still in flight
	<-fetchArrived
	created, err := store.CreateService(context.Background(), CreateServiceInput{
		Title: "just created", Description: "d", Price: 25, Type: "offer",
	})
	require.NoError(t, err)

	close(release)
	<-done

	cached := store.Services()
	require.Len(t, cached, 1, "fetch from before the create must not empty the cache")
	require.Equal(t, created.ID, cached[0].ID)
}
