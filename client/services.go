package client

import (
	"context"
	"sync"
	"time"
)

// Owner is the listing owner's public profile, joined server-side.
type Owner struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// Service is a marketplace listing.
type Service struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Price       float64   `json:"price"`
	Category    string    `json:"category"`
	Location    string    `json:"location"`
	Type        string    `json:"type"`
	Status      string    `json:"status"`
	ImageURL    *string   `json:"image_url"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
	Owner       *Owner    `json:"profile,omitempty"`
}

// CreateServiceInput is the payload for a new listing. Status cannot be
// chosen: the server forces new listings to active.
type CreateServiceInput struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Category    string  `json:"category"`
	Location    string  `json:"location"`
	Type        string  `json:"type"`
	ImageURL    *string `json:"image_url,omitempty"`
}

// UpdateServiceInput carries the fields to change; nil fields are left alone.
type UpdateServiceInput struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Category    *string  `json:"category,omitempty"`
	Location    *string  `json:"location,omitempty"`
	Status      *string  `json:"status,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
}

// ServiceStore caches the listing feed. Fetches are tagged with a monotonic
// sequence number so a slow response can never overwrite data from a newer
// fetch, and mutations merge the server-echoed row into the cache by id
// instead of re-fetching the whole list.
type ServiceStore struct {
	c *Client

	mu       sync.RWMutex
	services []Service
	nextSeq  uint64
	applied  uint64
}

// NewServiceStore creates a service store over the client.
func NewServiceStore(c *Client) *ServiceStore {
	return &ServiceStore{c: c}
}

// FetchServices loads listings newest-first, optionally filtered by type
// ("offer" or "request"; empty for all). The returned slice is the fetched
// data even when a stale completion is discarded from the cache.
func (s *ServiceStore) FetchServices(ctx context.Context, listType string) ([]Service, error) {
	s.mu.Lock()
	s.nextSeq++
	seq := s.nextSeq
	s.mu.Unlock()

	path := "/services"
	if listType != "" {
		path += "?type=" + listType
	}

	var resp struct {
		Services []Service `json:"services"`
	}
	if err := s.c.do(ctx, "GET", path, nil, &resp); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if seq > s.applied {
		s.applied = seq
		s.services = resp.Services
	}
	s.mu.Unlock()
	return resp.Services, nil
}

// CreateService lists a new service and merges the created row into the
// cache. The echoed row has status active regardless of input.
func (s *ServiceStore) CreateService(ctx context.Context, in CreateServiceInput) (*Service, error) {
	var created Service
	if err := s.c.do(ctx, "POST", "/services", in, &created); err != nil {
		return nil, err
	}
	s.merge(created)
	return &created, nil
}

// UpdateService patches a listing and merges the echoed row into the cache.
func (s *ServiceStore) UpdateService(ctx context.Context, id string, in UpdateServiceInput) (*Service, error) {
	var updated Service
	if err := s.c.do(ctx, "PATCH", "/services/"+id, in, &updated); err != nil {
		return nil, err
	}
	s.merge(updated)
	return &updated, nil
}

// DeleteService removes a listing and drops it from the cache.
func (s *ServiceStore) DeleteService(ctx context.Context, id string) error {
	if err := s.c.do(ctx, "DELETE", "/services/"+id, nil, nil); err != nil {
		return err
	}

	s.mu.Lock()
	s.nextSeq++
	s.applied = s.nextSeq
	for i, svc := range s.services {
		if svc.ID == id {
			s.services = append(s.services[:i], s.services[i+1:]...)
			break
		}
	}
	s.mu.Unlock()
	return nil
}

// Services returns a copy of the cached listing feed.
func (s *ServiceStore) Services() []Service {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Service, len(s.services))
	copy(out, s.services)
	return out
}

// merge replaces the cached row with the same id, or prepends the row to
// keep newest-first order. A mutation echo preserves any joined owner
// fields the cached row already had. Merging counts as the freshest write,
// so any fetch still in flight is discarded when it completes.
func (s *ServiceStore) merge(svc Service) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.applied = s.nextSeq
	for i, existing := range s.services {
		if existing.ID == svc.ID {
			if svc.Owner == nil {
				svc.Owner = existing.Owner
			}
			s.services[i] = svc
			return
		}
	}
	s.services = append([]Service{svc}, s.services...)
}
