package client

import (
	"context"
	"sync"
)

// Profile is the signed-in user's profile record.
type Profile struct {
	ID        string  `json:"id"`
	Email     string  `json:"email"`
	Username  string  `json:"username"`
	FullName  string  `json:"full_name"`
	AvatarURL *string `json:"avatar_url"`
	Bio       *string `json:"bio"`
	IsAdmin   bool    `json:"is_admin"`
}

// AuthStore holds session state: the current user's profile and the derived
// admin flag. Registered listeners fire on every sign-in and sign-out.
type AuthStore struct {
	c *Client

	mu        sync.RWMutex
	profile   *Profile
	isAdmin   bool
	loading   bool
	listeners []func(*Profile)
}

// NewAuthStore creates an auth store over the client. The store starts in
// the loading state until Init completes, so callers can hold off
// redirect decisions during session restoration.
func NewAuthStore(c *Client) *AuthStore {
	return &AuthStore{c: c, loading: true}
}

// Init restores an existing session, if any, and ends the loading state.
// Call once at process start; an empty token means a signed-out start.
func (s *AuthStore) Init(ctx context.Context, token string) error {
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	if token == "" {
		return nil
	}
	s.c.SetToken(token)
	if err := s.GetProfile(ctx); err != nil {
		// Stale or invalid token: drop it and start signed out
		s.c.SetToken("")
		return err
	}
	s.notify()
	return nil
}

// Loading reports whether the initial session check is still in flight.
func (s *AuthStore) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

// OnAuthChange registers a listener invoked with the profile after sign-in
// and with nil after sign-out.
func (s *AuthStore) OnAuthChange(fn func(*Profile)) {
	s.mu.Lock()
	s.listeners = append(s.listeners, fn)
	s.mu.Unlock()
}

func (s *AuthStore) notify() {
	s.mu.RLock()
	p := s.profile
	fns := make([]func(*Profile), len(s.listeners))
	copy(fns, s.listeners)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn(p)
	}
}

// SignIn authenticates with email and password.
func (s *AuthStore) SignIn(ctx context.Context, email, password string) error {
	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	err := s.c.do(ctx, "POST", "/auth/login", map[string]string{
		"email":    email,
		"password": password,
	}, &resp)
	if err != nil {
		return err
	}

	s.c.SetToken(resp.Token)
	if err := s.GetProfile(ctx); err != nil {
		return err
	}
	s.notify()
	return nil
}

// SignUp creates an account and its profile in one call, then signs in.
func (s *AuthStore) SignUp(ctx context.Context, email, password, username, fullName string) error {
	var resp struct {
		Token  string `json:"token"`
		UserID string `json:"user_id"`
	}
	err := s.c.do(ctx, "POST", "/auth/signup", map[string]string{
		"email":     email,
		"password":  password,
		"username":  username,
		"full_name": fullName,
	}, &resp)
	if err != nil {
		return err
	}

	s.c.SetToken(resp.Token)
	if err := s.GetProfile(ctx); err != nil {
		return err
	}
	s.notify()
	return nil
}

// SignOut clears the session. The server call is best-effort; local state
// is dropped regardless.
func (s *AuthStore) SignOut(ctx context.Context) {
	_ = s.c.do(ctx, "POST", "/auth/signout", nil, nil)
	s.c.SetToken("")

	s.mu.Lock()
	s.profile = nil
	s.isAdmin = false
	s.mu.Unlock()
	s.notify()
}

// GetProfile fetches the current user's profile and overwrites the cached
// copy and derived admin flag. Safe to call repeatedly.
func (s *AuthStore) GetProfile(ctx context.Context) error {
	var p Profile
	if err := s.c.do(ctx, "GET", "/auth/me", nil, &p); err != nil {
		return err
	}

	s.mu.Lock()
	s.profile = &p
	s.isAdmin = p.IsAdmin
	s.mu.Unlock()
	return nil
}

// Profile returns the cached profile, nil when signed out.
func (s *AuthStore) Profile() *Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.profile
}

// IsAdmin returns the cached admin flag.
func (s *AuthStore) IsAdmin() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isAdmin
}

// UserID returns the cached user's id, empty when signed out.
func (s *AuthStore) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.profile == nil {
		return ""
	}
	return s.profile.ID
}
