package services

import "time"

// Service types and statuses. Statuses are plain flags, not a state
// machine: any status may be set from any other by an owner or admin.
const (
	TypeOffer   = "offer"
	TypeRequest = "request"

	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Owner carries the public profile fields joined onto a listing
type Owner struct {
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

// Service represents a listing, either an offer or a request
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

// ValidType reports whether t is a known listing type
func ValidType(t string) bool {
	return t == TypeOffer || t == TypeRequest
}

// ValidStatus reports whether s is a known listing status
func ValidStatus(s string) bool {
	return s == StatusActive || s == StatusCompleted || s == StatusCancelled
}
