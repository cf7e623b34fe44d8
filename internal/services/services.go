package services

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

// GetAllServices returns marketplace listings, newest first, each enriched
// with the owner's public profile fields. GET /services?type=offer|request
func GetAllServices(c echo.Context) error {
	listType := c.QueryParam("type")
	if listType != "" && !ValidType(listType) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be offer or request"})
	}

	query := `SELECT s.id, s.user_id, s.title, s.description, s.price, s.category, s.location,
                     s.type, s.status, s.image_url, s.created_at, s.updated_at,
                     p.username, p.avatar_url
              FROM services s
              JOIN profiles p ON p.id = s.user_id`
	var args []any
	if listType != "" {
		query += ` WHERE s.type = $1`
		args = append(args, listType)
	}
	query += ` ORDER BY s.created_at DESC`

	rows, err := db.Conn.Query(context.Background(), query, args...)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer rows.Close()

	var list []Service
	for rows.Next() {
		var s Service
		var o Owner
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Price, &s.Category,
			&s.Location, &s.Type, &s.Status, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt,
			&o.Username, &o.AvatarURL); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse service record"})
		}
		s.Owner = &o
		list = append(list, s)
	}
	if list == nil {
		list = []Service{}
	}
	return c.JSON(http.StatusOK, echo.Map{"services": list})
}

// GetService returns a single listing with its owner. GET /services/:id
func GetService(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	var s Service
	var o Owner
	err := db.Conn.QueryRow(context.Background(),
		`SELECT s.id, s.user_id, s.title, s.description, s.price, s.category, s.location,
                s.type, s.status, s.image_url, s.created_at, s.updated_at,
                p.username, p.avatar_url
         FROM services s JOIN profiles p ON p.id = s.user_id
         WHERE s.id = $1`, id).
		Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Price, &s.Category,
			&s.Location, &s.Type, &s.Status, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt,
			&o.Username, &o.AvatarURL)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}
	s.Owner = &o
	return c.JSON(http.StatusOK, s)
}

// CreateService lists a new service. Status is always forced to active
// regardless of what the caller sends. POST /services
func CreateService(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		Title       string  `json:"title"`
		Description string  `json:"description"`
		Price       float64 `json:"price"`
		Category    string  `json:"category"`
		Location    string  `json:"location"`
		Type        string  `json:"type"`
		ImageURL    *string `json:"image_url"`
		Status      string  `json:"status"` // ignored
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	if req.Title == "" || req.Description == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and description are required"})
	}
	if req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
	}
	if !ValidType(req.Type) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "type must be offer or request"})
	}

	serviceID := uuid.New().String()
	now := time.Now()

	var s Service
	err := db.Conn.QueryRow(
		context.Background(),
		`INSERT INTO services (id, user_id, title, description, price, category, location, type, status, image_url, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 'active', $9, $10, $10)
		 RETURNING id, user_id, title, description, price, category, location, type, status, image_url, created_at, updated_at`,
		serviceID, uid, req.Title, req.Description, req.Price, req.Category, req.Location, req.Type, req.ImageURL, now,
	).Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Price, &s.Category,
		&s.Location, &s.Type, &s.Status, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create service"})
	}

	return c.JSON(http.StatusCreated, s)
}

// GetUserServices returns the authenticated user's own listings. GET /services/me
func GetUserServices(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, user_id, title, description, price, category, location, type, status, image_url, created_at, updated_at
         FROM services WHERE user_id = $1 ORDER BY created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer rows.Close()

	var list []Service
	for rows.Next() {
		var s Service
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Price, &s.Category,
			&s.Location, &s.Type, &s.Status, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse service record"})
		}
		list = append(list, s)
	}
	if list == nil {
		list = []Service{}
	}
	return c.JSON(http.StatusOK, echo.Map{"services": list})
}
