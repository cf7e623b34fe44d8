package services

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

// authorizeOwner loads the listing's owner and checks the caller is the
// owner or an admin. Enforcement lives here, server-side; whatever the UI
// hides or shows is cosmetic.
func authorizeOwner(ctx context.Context, serviceID, userID string) (int, string) {
	var ownerID string
	err := db.Conn.QueryRow(ctx, `SELECT user_id FROM services WHERE id = $1`, serviceID).Scan(&ownerID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return http.StatusNotFound, "service not found"
		}
		return http.StatusInternalServerError, "failed to fetch service"
	}
	if ownerID == userID {
		return http.StatusOK, ""
	}

	var isAdmin bool
	if err := db.Conn.QueryRow(ctx, `SELECT is_admin FROM profiles WHERE id = $1`, userID).Scan(&isAdmin); err != nil || !isAdmin {
		return http.StatusForbidden, "not the owner of this service"
	}
	return http.StatusOK, ""
}

// UpdateService modifies a listing. PATCH /services/:id
func UpdateService(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	ctx := c.Request().Context()
	if code, msg := authorizeOwner(ctx, serviceID, uid); code != http.StatusOK {
		return c.JSON(code, echo.Map{"error": msg})
	}

	var req struct {
		Title       *string  `json:"title"`
		Description *string  `json:"description"`
		Price       *float64 `json:"price"`
		Category    *string  `json:"category"`
		Location    *string  `json:"location"`
		Status      *string  `json:"status"`
		ImageURL    *string  `json:"image_url"`
	}
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Price != nil && *req.Price < 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price must be non-negative"})
	}
	if req.Status != nil && !ValidStatus(*req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be active, completed or cancelled"})
	}

	// Build SET clause from provided fields only
	set := []string{"updated_at = NOW()"}
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		set = append(set, col+" = $"+strconv.Itoa(len(args)))
	}
	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Price != nil {
		add("price", *req.Price)
	}
	if req.Category != nil {
		add("category", *req.Category)
	}
	if req.Location != nil {
		add("location", *req.Location)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if req.ImageURL != nil {
		add("image_url", *req.ImageURL)
	}

	args = append(args, serviceID)
	query := `UPDATE services SET ` + strings.Join(set, ", ") +
		` WHERE id = $` + strconv.Itoa(len(args)) +
		` RETURNING id, user_id, title, description, price, category, location, type, status, image_url, created_at, updated_at`

	var s Service
	err := db.Conn.QueryRow(ctx, query, args...).
		Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Price, &s.Category,
			&s.Location, &s.Type, &s.Status, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update service"})
	}

	return c.JSON(http.StatusOK, s)
}

// DeleteService removes a listing. Deletion is blocked while transactions
// reference the service; messages go with it. DELETE /services/:id
func DeleteService(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	serviceID := c.Param("id")
	if serviceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing service id"})
	}

	ctx := c.Request().Context()
	if code, msg := authorizeOwner(ctx, serviceID, uid); code != http.StatusOK {
		return c.JSON(code, echo.Map{"error": msg})
	}

	var txCount int
	if err := db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transactions WHERE service_id = $1`, serviceID).Scan(&txCount); err == nil && txCount > 0 {
		return c.JSON(http.StatusConflict, echo.Map{"error": "service has transactions and cannot be deleted"})
	}

	ct, err := db.Conn.Exec(ctx, `DELETE FROM services WHERE id = $1`, serviceID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not delete service"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{"message": "service deleted", "service_id": serviceID})
}
