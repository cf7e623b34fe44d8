package user

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

// GET /user/:id/profile
func GetPublicProfile(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing user id"})
	}

	var p Profile
	query := `
		SELECT id, username, full_name, avatar_url, bio, created_at
		FROM profiles
		WHERE id = $1
	`
	err := db.Conn.QueryRow(context.Background(), query, userID).Scan(
		&p.ID,
		&p.Username,
		&p.FullName,
		&p.AvatarURL,
		&p.Bio,
		&p.CreatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch user"})
	}

	// Email and admin flag stay private on this route
	return c.JSON(http.StatusOK, p)
}
