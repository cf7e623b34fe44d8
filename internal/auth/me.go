package auth

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

// Me returns the currently authenticated user's profile
func Me(c echo.Context) error {
	userID, ok := c.Get("user_id").(string)
	if !ok || userID == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var (
		id, email, username, fullName string
		avatarURL, bio                *string
		isAdmin                       bool
	)
	err := db.Conn.QueryRow(context.Background(),
		`SELECT id, email, username, full_name, avatar_url, bio, is_admin
         FROM profiles WHERE id = $1`, userID).
		Scan(&id, &email, &username, &fullName, &avatarURL, &bio, &isAdmin)
	if err != nil {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "profile not found"})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"id":         id,
		"email":      email,
		"username":   username,
		"full_name":  fullName,
		"avatar_url": avatarURL,
		"bio":        bio,
		"is_admin":   isAdmin,
	})
}

// Signout acknowledges a sign-out. Sessions are stateless tokens, so the
// client discards its copy; the endpoint exists for symmetry and audit logs.
func Signout(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"message": "signed out"})
}
