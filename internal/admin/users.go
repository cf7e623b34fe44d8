package admin

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

type AdminUser struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Username  string    `json:"username"`
	FullName  string    `json:"full_name"`
	IsAdmin   bool      `json:"is_admin"`
	CreatedAt time.Time `json:"created_at"`
}

// GET /admin/users
func ListUsers(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT id, email, username, full_name, is_admin, created_at
         FROM profiles ORDER BY created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch users"})
	}
	defer rows.Close()

	var users []AdminUser
	for rows.Next() {
		var u AdminUser
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.IsAdmin, &u.CreatedAt); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to read user record"})
		}
		users = append(users, u)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": users})
}

// POST /admin/users/:id/promote
func PromoteUser(c echo.Context) error {
	return setAdminFlag(c, true, "user promoted to admin")
}

// POST /admin/users/:id/demote
func DemoteUser(c echo.Context) error {
	return setAdminFlag(c, false, "user demoted")
}

// setAdminFlag flips is_admin. The change is live immediately: guards read
// the flag per request, so the user's current session picks it up.
func setAdminFlag(c echo.Context, admin bool, msg string) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}

	ct, err := db.Conn.Exec(context.Background(),
		`UPDATE profiles SET is_admin = $1, updated_at = NOW() WHERE id = $2`, admin, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update user"})
	}
	if ct.RowsAffected() == 0 {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "user not found"})
	}
	return c.JSON(http.StatusOK, echo.Map{"message": msg, "user_id": userID})
}
