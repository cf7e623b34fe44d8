package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

// AdminGuard ensures only admin users can access admin routes.
// The flag is read from the database on every request so a promotion takes
// effect on the user's very next call, without re-login.
func AdminGuard(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		userID, ok := c.Get("user_id").(string)
		if !ok || userID == "" {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}

		var isAdmin bool
		err := db.Conn.QueryRow(c.Request().Context(),
			`SELECT is_admin FROM profiles WHERE id = $1`, userID,
		).Scan(&isAdmin)
		if err != nil || !isAdmin {
			return c.JSON(http.StatusForbidden, echo.Map{
				"error": "admin access only",
			})
		}

		c.Set("is_admin", true)
		return next(c)
	}
}
