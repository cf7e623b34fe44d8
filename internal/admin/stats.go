package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
)

// GET /admin/stats
func Stats(c echo.Context) error {
	ctx := context.Background()

	var users, services, messages, transactions int

	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM profiles`).Scan(&users)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM services`).Scan(&services)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM messages`).Scan(&messages)
	_ = db.Conn.QueryRow(ctx, `SELECT COUNT(*) FROM transactions`).Scan(&transactions)

	return c.JSON(http.StatusOK, echo.Map{
		"users":        users,
		"services":     services,
		"messages":     messages,
		"transactions": transactions,
	})
}
