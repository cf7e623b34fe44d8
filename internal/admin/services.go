package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
	"github.com/user-pratik/service-app/internal/services"
)

// ListServices returns every listing regardless of status, for moderation.
func ListServices(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT s.id, s.user_id, s.title, s.description, s.price, s.category, s.location,
                s.type, s.status, s.image_url, s.created_at, s.updated_at,
                p.username, p.avatar_url
         FROM services s
         JOIN profiles p ON p.id = s.user_id
         ORDER BY s.created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch services"})
	}
	defer rows.Close()

	list := []services.Service{}
	for rows.Next() {
		var s services.Service
		var o services.Owner
		if err := rows.Scan(&s.ID, &s.UserID, &s.Title, &s.Description, &s.Price, &s.Category,
			&s.Location, &s.Type, &s.Status, &s.ImageURL, &s.CreatedAt, &s.UpdatedAt,
			&o.Username, &o.AvatarURL); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse service record"})
		}
		s.Owner = &o
		list = append(list, s)
	}
	return c.JSON(http.StatusOK, echo.Map{"services": list})
}
