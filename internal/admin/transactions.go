package admin

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/db"
	"github.com/user-pratik/service-app/internal/transactions"
)

// GET /admin/transactions
func ListTransactions(c echo.Context) error {
	rows, err := db.Conn.Query(context.Background(),
		`SELECT t.id, t.service_id, t.buyer_id, t.seller_id, t.amount, t.status, t.created_at,
                s.title, b.username, se.username
         FROM transactions t
         JOIN services s ON s.id = t.service_id
         JOIN profiles b ON b.id = t.buyer_id
         JOIN profiles se ON se.id = t.seller_id
         ORDER BY t.created_at DESC`)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	txs := []transactions.Transaction{}
	for rows.Next() {
		var t transactions.Transaction
		if err := rows.Scan(&t.ID, &t.ServiceID, &t.BuyerID, &t.SellerID, &t.Amount, &t.Status, &t.CreatedAt,
			&t.ServiceTitle, &t.BuyerUsername, &t.SellerUsername); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse transaction record"})
		}
		txs = append(txs, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

// GET /admin/transactions/user/:id
func ListUserTransactions(c echo.Context) error {
	userID := c.Param("id")
	if userID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "user id required"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT t.id, t.service_id, t.buyer_id, t.seller_id, t.amount, t.status, t.created_at,
                s.title, b.username, se.username
         FROM transactions t
         JOIN services s ON s.id = t.service_id
         JOIN profiles b ON b.id = t.buyer_id
         JOIN profiles se ON se.id = t.seller_id
         WHERE t.buyer_id = $1 OR t.seller_id = $1
         ORDER BY t.created_at DESC`, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	txs := []transactions.Transaction{}
	for rows.Next() {
		var t transactions.Transaction
		if err := rows.Scan(&t.ID, &t.ServiceID, &t.BuyerID, &t.SellerID, &t.Amount, &t.Status, &t.CreatedAt,
			&t.ServiceTitle, &t.BuyerUsername, &t.SellerUsername); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse transaction record"})
		}
		txs = append(txs, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}
