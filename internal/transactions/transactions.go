package transactions

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/labstack/echo/v4"

	"github.com/user-pratik/service-app/internal/alerts"
	"github.com/user-pratik/service-app/internal/db"
)

const (
	StatusPending   = "pending"
	StatusCompleted = "completed"
	StatusCancelled = "cancelled"
)

// Transaction links a service, a buyer and a seller. No money moves here;
// status is advanced by admin action only.
type Transaction struct {
	ID             string    `json:"id"`
	ServiceID      string    `json:"service_id"`
	BuyerID        string    `json:"buyer_id"`
	SellerID       string    `json:"seller_id"`
	Amount         float64   `json:"amount"`
	Status         string    `json:"status"`
	CreatedAt      time.Time `json:"created_at"`
	ServiceTitle   string    `json:"service_title,omitempty"`
	BuyerUsername  string    `json:"buyer_username,omitempty"`
	SellerUsername string    `json:"seller_username,omitempty"`
}

// ValidStatus reports whether s is a known transaction status
func ValidStatus(s string) bool {
	return s == StatusPending || s == StatusCompleted || s == StatusCancelled
}

// GetUserTransactions returns all transactions where the caller is buyer or
// seller, newest first, enriched with the service title and both parties'
// usernames. GET /transactions
func GetUserTransactions(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	rows, err := db.Conn.Query(context.Background(),
		`SELECT t.id, t.service_id, t.buyer_id, t.seller_id, t.amount, t.status, t.created_at,
                s.title, b.username, se.username
         FROM transactions t
         JOIN services s ON s.id = t.service_id
         JOIN profiles b ON b.id = t.buyer_id
         JOIN profiles se ON se.id = t.seller_id
         WHERE t.buyer_id = $1 OR t.seller_id = $1
         ORDER BY t.created_at DESC`, uid)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not fetch transactions"})
	}
	defer rows.Close()

	txs := []Transaction{}
	for rows.Next() {
		var t Transaction
		if err := rows.Scan(&t.ID, &t.ServiceID, &t.BuyerID, &t.SellerID, &t.Amount, &t.Status, &t.CreatedAt,
			&t.ServiceTitle, &t.BuyerUsername, &t.SellerUsername); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to parse transaction record"})
		}
		txs = append(txs, t)
	}
	return c.JSON(http.StatusOK, echo.Map{"transactions": txs})
}

// CreateTransaction initiates payment on an offer. The buyer is the caller;
// the seller and amount come from the listing, never the request body.
// POST /transactions
func CreateTransaction(c echo.Context) error {
	uid, ok := c.Get("user_id").(string)
	if !ok || uid == "" {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var req struct {
		ServiceID string `json:"service_id"`
	}
	if err := c.Bind(&req); err != nil || req.ServiceID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service_id is required"})
	}

	ctx := context.Background()

	var (
		sellerID, serviceType, serviceStatus, serviceTitle string
		amount                                             float64
	)
	err := db.Conn.QueryRow(ctx,
		`SELECT user_id, type, status, title, price FROM services WHERE id = $1`, req.ServiceID).
		Scan(&sellerID, &serviceType, &serviceStatus, &serviceTitle, &amount)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "service not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch service"})
	}

	if serviceType != "offer" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "only offers can be purchased"})
	}
	if serviceStatus != "active" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "service is not active"})
	}
	if sellerID == uid {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "cannot buy your own service"})
	}

	var t Transaction
	err = db.Conn.QueryRow(ctx,
		`INSERT INTO transactions (id, service_id, buyer_id, seller_id, amount, status)
         VALUES ($1, $2, $3, $4, $5, 'pending')
         RETURNING id, service_id, buyer_id, seller_id, amount, status, created_at`,
		uuid.New().String(), req.ServiceID, uid, sellerID, amount,
	).Scan(&t.ID, &t.ServiceID, &t.BuyerID, &t.SellerID, &t.Amount, &t.Status, &t.CreatedAt)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create transaction"})
	}
	t.ServiceTitle = serviceTitle

	// Tell the seller (best-effort)
	ref := t.ID
	_ = alerts.CreateNotification(sellerID, "transaction:new", "New payment initiated for "+serviceTitle, "", &ref)

	return c.JSON(http.StatusCreated, t)
}

// UpdateStatus sets a transaction's status. Wired under /admin: only admins
// advance transactions in this system. POST /admin/transactions/:id/status
func UpdateStatus(c echo.Context) error {
	txID := c.Param("id")
	if txID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "missing transaction id"})
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil || !ValidStatus(req.Status) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "status must be pending, completed or cancelled"})
	}

	var t Transaction
	err := db.Conn.QueryRow(context.Background(),
		`UPDATE transactions SET status = $1 WHERE id = $2
         RETURNING id, service_id, buyer_id, seller_id, amount, status, created_at`,
		req.Status, txID,
	).Scan(&t.ID, &t.ServiceID, &t.BuyerID, &t.SellerID, &t.Amount, &t.Status, &t.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "transaction not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update transaction"})
	}

	ref := t.ID
	_ = alerts.CreateNotification(t.BuyerID, "transaction:"+t.Status, "Your transaction is now "+t.Status, "", &ref)

	return c.JSON(http.StatusOK, t)
}
