package auth

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/labstack/echo/v4"
	"golang.org/x/crypto/bcrypt"

	"github.com/user-pratik/service-app/internal/alerts"
	"github.com/user-pratik/service-app/internal/db"
)

type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Username string `json:"username" validate:"required"`
	FullName string `json:"full_name" validate:"required"`
}

type SignupResponse struct {
	Token  string `json:"token"`
	UserID string `json:"user_id"`
}

// ===== Signup =====
// Identity and profile are one row written in one transaction, so a failed
// signup never leaves an identity without a profile.
func Signup(c echo.Context) error {
	req := new(SignupRequest)
	if err := c.Bind(req); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}
	if req.Email == "" || req.Password == "" || req.Username == "" || req.FullName == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "email, password, username and full_name are required"})
	}
	if len(req.Password) < 6 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "password must be at least 6 characters"})
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "server error"})
	}

	conn := db.Conn
	ctx := context.Background()

	tx, err := conn.Begin(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db transaction error"})
	}
	defer tx.Rollback(ctx)

	// New accounts are never admin
	var userID string
	err = tx.QueryRow(ctx, `
		INSERT INTO profiles (id, email, password_hash, username, full_name, is_admin, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, FALSE, $6, $6)
		RETURNING id
	`, uuid.New().String(), req.Email, string(hashed), req.Username, req.FullName, time.Now()).Scan(&userID)
	if err != nil {
		if isUniqueViolation(err) {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "email or username already exists"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create account"})
	}

	if err := tx.Commit(ctx); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "transaction failed"})
	}

	signed, err := issueToken(userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token generation failed"})
	}

	// Welcome email (best-effort)
	_ = alerts.EnqueueWelcomeEmail(userID, req.Email, req.FullName)

	return c.JSON(http.StatusOK, SignupResponse{Token: signed, UserID: userID})
}

// isUniqueViolation reports whether err is a Postgres unique constraint
// violation, so duplicate signups map to 400 and everything else to 500.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
