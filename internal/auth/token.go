package auth

import (
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// issueToken signs a session token for the given user.
// Admin status is deliberately not embedded: guards read the flag from the
// database so promotions apply without re-login.
func issueToken(userID string) (string, error) {
	claims := jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(72 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(os.Getenv("JWT_SECRET")))
}
