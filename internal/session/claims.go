package session

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// Claims are the access-token claims both backends rely on.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes the claims of an access token without checking its
// signature. The backend verifies tokens; the client only needs the identity
// and expiry it was handed.
func ParseUnverified(token string) (*Claims, error) {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		return nil, fmt.Errorf("malformed access token: %w", err)
	}
	return claims, nil
}
