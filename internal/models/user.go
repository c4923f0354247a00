package models

import (
	"github.com/golang-jwt/jwt/v5"
)

// Claims is the JWT payload issued by the external auth service. The engine
// only verifies it.
type Claims struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
