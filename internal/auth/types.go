package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// represents JWT claims; the token id (jti) is what logout revokes
type Claims struct {
	UserID  string `json:"user_id"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// the authenticated caller, built once per request from validated claims
type Session struct {
	UserID    string
	Email     string
	IsAdmin   bool
	TokenID   string
	ExpiresAt time.Time
}

func (c *Claims) Session() Session {
	s := Session{
		UserID:  c.UserID,
		Email:   c.Email,
		IsAdmin: c.IsAdmin,
		TokenID: c.ID,
	}

	if c.ExpiresAt != nil {
		s.ExpiresAt = c.ExpiresAt.Time
	}

	return s
}
