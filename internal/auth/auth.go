package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"codeberg.org/promptdeck/server/internal/sessions"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const DefaultTokenTTL = 7 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("JWT secret not set")
	ErrInvalidToken  = errors.New("invalid token")
	ErrTokenRevoked  = errors.New("token revoked")

	// the revocation store could not be reached; the request is rejected
	ErrRevocationCheck = errors.New("failed to check token revocation")
)

// issues and validates access tokens, consulting the revocation store
type Service struct {
	secret  []byte
	ttl     time.Duration
	revoked sessions.Store
	now     func() time.Time
}

func NewService(secret string, ttl time.Duration, revoked sessions.Store) *Service {
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}

	return &Service{
		secret:  []byte(secret),
		ttl:     ttl,
		revoked: revoked,
		now:     time.Now,
	}
}

// creates a JWT token for the user
func (s *Service) GenerateJWT(userID, email string, isAdmin bool) (string, error) {
	if len(s.secret) == 0 {
		return "", ErrMissingSecret
	}

	now := s.now()

	claims := Claims{
		UserID:  userID,
		Email:   email,
		IsAdmin: isAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	return token.SignedString(s.secret)
}

// validates a JWT token and returns the claims
func (s *Service) ValidateJWT(tokenString string) (*Claims, error) {
	if len(s.secret) == 0 {
		return nil, ErrMissingSecret
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}

		return s.secret, nil
	}, jwt.WithTimeFunc(s.now), jwt.WithExpirationRequired())

	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// validates the token and rejects it when it has been revoked
func (s *Service) Authenticate(ctx context.Context, tokenString string) (*Session, error) {
	claims, err := s.ValidateJWT(tokenString)
	if err != nil {
		return nil, err
	}

	if s.revoked != nil && claims.ID != "" {
		revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRevocationCheck, err)
		}

		if revoked {
			return nil, ErrTokenRevoked
		}
	}

	session := claims.Session()

	return &session, nil
}

// revokes the session's token until it would have expired
func (s *Service) Logout(ctx context.Context, session Session) error {
	if s.revoked == nil || session.TokenID == "" {
		return nil
	}

	return s.revoked.Revoke(ctx, session.TokenID, session.ExpiresAt)
}
