// Package sessions tracks revoked access tokens until they would have expired anyway.
package sessions

import (
	"context"
	"time"
)

// a revocation list keyed by token id (the JWT jti claim)
type Store interface {
	Revoke(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}
