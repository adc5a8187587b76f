package sessions

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_RevokeAndCheck(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, 0)

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))

	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestMemoryStore_EmptyID(t *testing.T) {
	store := NewMemoryStore(context.Background(), 0)

	assert.ErrorIs(t, store.Revoke(context.Background(), "", time.Now().Add(time.Hour)), ErrEmptyTokenID)
}

func TestMemoryStore_ExpiredTokensAreNotTracked(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, 0)

	require.NoError(t, store.Revoke(ctx, "old", time.Now().Add(-time.Minute)))
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_Prune(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(ctx, 0)

	now := time.Now()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Revoke(ctx, "short", now.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "long", now.Add(time.Hour)))

	store.now = func() time.Time { return now.Add(2 * time.Minute) }

	revoked, err := store.IsRevoked(ctx, "short")
	require.NoError(t, err)
	assert.False(t, revoked, "revocation lapses with the token")

	store.prune()
	assert.Equal(t, 1, store.Len())
}

func TestMemoryStore_CleanupLoopStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	store := NewMemoryStore(ctx, time.Millisecond)

	require.NoError(t, store.Revoke(ctx, "a", time.Now().Add(time.Hour)))
	cancel()

	assert.Equal(t, 1, store.Len())
}
