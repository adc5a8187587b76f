package sessions

import (
	"context"
	"sync"
	"time"
)

// keeps revocations in process memory; used when no redis is configured
type MemoryStore struct {
	revoked map[string]time.Time
	mu      sync.RWMutex
	now     func() time.Time
}

// returns a memory store and starts its cleanup loop, which stops with ctx
func NewMemoryStore(ctx context.Context, interval time.Duration) *MemoryStore {
	m := &MemoryStore{
		revoked: make(map[string]time.Time),
		now:     time.Now,
	}

	if interval > 0 {
		go m.cleanupLoop(ctx, interval)
	}

	return m
}

func (m *MemoryStore) Revoke(_ context.Context, tokenID string, expiresAt time.Time) error {
	if tokenID == "" {
		return ErrEmptyTokenID
	}

	// already expired tokens are rejected by signature validation
	if !expiresAt.After(m.now()) {
		return nil
	}

	m.mu.Lock()
	m.revoked[tokenID] = expiresAt
	m.mu.Unlock()

	return nil
}

func (m *MemoryStore) IsRevoked(_ context.Context, tokenID string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	until, exists := m.revoked[tokenID]
	if !exists {
		return false, nil
	}

	return m.now().Before(until), nil
}

// returns the number of tracked revocations
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.revoked)
}

func (m *MemoryStore) prune() {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()

	for id, until := range m.revoked {
		if !now.Before(until) {
			delete(m.revoked, id)
		}
	}
}

func (m *MemoryStore) cleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.prune()
		}
	}
}
