// Package revocation holds the set of revoked token IDs (jti) consulted on
// every token validation.
package revocation

import (
	"context"
	"sync"
	"time"
)

type Store interface {
	// Add is idempotent. exp is the token's own expiry; backends that
	// expire entries may use it as the entry lifetime.
	Add(ctx context.Context, jti string, exp time.Time) error
	Contains(ctx context.Context, jti string) (bool, error)
}

// MemoryStore is a process-wide set with no eviction: it starts empty and
// is lost on restart, which un-revokes every token issued before it.
type MemoryStore struct {
	mu      sync.RWMutex
	revoked map[string]struct{}
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{revoked: make(map[string]struct{})}
}

func (s *MemoryStore) Add(_ context.Context, jti string, _ time.Time) error {
	s.mu.Lock()
	s.revoked[jti] = struct{}{}
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Contains(_ context.Context, jti string) (bool, error) {
	s.mu.RLock()
	_, ok := s.revoked[jti]
	s.mu.RUnlock()
	return ok, nil
}
