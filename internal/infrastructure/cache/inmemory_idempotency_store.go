package cache

import (
	"context"
	"time"

	"github.com/dvd/backend/internal/domain/shared"
)

const defaultCleanupInterval = 5 * time.Minute

// InMemoryIdempotencyStore holds ticket and persist claims in process
// memory. Claims are only exclusive within one process, so it serves
// single-instance deployments and tests.
type InMemoryIdempotencyStore struct {
	claims *expiringMap[struct{}]
}

// NewInMemoryIdempotencyStore creates a store swept every five minutes
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	return newInMemoryIdempotencyStore(defaultCleanupInterval)
}

func newInMemoryIdempotencyStore(cleanupInterval time.Duration) *InMemoryIdempotencyStore {
	return &InMemoryIdempotencyStore{claims: newExpiringMap[struct{}](cleanupInterval)}
}

// Claim holds key for ttl. It reports false when the key is already held.
func (s *InMemoryIdempotencyStore) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	return s.claims.setIfAbsent(key, struct{}{}, ttl), nil
}

// IsClaimed reports whether key is currently held
func (s *InMemoryIdempotencyStore) IsClaimed(_ context.Context, key string) (bool, error) {
	_, held := s.claims.get(key)
	return held, nil
}

// Release drops a claim
func (s *InMemoryIdempotencyStore) Release(_ context.Context, key string) error {
	s.claims.delete(key)
	return nil
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryIdempotencyStore) Close() error {
	s.claims.close()
	return nil
}

// Size returns the number of claims not yet swept
func (s *InMemoryIdempotencyStore) Size() int {
	return s.claims.len()
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
