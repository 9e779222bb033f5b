package cache

import (
	"context"
	"time"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

// InMemoryAttemptStore keeps login attempts in process memory. Expired
// attempts are invisible to Get and swept periodically.
type InMemoryAttemptStore struct {
	attempts *expiringMap[qrlogin.LoginAttempt]
}

// NewInMemoryAttemptStore creates a store sweeping every interval
func NewInMemoryAttemptStore(interval time.Duration) *InMemoryAttemptStore {
	if interval <= 0 {
		interval = time.Minute
	}
	return &InMemoryAttemptStore{attempts: newExpiringMap[qrlogin.LoginAttempt](interval)}
}

// Save stores a copy of attempt until ttl elapses
func (s *InMemoryAttemptStore) Save(_ context.Context, attempt *qrlogin.LoginAttempt, ttl time.Duration) error {
	s.attempts.set(attempt.Token, cloneAttempt(*attempt), ttl)
	return nil
}

// Get returns a copy of the stored attempt
func (s *InMemoryAttemptStore) Get(_ context.Context, token string) (*qrlogin.LoginAttempt, error) {
	attempt, ok := s.attempts.get(token)
	if !ok {
		return nil, qrlogin.ErrAttemptNotFound
	}
	cp := cloneAttempt(attempt)
	return &cp, nil
}

// Delete removes an attempt
func (s *InMemoryAttemptStore) Delete(_ context.Context, token string) error {
	s.attempts.delete(token)
	return nil
}

// Len returns the number of stored attempts, expired ones included
func (s *InMemoryAttemptStore) Len() int {
	return s.attempts.len()
}

// Close stops the sweeper. Safe to call multiple times.
func (s *InMemoryAttemptStore) Close() error {
	s.attempts.close()
	return nil
}

// cloneAttempt copies the slices so callers cannot mutate stored state.
func cloneAttempt(a qrlogin.LoginAttempt) qrlogin.LoginAttempt {
	a.Stores = append([]string(nil), a.Stores...)
	a.Channels = append([]string(nil), a.Channels...)
	return a
}

var _ qrlogin.AttemptStore = (*InMemoryAttemptStore)(nil)
