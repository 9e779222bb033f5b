package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/dvd/backend/internal/domain/qrlogin"
)

const defaultAttemptPrefix = "dvd:qrlogin:attempt:"

// RedisAttemptStore keeps login attempts in Redis as JSON with a key TTL,
// so any instance can serve the next poll of an attempt
type RedisAttemptStore struct {
	client    redis.UniversalClient
	keyPrefix string
}

// NewRedisAttemptStore creates a store over an existing client
func NewRedisAttemptStore(client redis.UniversalClient, keyPrefix string) *RedisAttemptStore {
	if keyPrefix == "" {
		keyPrefix = defaultAttemptPrefix
	}
	return &RedisAttemptStore{client: client, keyPrefix: keyPrefix}
}

// Save stores attempt until ttl elapses
func (s *RedisAttemptStore) Save(ctx context.Context, attempt *qrlogin.LoginAttempt, ttl time.Duration) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("encode login attempt: %w", err)
	}
	if err := s.client.Set(ctx, s.keyPrefix+attempt.Token, payload, ttl).Err(); err != nil {
		return fmt.Errorf("save login attempt: %w", err)
	}
	return nil
}

// Get loads an attempt
func (s *RedisAttemptStore) Get(ctx context.Context, token string) (*qrlogin.LoginAttempt, error) {
	payload, err := s.client.Get(ctx, s.keyPrefix+token).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, qrlogin.ErrAttemptNotFound
		}
		return nil, fmt.Errorf("load login attempt: %w", err)
	}
	var attempt qrlogin.LoginAttempt
	if err := json.Unmarshal(payload, &attempt); err != nil {
		return nil, fmt.Errorf("decode login attempt: %w", err)
	}
	return &attempt, nil
}

// Delete removes an attempt
func (s *RedisAttemptStore) Delete(ctx context.Context, token string) error {
	return s.client.Del(ctx, s.keyPrefix+token).Err()
}

// Close is a no-op; the client is owned by whoever created it
func (s *RedisAttemptStore) Close() error {
	return nil
}

var _ qrlogin.AttemptStore = (*RedisAttemptStore)(nil)
