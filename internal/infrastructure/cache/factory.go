package cache

import (
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/dvd/backend/internal/domain/qrlogin"
	"github.com/dvd/backend/internal/domain/shared"
	"github.com/dvd/backend/internal/infrastructure/config"
)

// Stores bundles the login attempt and idempotency stores
type Stores struct {
	Attempts    qrlogin.AttemptStore
	Idempotency shared.IdempotencyStore
	client      *redis.Client
}

// Close releases both stores and the Redis client, if any
func (s *Stores) Close() error {
	_ = s.Attempts.Close()
	_ = s.Idempotency.Close()
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// Backend reports which backend the stores use
func (s *Stores) Backend() string {
	if s.client != nil {
		return "redis"
	}
	return "memory"
}

// StoreFactory creates login stores based on configuration
type StoreFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	sweepInterval         time.Duration
}

// StoreFactoryOption is a functional option for configuring the factory
type StoreFactoryOption func(*StoreFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable
// Default is true (allow fallback)
func WithInMemoryFallback(allow bool) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithSweepInterval sets how often in-memory stores drop expired entries
func WithSweepInterval(d time.Duration) StoreFactoryOption {
	return func(f *StoreFactory) {
		f.sweepInterval = d
	}
}

// NewStoreFactory creates a new factory
func NewStoreFactory(cfg config.RedisConfig, opts ...StoreFactoryOption) *StoreFactory {
	f := &StoreFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		sweepInterval:         time.Minute,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateInMemoryStores creates process-local stores
// WARNING: In-memory stores do not share state across process instances, so
// a poll routed to another instance will not find its attempt
func (f *StoreFactory) CreateInMemoryStores() *Stores {
	return &Stores{
		Attempts:    NewInMemoryAttemptStore(f.sweepInterval),
		Idempotency: newInMemoryIdempotencyStore(f.sweepInterval),
	}
}

// CreateRedisStores creates Redis-backed stores sharing one client
func (f *StoreFactory) CreateRedisStores() (*Stores, error) {
	client, err := NewRedisClient(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, err
	}
	return &Stores{
		Attempts:    NewRedisAttemptStore(client, ""),
		Idempotency: NewRedisIdempotencyStoreWithClient(client, ""),
		client:      client,
	}, nil
}

// CreateStores uses Redis when enabled and reachable, falling back to memory
// when allowed
func (f *StoreFactory) CreateStores() (*Stores, error) {
	if !f.redisConfig.Enabled {
		f.logger.Info("redis disabled, using in-memory login stores")
		return f.CreateInMemoryStores(), nil
	}

	stores, err := f.CreateRedisStores()
	if err == nil {
		f.logger.Info("using Redis login stores")
		return stores, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for login stores but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory login stores. "+
		"Login attempts will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStores(), nil
}
