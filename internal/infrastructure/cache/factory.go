package cache

import (
	"fmt"

	"github.com/erp/ledger/internal/domain/shared"
	"github.com/erp/ledger/internal/infrastructure/config"
	"go.uber.org/zap"
)

// LockFactory creates batch run locks based on configuration
type LockFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
	connect               func(RedisConfig) (shared.DistributedLock, error)
}

// LockFactoryOption is a functional option for configuring the factory
type LockFactoryOption func(*LockFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) LockFactoryOption {
	return func(f *LockFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to an in-memory lock when Redis is unavailable.
// Default is true.
func WithInMemoryFallback(allow bool) LockFactoryOption {
	return func(f *LockFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewLockFactory creates a new factory
func NewLockFactory(cfg config.RedisConfig, opts ...LockFactoryOption) *LockFactory {
	f := &LockFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
		connect: func(c RedisConfig) (shared.DistributedLock, error) {
			return NewRedisLock(c)
		},
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateRedisLock creates a Redis-backed lock
func (f *LockFactory) CreateRedisLock() (shared.DistributedLock, error) {
	lock, err := f.connect(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis lock: %w", err)
	}
	return lock, nil
}

// CreateLock tries Redis first and falls back to an in-memory lock when allowed
func (f *LockFactory) CreateLock() (shared.DistributedLock, error) {
	lock, err := f.CreateRedisLock()
	if err == nil {
		f.logger.Info("using Redis batch lock", zap.String("addr", f.redisConfig.Addr()))
		return lock, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for batch locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory batch lock. "+
		"Concurrent workers on other hosts will not be excluded.",
		zap.Error(err),
	)
	return NewInMemoryLock(), nil
}
