package lock

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/vendorportal/backend/internal/domain/erp"
	"github.com/vendorportal/backend/internal/infrastructure/config"
)

// RowLockerFactory creates row lockers based on configuration
type RowLockerFactory struct {
	redisConfig           config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// RowLockerFactoryOption is a functional option for configuring the factory
type RowLockerFactoryOption func(*RowLockerFactory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) RowLockerFactoryOption {
	return func(f *RowLockerFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-process locker
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) RowLockerFactoryOption {
	return func(f *RowLockerFactory) {
		f.allowInMemoryFallback = allow
	}
}

// NewRowLockerFactory creates a new factory
func NewRowLockerFactory(cfg config.RedisConfig, opts ...RowLockerFactoryOption) *RowLockerFactory {
	f := &RowLockerFactory{
		redisConfig:           cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}

	for _, opt := range opts {
		opt(f)
	}

	return f
}

// CreateLocker creates a row locker, trying Redis first and falling back to
// the in-process locker when allowed.
func (f *RowLockerFactory) CreateLocker() (erp.RowLocker, error) {
	locker, err := NewRedisRowLocker(RedisConfig{
		Host:     f.redisConfig.Host,
		Port:     f.redisConfig.Port,
		Password: f.redisConfig.Password,
		DB:       f.redisConfig.DB,
	})
	if err == nil {
		f.logger.Info("using Redis row locker")
		return locker, nil
	}

	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("Redis required for row locking but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-process row locker. "+
		"Concurrent writers on other instances will not be serialized.",
		zap.Error(err),
	)
	return NewMemoryRowLocker(), nil
}
