package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/vendorportal/backend/internal/domain/erp"
)

// retryInterval is how often a blocked Acquire re-attempts the SETNX.
const retryInterval = 50 * time.Millisecond

// releaseScript deletes the key only when it still holds our token, so an
// expired lock taken over by another writer is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RedisRowLocker implements RowLocker using Redis SETNX with a TTL. Suitable
// for distributed deployments where multiple instances write the same rows.
type RedisRowLocker struct {
	client    *redis.Client
	keyPrefix string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisRowLocker creates a new Redis-based row locker
func NewRedisRowLocker(cfg RedisConfig) (*RedisRowLocker, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisRowLocker{
		client:    client,
		keyPrefix: "lock:",
	}, nil
}

// NewRedisRowLockerWithClient creates a locker with an existing Redis client.
// This is useful for testing or when sharing a client across components
func NewRedisRowLockerWithClient(client *redis.Client, keyPrefix string) *RedisRowLocker {
	if keyPrefix == "" {
		keyPrefix = "lock:"
	}
	return &RedisRowLocker{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Acquire blocks until the lock is held or ctx is done. The TTL bounds how
// long a crashed holder can block other writers.
func (l *RedisRowLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.keyPrefix + key
	token := uuid.NewString()

	for {
		ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock %q: %w", key, err)
		}
		if ok {
			return l.releaseFunc(fullKey, token), nil
		}

		timer := time.NewTimer(retryInterval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %s: %v", erp.ErrLockHeld, key, ctx.Err())
		case <-timer.C:
		}
	}
}

// releaseFunc builds the idempotent release closure for a held lock.
func (l *RedisRowLocker) releaseFunc(fullKey, token string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			// Best effort: an expired key releases itself via the TTL.
			_ = releaseScript.Run(ctx, l.client, []string{fullKey}, token).Err()
		})
	}
}

// Close closes the Redis client
func (l *RedisRowLocker) Close() error {
	return l.client.Close()
}

// Ensure RedisRowLocker implements RowLocker
var _ erp.RowLocker = (*RedisRowLocker)(nil)
