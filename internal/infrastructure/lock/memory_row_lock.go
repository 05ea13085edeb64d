package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vendorportal/backend/internal/domain/erp"
)

// MemoryRowLocker implements RowLocker with an in-process map. Suitable for
// single-instance deployments and testing.
// WARNING: locks are not shared across process instances, so a distributed
// deployment must use the Redis locker instead.
type MemoryRowLocker struct {
	mu    sync.Mutex
	held  map[string]memoryLease
	clock func() time.Time
	seq   uint64
}

// memoryLease is one acquisition. The token distinguishes the current
// holder from a stale one whose TTL lapsed, matching the Redis locker's
// compare-and-delete release.
type memoryLease struct {
	token  uint64
	expiry time.Time
}

// NewMemoryRowLocker creates a new in-process row locker
func NewMemoryRowLocker() *MemoryRowLocker {
	return &MemoryRowLocker{
		held:  make(map[string]memoryLease),
		clock: time.Now,
	}
}

// Acquire blocks until the lock is held, the current holder's TTL expires,
// or ctx is done.
func (l *MemoryRowLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	for {
		if token, ok := l.tryAcquire(key, ttl); ok {
			return l.releaseFunc(key, token), nil
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

// tryAcquire takes the lock when it is free or its holder's TTL has lapsed.
func (l *MemoryRowLocker) tryAcquire(key string, ttl time.Duration) (uint64, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if lease, ok := l.held[key]; ok && now.Before(lease.expiry) {
		return 0, false
	}
	l.seq++
	l.held[key] = memoryLease{token: l.seq, expiry: now.Add(ttl)}
	return l.seq, true
}

// releaseFunc releases only the acquisition it was created for. A holder
// whose TTL lapsed and whose key was re-acquired must not free the new
// holder's lock.
func (l *MemoryRowLocker) releaseFunc(key string, token uint64) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			l.mu.Lock()
			defer l.mu.Unlock()
			if lease, ok := l.held[key]; ok && lease.token == token {
				delete(l.held, key)
			}
		})
	}
}

// Ensure MemoryRowLocker implements RowLocker
var _ erp.RowLocker = (*MemoryRowLocker)(nil)
