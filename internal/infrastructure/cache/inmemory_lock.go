package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/ledger/internal/domain/shared"
)

// InMemoryLock implements DistributedLock within a single process.
// Suitable for single-instance deployments and testing.
type InMemoryLock struct {
	mu    sync.Mutex
	held  map[string]time.Time
	clock func() time.Time
}

// NewInMemoryLock creates a new in-memory lock
func NewInMemoryLock() *InMemoryLock {
	return &InMemoryLock{
		held:  make(map[string]time.Time),
		clock: time.Now,
	}
}

// Acquire takes the lock for key unless an unexpired holder owns it
func (l *InMemoryLock) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock()
	if expiresAt, ok := l.held[key]; ok && now.Before(expiresAt) {
		return false, nil
	}
	l.held[key] = now.Add(ttl)
	return true, nil
}

// Release drops the lock for key
func (l *InMemoryLock) Release(ctx context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, key)
	return nil
}

// Close is a no-op
func (l *InMemoryLock) Close() error {
	return nil
}

// Size returns the number of held keys, expired or not
func (l *InMemoryLock) Size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

// Ensure InMemoryLock implements DistributedLock
var _ shared.DistributedLock = (*InMemoryLock)(nil)
