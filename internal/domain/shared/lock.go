package shared

import (
	"context"
	"time"
)

// DistributedLock guards a unit of work that must not run twice concurrently,
// such as a payment batch run shared by several worker instances.
type DistributedLock interface {
	// Acquire takes the lock for key with a TTL.
	// Returns false without error when another holder owns the key.
	Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// Release drops the lock for key
	Release(ctx context.Context, key string) error

	// Close releases resources held by the lock backend
	Close() error
}
