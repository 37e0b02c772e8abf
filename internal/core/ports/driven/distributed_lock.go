package driven

import (
	"context"
	"time"
)

// DistributedLock provides distributed locking for coordinating work
// across instances. The workflow engine uses a per-document lock to
// serialize version bumps; the janitor uses it to ensure cleanup runs
// on a single instance.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL.
	// Returns true if the lock was successfully acquired, false if
	// already held by another instance.
	Acquire(ctx context.Context, name string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name string) error

	// Extend extends the TTL of a currently held lock.
	// Not all implementations support extension (PostgreSQL advisory
	// locks are connection-scoped and ignore TTL).
	Extend(ctx context.Context, name string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
