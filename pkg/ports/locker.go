package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a distributed lock.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker coordinates conversation access across replicas. A single
// instance does not need one; the session manager's in-process locks suffice.
type DistributedLocker interface {
	// Lock acquires a lock for the key (conversation id), blocking until
	// acquired or ctx is canceled. The returned UnlockFunc MUST be called;
	// the TTL is the safety net if the process dies while holding it.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
