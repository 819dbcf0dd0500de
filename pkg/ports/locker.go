package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a lock obtained from a DistributedLocker.
type UnlockFunc func(ctx context.Context) error

// DistributedLocker serializes turns of the same session across replicas.
type DistributedLocker interface {
	// Lock blocks until key is held, ctx is done, or the implementation gives up.
	// The lock expires after ttl if the holder never releases it.
	// The returned UnlockFunc must be called.
	Lock(ctx context.Context, key string, ttl time.Duration) (UnlockFunc, error)
}
