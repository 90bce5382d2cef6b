package ports

import (
	"context"
	"time"
)

// UnlockFunc releases a session lock. Calling it after the lock expired is harmless.
type UnlockFunc func(ctx context.Context) error

// SessionLocker serializes work on one wizard session across replicas. Submit
// runs under the lock, so two replicas never commit the same session.
type SessionLocker interface {
	// Lock blocks until the session is free or ctx is done. The lock lapses
	// after ttl when its holder dies without unlocking.
	Lock(ctx context.Context, sessionID string, ttl time.Duration) (UnlockFunc, error)
}
