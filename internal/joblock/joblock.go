// Package joblock keeps two runs of the same scheduled job from overlapping.
package joblock

import (
	"context"
	"errors"
	"time"
)

// ErrLocked is returned by Acquire when another run holds the lock.
var ErrLocked = errors.New("joblock: lock held by another run")

// Lock is a held lock. Release is safe to call after the lock expired; it
// never removes a lock taken over by another holder.
type Lock interface {
	Release(ctx context.Context) error
}

// Locker hands out named, expiring locks.
type Locker interface {
	Acquire(ctx context.Context, name string, ttl time.Duration) (Lock, error)
}

// New returns a Redis-backed Locker when redisURL is set, so several
// instances share locks, and a process-local one otherwise.
func New(ctx context.Context, redisURL string) (Locker, error) {
	if redisURL == "" {
		return NewLocalLocker(), nil
	}
	client, err := NewRedisClient(ctx, redisURL)
	if err != nil {
		return nil, err
	}
	return NewRedisLocker(client), nil
}
