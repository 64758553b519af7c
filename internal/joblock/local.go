package joblock

import (
	"context"
	"sync"
	"time"
)

// LocalLocker holds locks in process memory. It serves single-instance
// deployments and tests where no redis is configured.
type LocalLocker struct {
	mu   sync.Mutex
	now  func() time.Time
	held map[string]localEntry
	seq  uint64
}

type localEntry struct {
	token   uint64
	expires time.Time
}

// NewLocalLocker creates an empty in-process Locker.
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{now: time.Now, held: make(map[string]localEntry)}
}

// Acquire takes the lock for name unless an unexpired holder exists.
func (l *LocalLocker) Acquire(_ context.Context, name string, ttl time.Duration) (Lock, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if e, ok := l.held[name]; ok && now.Before(e.expires) {
		return nil, ErrLocked
	}
	l.seq++
	l.held[name] = localEntry{token: l.seq, expires: now.Add(ttl)}
	return &localLock{owner: l, name: name, token: l.seq}, nil
}

type localLock struct {
	owner *LocalLocker
	name  string
	token uint64
}

func (l *localLock) Release(context.Context) error {
	l.owner.mu.Lock()
	defer l.owner.mu.Unlock()

	if e, ok := l.owner.held[l.name]; ok && e.token == l.token {
		delete(l.owner.held, l.name)
	}
	return nil
}
