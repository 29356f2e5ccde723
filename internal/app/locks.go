package app

import (
	"context"
	"sync"
)

// Locker serialises operations per user id. The returned func releases the lock.
type Locker interface {
	Lock(ctx context.Context, userID string) (func(), error)
}

// userLocks is the in-process Locker. Entries are dropped once unused.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*userLock
}

type userLock struct {
	mu   sync.Mutex
	refs int
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*userLock)}
}

// Lock blocks until userID is free and returns the matching unlock.
func (l *userLocks) Lock(_ context.Context, userID string) (func(), error) {
	l.mu.Lock()
	entry, ok := l.locks[userID]
	if !ok {
		entry = &userLock{}
		l.locks[userID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()
	return func() {
		entry.mu.Unlock()
		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, userID)
		}
		l.mu.Unlock()
	}, nil
}

func (l *userLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
