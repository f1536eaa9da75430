package service

import "sync"

// userLocks hands out one RWMutex per user. Regeneration takes the write
// side, reads take the read side, so no reader observes a timeline while it
// is being replaced.
type userLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.RWMutex
}

func newUserLocks() *userLocks {
	return &userLocks{locks: make(map[string]*sync.RWMutex)}
}

func (l *userLocks) get(userID string) *sync.RWMutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.RWMutex{}
		l.locks[userID] = m
	}
	return m
}
