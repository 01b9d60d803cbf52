package session

import (
	"sync"

	"github.com/itsinfi/prompt-with-friends-backend/internal/model"
)

// keyedMutex hands out one mutex per session code. Entries are dropped once
// no caller holds or waits on them, so idle sessions cost nothing.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[model.SessionCode]*refMutex
}

type refMutex struct {
	sync.Mutex
	refs int
}

func newKeyedMutex() *keyedMutex {
	return &keyedMutex{locks: make(map[model.SessionCode]*refMutex)}
}

// Lock blocks until the session's mutex is held and returns its unlock func
func (k *keyedMutex) Lock(code model.SessionCode) func() {
	k.mu.Lock()
	m, ok := k.locks[code]
	if !ok {
		m = &refMutex{}
		k.locks[code] = m
	}
	m.refs++
	k.mu.Unlock()

	m.Lock()
	return func() {
		m.Unlock()
		k.mu.Lock()
		m.refs--
		if m.refs == 0 {
			delete(k.locks, code)
		}
		k.mu.Unlock()
	}
}

func (k *keyedMutex) size() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}
