package utils

import "sync"

// KeyMutex provides one logical lock per key. The claim registry uses it to
// serialize all review transitions against a single bounty, which is what
// makes the one-winner check race-free.
type KeyMutex struct {
	mu    sync.Mutex
	locks map[uint64]*entry
}

type entry struct {
	mu   sync.Mutex
	refs int
}

func NewKeyMutex() *KeyMutex {
	return &KeyMutex{locks: make(map[uint64]*entry)}
}

// Lock acquires the lock for key, blocking until it is free.
func (k *KeyMutex) Lock(key uint64) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &entry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	e.mu.Lock()
}

// Unlock releases the lock for key. It must pair with a prior Lock.
func (k *KeyMutex) Unlock(key uint64) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		k.mu.Unlock()
		panic("keymutex: unlock of unlocked key")
	}
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
	k.mu.Unlock()

	e.mu.Unlock()
}
