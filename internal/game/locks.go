package game

import "sync"

// LockTable serializes state transitions per game. Every read-modify-write
// of a game aggregate, deletion included, must hold the game's lock for its
// full duration, so two concurrent transitions cannot both observe the same
// turn state. Entries live for the lifetime of the process: removing one
// while a holder is in flight would let its Unlock resolve a different
// mutex.
type LockTable struct {
	mu    sync.Mutex
	locks map[uint]*sync.Mutex
}

// Locks is the singleton lock table used by the transition handlers.
var Locks = NewLockTable()

// NewLockTable creates an empty LockTable.
func NewLockTable() *LockTable {
	return &LockTable{
		locks: make(map[uint]*sync.Mutex),
	}
}

func (t *LockTable) get(gameID uint) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[gameID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[gameID] = l
	}
	return l
}

// Lock acquires the transition lock for a game.
func (t *LockTable) Lock(gameID uint) {
	t.get(gameID).Lock()
}

// Unlock releases the transition lock for a game.
func (t *LockTable) Unlock(gameID uint) {
	t.get(gameID).Unlock()
}
