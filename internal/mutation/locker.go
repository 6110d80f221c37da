package mutation

import (
	"sync"

	"github.com/google/uuid"
)

// BoardLocker hands out one mutex per board id. Handlers hold the board's
// lock across position allocation, persistence and log recording, so
// concurrent structural mutations on the same board serialize while
// different boards proceed in parallel.
//
// Entries are refcounted and dropped once the last holder unlocks, so the
// map does not grow with the number of boards ever touched.
type BoardLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*boardLock
}

type boardLock struct {
	mu   sync.Mutex
	refs int
}

func NewBoardLocker() *BoardLocker {
	return &BoardLocker{locks: make(map[uuid.UUID]*boardLock)}
}

// Lock acquires the board's mutex and returns the matching unlock func.
func (l *BoardLocker) Lock(boardID uuid.UUID) (unlock func()) {
	l.mu.Lock()
	entry, ok := l.locks[boardID]
	if !ok {
		entry = &boardLock{}
		l.locks[boardID] = entry
	}
	entry.refs++
	l.mu.Unlock()

	entry.mu.Lock()

	return func() {
		entry.mu.Unlock()

		l.mu.Lock()
		entry.refs--
		if entry.refs == 0 {
			delete(l.locks, boardID)
		}
		l.mu.Unlock()
	}
}
