package services

import (
	"slices"
	"sync"
)

// ProjectLocks serializes mutating operations per project. Entries are
// reference counted and dropped once nobody holds or waits on them.
type ProjectLocks struct {
	mu    sync.Mutex
	locks map[uint64]*projectLock
}

type projectLock struct {
	mu   sync.Mutex
	refs int
}

// NewProjectLocks creates an empty lock table.
func NewProjectLocks() *ProjectLocks {
	return &ProjectLocks{locks: make(map[uint64]*projectLock)}
}

// Lock acquires the locks of every given project in ascending id order and
// returns a function that releases them.
func (l *ProjectLocks) Lock(projectIDs ...uint64) func() {
	ids := slices.Clone(projectIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)

	held := make([]*projectLock, 0, len(ids))
	for _, id := range ids {
		pl := l.acquire(id)
		pl.mu.Lock()
		held = append(held, pl)
	}

	return func() {
		for i := len(held) - 1; i >= 0; i-- {
			held[i].mu.Unlock()
			l.release(ids[i], held[i])
		}
	}
}

func (l *ProjectLocks) acquire(id uint64) *projectLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	pl, ok := l.locks[id]
	if !ok {
		pl = &projectLock{}
		l.locks[id] = pl
	}
	pl.refs++
	return pl
}

func (l *ProjectLocks) release(id uint64, pl *projectLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	pl.refs--
	if pl.refs == 0 {
		delete(l.locks, id)
	}
}

func (l *ProjectLocks) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
