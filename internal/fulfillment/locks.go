package fulfillment

import "sync"

// itemLocks hands out one mutex per item name so check-then-append
// sequences for the same item serialize while different items proceed in
// parallel. Locks are never released from the map; the catalog is small
// and fixed.
type itemLocks struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func newItemLocks() *itemLocks {
	return &itemLocks{locks: make(map[string]*sync.Mutex)}
}

// lock acquires the mutex for name and returns its unlock func.
func (l *itemLocks) lock(name string) func() {
	l.mu.Lock()
	m, ok := l.locks[name]
	if !ok {
		m = &sync.Mutex{}
		l.locks[name] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock
}
