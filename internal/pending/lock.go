package pending

import (
	"sync"
)

// GUIDLock provides per-release locking so that overlapping re-evaluation
// runs never process the same pending release twice.
type GUIDLock struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

// NewGUIDLock creates a new GUIDLock.
func NewGUIDLock() *GUIDLock {
	return &GUIDLock{
		locks: make(map[string]struct{}),
	}
}

// TryAcquire attempts to lock the release GUID.
// Returns true if the lock was acquired, false if already held.
func (g *GUIDLock) TryAcquire(guid string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, held := g.locks[guid]; held {
		return false
	}
	g.locks[guid] = struct{}{}
	return true
}

// Release unlocks the release GUID.
func (g *GUIDLock) Release(guid string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.locks, guid)
}

// Held reports how many GUIDs are currently locked.
func (g *GUIDLock) Held() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.locks)
}
