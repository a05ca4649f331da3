// Package sync keeps the in-process view of the remote store consistent:
// full-state fetch, chunked writes, and change-feed driven refresh.
package sync

import (
	gosync "sync"

	"chaplaincy-data/internal/domain"
)

// Cache is the one shared, process-wide resource: the latest complete
// snapshot. Any number of readers may hold it concurrently; writers never
// mutate it in place, they only swap in a fresh snapshot wholesale. The cache
// is never authoritative for conflict resolution: every write is followed by
// a refresh instead of a local merge.
type Cache struct {
	mu   gosync.RWMutex
	snap *domain.Snapshot
}

func NewCache() *Cache {
	return &Cache{}
}

// Snapshot returns the last complete snapshot, or nil before the first
// successful sync. Callers must treat it as read-only.
func (c *Cache) Snapshot() *domain.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap
}

// Replace atomically publishes a fresh snapshot.
func (c *Cache) Replace(snap *domain.Snapshot) {
	c.mu.Lock()
	c.snap = snap
	c.mu.Unlock()
}
