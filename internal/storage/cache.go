package storage

import (
	"sync"

	"github.com/maruel/ksid"
)

// maxCachedDatabases bounds cache growth. When the limit is hit the whole
// cache resets instead of tracking LRU state; reloads are cheap.
const maxCachedDatabases = 100

// Cache is a read-through cache of entry lists keyed by database ID. Reads
// populate it; every successful mutation explicitly invalidates the mutated
// database. Cached slices are shared, so callers must treat them and the
// entries they hold as immutable.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[ksid.ID][]T
}

// NewCache creates an empty cache.
func NewCache[T any]() *Cache[T] {
	return &Cache[T]{entries: map[ksid.ID][]T{}}
}

// Get returns the cached entries for a database, if present.
func (c *Cache[T]) Get(databaseID ksid.ID) ([]T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	entries, ok := c.entries[databaseID]
	return entries, ok
}

// Set stores the entries for a database.
func (c *Cache[T]) Set(databaseID ksid.ID, entries []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) >= maxCachedDatabases {
		c.entries = map[ksid.ID][]T{}
	}
	c.entries[databaseID] = entries
}

// Invalidate drops the cached entries for a database.
func (c *Cache[T]) Invalidate(databaseID ksid.ID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, databaseID)
}

// InvalidateAll drops everything.
func (c *Cache[T]) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = map[ksid.ID][]T{}
}
