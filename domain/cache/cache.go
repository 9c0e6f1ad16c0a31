package cache

import (
	"sync"
	"time"
)

// Cache is a process-local TTL cache with single-writer-per-key semantics.
// Readers may briefly observe stale entries; expired entries are evicted
// lazily on read only, there is no background sweep.
type Cache struct {
	mu    sync.RWMutex
	items map[string]item
}

type item struct {
	value interface{}
	// expiresAt is zero for entries that never expire.
	expiresAt time.Time
}

// NoExpiration marks an entry that never expires.
const NoExpiration time.Duration = 0

// New creates a new cache.
func New() *Cache {
	return &Cache{
		items: make(map[string]item),
	}
}

// Set adds an item to the cache with a specified key, value and expiration.
// A non-positive expiration stores the entry until deleted.
func (c *Cache) Set(key string, value interface{}, expiration time.Duration) {
	var expiresAt time.Time
	if expiration > 0 {
		expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = item{value: value, expiresAt: expiresAt}
}

// Get retrieves the value associated with a key.
// Returns false if the key does not exist or the entry expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.RLock()
	entry, found := c.items[key]
	c.mu.RUnlock()

	if !found {
		return nil, false
	}

	if !entry.expiresAt.IsZero() && time.Now().After(entry.expiresAt) {
		c.Delete(key)
		return nil, false
	}

	return entry.value, true
}

// Delete removes an item from the cache.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}
