// Package cache provides a generic time-to-live cache for slow-changing
// metadata such as the page listing or the template catalogue.
package cache

import (
	"sync"
	"time"
)

// DefaultTTL is the entry lifetime used by New.
const DefaultTTL = 300 * time.Second

type entry[V any] struct {
	value    V
	storedAt time.Time
}

// Cache maps string keys to values of type V. Expired entries are evicted
// lazily on the next access to the same key; there is no capacity bound,
// which keeps the cache suitable for metadata-class data only.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

// New creates a cache with the default TTL.
func New[V any]() *Cache[V] {
	return NewWithTTL[V](DefaultTTL)
}

// NewWithTTL creates a cache whose entries expire after ttl.
func NewWithTTL[V any](ttl time.Duration) *Cache[V] {
	return &Cache[V]{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry[V]),
	}
}

// GetOrFetch returns the cached value for key when present and unexpired,
// otherwise invokes fetch, stores its result, and returns it. Fetch errors
// are returned as-is and nothing is stored.
//
// Concurrent misses on the same key are not deduplicated: the lock is
// released while fetch runs, so two callers may both fetch and the later
// write wins. Acceptable for the read-mostly single-client usage here.
func (c *Cache[V]) GetOrFetch(key string, fetch func() (V, error)) (V, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.now().Sub(e.storedAt) < c.ttl {
			c.mu.Unlock()
			return e.value, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	value, err := fetch()
	if err != nil {
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = entry[V]{value: value, storedAt: c.now()}
	c.mu.Unlock()
	return value, nil
}

// Invalidate removes the entry for key, if any.
func (c *Cache[V]) Invalidate(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}

// InvalidateAll clears every entry.
func (c *Cache[V]) InvalidateAll() {
	c.mu.Lock()
	c.entries = make(map[string]entry[V])
	c.mu.Unlock()
}

// Len reports the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
