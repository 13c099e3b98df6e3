package cache

import (
	"strings"
	"sync"
	"time"
)

// Cache is a TTL cache keyed by normalized query text. Writes are idempotent
// replacements, so concurrent use needs no coordination beyond the internal
// lock. Eviction runs opportunistically on write when the cache is over
// capacity: expired entries are removed first, then the oldest by timestamp.
// There is no background sweep.
type Cache[T any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[T]
	ttl        time.Duration
	maxEntries int

	now func() time.Time
}

type entry[T any] struct {
	value   T
	written time.Time
}

// New creates a cache holding at most maxEntries values for ttl each.
func New[T any](ttl time.Duration, maxEntries int) *Cache[T] {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &Cache[T]{
		entries:    make(map[string]entry[T]),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached value for key if present and not expired.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok || c.now().Sub(e.written) > c.ttl {
		var zero T
		return zero, false
	}
	return e.value, true
}

// Set stores value under key, evicting if the cache is over capacity.
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry[T]{value: value, written: c.now()}
	if len(c.entries) <= c.maxEntries {
		return
	}

	// Expired entries go first.
	for k, e := range c.entries {
		if c.now().Sub(e.written) > c.ttl {
			delete(c.entries, k)
		}
	}

	// Still over capacity: drop oldest by timestamp.
	for len(c.entries) > c.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for k, e := range c.entries {
			if oldestKey == "" || e.written.Before(oldest) {
				oldestKey = k
				oldest = e.written
			}
		}
		delete(c.entries, oldestKey)
	}
}

// Len returns the current number of entries, expired or not.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// NormalizeKey builds a cache key from parts: lowercased, whitespace
// collapsed, joined by "|".
func NormalizeKey(parts ...string) string {
	normalized := make([]string, 0, len(parts))
	for _, p := range parts {
		normalized = append(normalized, strings.Join(strings.Fields(strings.ToLower(p)), " "))
	}
	return strings.Join(normalized, "|")
}
