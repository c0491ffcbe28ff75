// Package cache memoizes translator output per command text. Parsing is
// a pure function of the text, so a repeated command inside the TTL must
// not cost another model call.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     interface{}
	expiresAt time.Time
}

// Cache is an in-process TTL map. Expired entries are dropped on the
// next lookup of their key.
type Cache struct {
	mu    sync.Mutex
	items map[string]entry
}

// New creates a new empty cache
func New() *Cache {
	return &Cache{items: map[string]entry{}}
}

// Set stores a value under the key. A non-positive TTL stores nothing.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = entry{value: value, expiresAt: time.Now().Add(ttl)}
}

// Get returns the live value for the key, evicting it if expired.
func (c *Cache) Get(key string) (interface{}, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.items[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(e.expiresAt) {
		delete(c.items, key)
		return nil, false
	}
	return e.value, true
}

// Len reports the number of stored entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
