// Package cache provides a small in-memory TTL cache for read-mostly
// entitlement lookups.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value   V
	expires time.Time
}

// TTL is a string-keyed cache with a fixed per-cache TTL. It is safe for
// concurrent use. Expired entries are dropped lazily on read.
type TTL[V any] struct {
	ttl   time.Duration
	mu    sync.RWMutex
	items map[string]entry[V]
}

// NewTTL builds a cache whose entries live for ttl. A non-positive ttl
// disables caching entirely (every Get misses).
func NewTTL[V any](ttl time.Duration) *TTL[V] {
	return &TTL[V]{
		ttl:   ttl,
		items: make(map[string]entry[V]),
	}
}

func (c *TTL[V]) Get(key string) (V, bool) {
	var zero V
	if c == nil || c.ttl <= 0 {
		return zero, false
	}
	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok || time.Now().After(item.expires) {
		if ok {
			c.Invalidate(key)
		}
		return zero, false
	}
	return item.value, true
}

func (c *TTL[V]) Put(key string, value V) {
	if c == nil || c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	c.items[key] = entry[V]{value: value, expires: time.Now().Add(c.ttl)}
	c.mu.Unlock()
}

func (c *TTL[V]) Invalidate(key string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	delete(c.items, key)
	c.mu.Unlock()
}
