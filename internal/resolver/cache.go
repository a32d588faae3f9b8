package resolver

import "sync"

// ProbeCache remembers (host, port) pairs that accepted a TCP connection.
// Only successes are stored: failures are often transient or load-order
// dependent at process startup, so they must be re-probed on every call.
// Entries are never evicted or expired; the cache grows monotonically and
// lives as long as its owner keeps it.
type ProbeCache struct {
	mu   sync.RWMutex
	hits map[string]bool
}

// NewProbeCache creates an empty probe cache.
func NewProbeCache() *ProbeCache {
	return &ProbeCache{
		hits: make(map[string]bool),
	}
}

// Hit reports whether key has a cached successful probe.
func (c *ProbeCache) Hit(key string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits[key]
}

// Put records a successful probe for key. Writes are idempotent: a key only
// ever maps to true once recorded, so concurrent probes of the same key may
// race harmlessly.
func (c *ProbeCache) Put(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.hits[key] = true
}

// Len returns the number of cached successes.
func (c *ProbeCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.hits)
}
