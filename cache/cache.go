// Package cache implements a time-bounded memoization layer for expensive or
// rate-limited tool calls, keyed by a deterministic function of the tool name
// and its arguments.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a TTL cache safe for concurrent use. Expired entries are evicted
// lazily on lookup, not proactively swept. There is at most one live entry
// per key; concurrent callers for the same uncached key may each compute
// independently (no stampede protection — a per-key mutex would be the
// enhancement if upstream rate limits ever demand it), with the last result
// stored winning.
type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

// New constructs an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[string]entry), now: time.Now}
}

// GetOrCompute returns the live cached value for key, or invokes compute,
// stores its result with expiry now+ttl, and returns it. A compute error is
// returned without caching anything.
func (c *Cache) GetOrCompute(key string, ttl time.Duration, compute func() (string, error)) (string, error) {
	c.mu.Lock()
	if e, ok := c.entries[key]; ok {
		if c.now().Before(e.expiresAt) {
			c.mu.Unlock()
			return e.value, nil
		}
		delete(c.entries, key)
	}
	c.mu.Unlock()

	value, err := compute()
	if err != nil {
		return "", err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: c.now().Add(ttl)}
	c.mu.Unlock()
	return value, nil
}

// Len reports the number of stored entries, expired or not. Intended for
// tests and diagnostics.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Key derives a deterministic cache key from a tool name and its serialized
// arguments.
func Key(name, args string) string {
	sum := sha256.Sum256([]byte(name + "\x00" + args))
	return hex.EncodeToString(sum[:])
}
