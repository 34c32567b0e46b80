package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"slideforge/internal/core"
)

// MemoryCache implements Cache with an in-process TTL map. Suitable for
// single-instance deployments and tests.
type MemoryCache struct {
	counters
	mu      sync.RWMutex
	entries map[string]memoryEntry

	// now is injectable for tests.
	now func() time.Time
}

// Entries are stored serialized so a cached artifact can never be mutated
// through a returned pointer; they are only ever replaced.
type memoryEntry struct {
	data      []byte
	createdAt time.Time
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		now:     time.Now,
	}
}

// SetClock overrides the time source. Tests only.
func (c *MemoryCache) SetClock(now func() time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = now
}

// Get returns a copy of the cached artifact, treating expired or
// undecodable entries as misses.
func (c *MemoryCache) Get(_ context.Context, fingerprint string) (*core.GeneratedArtifact, bool) {
	c.mu.RLock()
	entry, ok := c.entries[fingerprint]
	now := c.now()
	c.mu.RUnlock()

	if !ok || now.After(entry.expiresAt) {
		c.miss()
		return nil, false
	}

	var artifact core.GeneratedArtifact
	if err := json.Unmarshal(entry.data, &artifact); err != nil {
		c.miss()
		return nil, false
	}
	c.hit()
	return &artifact, true
}

// Put replaces the entry for the fingerprint. Serialization failure drops
// the write silently; the cache is advisory.
func (c *MemoryCache) Put(_ context.Context, fingerprint string, artifact *core.GeneratedArtifact, ttl time.Duration) {
	if artifact == nil || ttl <= 0 {
		return
	}
	data, err := json.Marshal(artifact)
	if err != nil {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	now := c.now()
	c.entries[fingerprint] = memoryEntry{
		data:      data,
		createdAt: now,
		expiresAt: now.Add(ttl),
	}
	c.sweepLocked(now)
}

// sweepLocked drops expired entries opportunistically on writes so the map
// does not grow unbounded between reads.
func (c *MemoryCache) sweepLocked(now time.Time) {
	for k, e := range c.entries {
		if now.After(e.expiresAt) {
			delete(c.entries, k)
		}
	}
}

// Len returns the number of live entries. Tests only.
func (c *MemoryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Close is a no-op for the in-memory cache.
func (c *MemoryCache) Close() error { return nil }
