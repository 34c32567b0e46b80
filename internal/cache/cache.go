// Package cache provides the response cache mapping request fingerprints to
// prior generation results. Supports an in-memory backend for single-instance
// deployments and Redis for multi-instance deployments.
//
// The cache is advisory: a miss never blocks, and corruption or backend
// unavailability degrades to "always miss", never to an error.
package cache

import (
	"context"
	"sync/atomic"
	"time"

	"slideforge/internal/core"
)

// Cache defines the interface for response cache storage.
// Implementations must be safe for concurrent use.
type Cache interface {
	// Get returns the cached artifact for a fingerprint, or false on miss.
	// Expired entries are treated as misses.
	Get(ctx context.Context, fingerprint string) (*core.GeneratedArtifact, bool)

	// Put stores an artifact under a fingerprint with the given TTL.
	// Writes are idempotent; last writer wins on a content-addressed key.
	Put(ctx context.Context, fingerprint string, artifact *core.GeneratedArtifact, ttl time.Duration)

	// Stats returns cumulative hit/miss counters.
	Stats() Stats

	// Close releases any resources held by the cache.
	Close() error
}

// Stats holds cumulative cache counters.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
}

// HitRatio returns hits/(hits+misses), or 0 for an unused cache.
func (s Stats) HitRatio() float64 {
	total := s.Hits + s.Misses
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// counters is embedded by implementations to share hit/miss accounting.
type counters struct {
	hits   atomic.Uint64
	misses atomic.Uint64
}

func (c *counters) hit()  { c.hits.Add(1) }
func (c *counters) miss() { c.misses.Add(1) }

func (c *counters) Stats() Stats {
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}
