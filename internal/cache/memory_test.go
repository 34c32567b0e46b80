package cache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"

	"slideforge/internal/core"
)

func testArtifact(title string) *core.GeneratedArtifact {
	return &core.GeneratedArtifact{
		ID:     "a-1",
		Title:  title,
		Kind:   core.KindPresentation,
		Blocks: []core.Block{{Kind: core.BlockTitle, Title: title}},
	}
}

func TestMemoryCachePutGet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	if _, ok := c.Get(ctx, "fp-1"); ok {
		t.Fatal("empty cache should miss")
	}

	c.Put(ctx, "fp-1", testArtifact("Hello"), time.Minute)
	got, ok := c.Get(ctx, "fp-1")
	if !ok {
		t.Fatal("expected hit after put")
	}
	if got.Title != "Hello" {
		t.Errorf("title = %q, want Hello", got.Title)
	}

	stats := c.Stats()
	if stats.Hits != 1 || stats.Misses != 1 {
		t.Errorf("stats = %+v, want 1 hit 1 miss", stats)
	}
	if ratio := stats.HitRatio(); ratio != 0.5 {
		t.Errorf("hit ratio = %v, want 0.5", ratio)
	}
}

func TestMemoryCacheEntriesAreIsolated(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	c.Put(ctx, "fp-1", testArtifact("Original"), time.Minute)

	first, _ := c.Get(ctx, "fp-1")
	first.Title = "Mutated"
	first.Blocks[0].Title = "Mutated"

	second, _ := c.Get(ctx, "fp-1")
	if second.Title != "Original" || second.Blocks[0].Title != "Original" {
		t.Error("mutating a returned artifact must not affect the cached entry")
	}
}

func TestMemoryCacheTTLExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	c := NewMemoryCache()
	defer c.Close()
	c.SetClock(func() time.Time { return now })

	c.Put(ctx, "fp-1", testArtifact("Short lived"), time.Minute)

	now = now.Add(59 * time.Second)
	if _, ok := c.Get(ctx, "fp-1"); !ok {
		t.Fatal("entry should still be live before TTL")
	}

	now = now.Add(2 * time.Second)
	if _, ok := c.Get(ctx, "fp-1"); ok {
		t.Fatal("expired entry must read as a miss")
	}
}

func TestMemoryCacheReplace(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache()
	defer c.Close()

	c.Put(ctx, "fp-1", testArtifact("First"), time.Minute)
	c.Put(ctx, "fp-1", testArtifact("Second"), time.Minute)

	got, ok := c.Get(ctx, "fp-1")
	if !ok || got.Title != "Second" {
		t.Errorf("last writer should win, got %+v", got)
	}
	if c.Len() != 1 {
		t.Errorf("cache should hold 1 entry, has %d", c.Len())
	}
}

func unreachableRedisClient() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:            "127.0.0.1:1",
		DialTimeout:     100 * time.Millisecond,
		ReadTimeout:     100 * time.Millisecond,
		WriteTimeout:    100 * time.Millisecond,
		MaxRetries:      -1,
		PoolSize:        1,
		MinIdleConns:    0,
		ConnMaxIdleTime: time.Second,
	})
}

// A redis backend pointed at nothing must degrade to misses, never error.
func TestRedisCacheDegradesToMiss(t *testing.T) {
	ctx := context.Background()

	c := NewRedisCacheWithClient(unreachableRedisClient())
	defer c.Close()

	if _, ok := c.Get(ctx, "fp-1"); ok {
		t.Fatal("unreachable backend should miss")
	}
	// Put must not panic or block.
	c.Put(ctx, "fp-1", testArtifact("X"), time.Minute)
	if _, ok := c.Get(ctx, "fp-1"); ok {
		t.Fatal("unreachable backend should keep missing")
	}
	if stats := c.Stats(); stats.Misses != 2 {
		t.Errorf("misses = %d, want 2", stats.Misses)
	}
}
