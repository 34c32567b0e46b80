package scheduler

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"slideforge/internal/core"
	"slideforge/internal/storage"
)

// fakeGenerator scripts which items resolve to the offline fallback and
// which fail outright.
type fakeGenerator struct {
	calls        atomic.Int32
	fallbackEach int // every Nth call is fallback-sourced
	failEach     int // every Nth call fails with a non-fatal error
	fatal        bool
	block        chan struct{} // when set, Generate waits here
}

func (g *fakeGenerator) GenerateUnmetered(ctx context.Context, req *core.GenerationRequest) (*core.GeneratedArtifact, error) {
	n := int(g.calls.Add(1))
	if g.block != nil {
		<-g.block
	}
	if g.fatal {
		return nil, core.NewProvidersExhaustedError()
	}
	if g.failEach > 0 && n%g.failEach == 0 {
		return nil, core.NewProviderTimeoutError("gemini", context.DeadlineExceeded)
	}
	artifact := core.SynthesizeFallback(req)
	artifact.Provenance = core.Provenance{
		Provider:    "gemini",
		Fallback:    g.fallbackEach > 0 && n%g.fallbackEach == 0,
		GeneratedAt: time.Now().UTC(),
	}
	return artifact, nil
}

type fakeTopics struct {
	n      int
	source core.TopicSource
}

func (f *fakeTopics) Fetch(ctx context.Context) []core.TrendingTopic {
	topics := make([]core.TrendingTopic, f.n)
	for i := range topics {
		topics[i] = core.TrendingTopic{
			Topic:     "topic " + string(rune('a'+i)),
			Source:    f.source,
			FetchedAt: time.Now().UTC(),
		}
	}
	return topics
}

type fakeStore struct {
	saved atomic.Int32
}

func (s *fakeStore) SaveArtifact(ctx context.Context, artifact *core.GeneratedArtifact, meta storage.ArtifactMeta) (string, error) {
	s.saved.Add(1)
	return artifact.ID, nil
}

func TestCyclePersistsBatchAndCountsFallbacks(t *testing.T) {
	gen := &fakeGenerator{fallbackEach: 3} // items 3, 6, 9 are fallback-sourced
	store := &fakeStore{}
	loop := New(gen, &fakeTopics{n: 12, source: core.SourceLive}, store, Config{
		BatchSize: 9,
		Interval:  time.Hour,
	}, nil)

	if err := loop.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	if store.saved.Load() != 9 {
		t.Errorf("persisted %d artifacts, want 9", store.saved.Load())
	}

	summary := loop.LastCycle()
	if summary == nil {
		t.Fatal("no cycle summary recorded")
	}
	if summary.Persisted != 9 {
		t.Errorf("summary.Persisted = %d, want 9", summary.Persisted)
	}
	if summary.Fallback != 3 {
		t.Errorf("summary.Fallback = %d, want 3", summary.Fallback)
	}
	if summary.Failed != 0 {
		t.Errorf("summary.Failed = %d, want 0", summary.Failed)
	}
	if summary.TopicSource != string(core.SourceLive) {
		t.Errorf("summary.TopicSource = %q, want live", summary.TopicSource)
	}
}

func TestItemFailuresAreIsolated(t *testing.T) {
	gen := &fakeGenerator{failEach: 4} // items 4 and 8 fail
	store := &fakeStore{}
	loop := New(gen, &fakeTopics{n: 9, source: core.SourceFallback}, store, Config{
		BatchSize: 9,
		Interval:  time.Hour,
	}, nil)

	if err := loop.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}

	summary := loop.LastCycle()
	if summary.Failed != 2 {
		t.Errorf("summary.Failed = %d, want 2", summary.Failed)
	}
	if summary.Persisted != 7 {
		t.Errorf("summary.Persisted = %d, want 7", summary.Persisted)
	}
	if store.saved.Load() != 7 {
		t.Errorf("persisted %d artifacts, want 7", store.saved.Load())
	}
}

func TestOfflineFailureHaltsLoop(t *testing.T) {
	gen := &fakeGenerator{fatal: true}
	loop := New(gen, &fakeTopics{n: 5, source: core.SourceLive}, &fakeStore{}, Config{
		BatchSize: 5,
		Interval:  time.Hour,
	}, nil)

	err := loop.RunOnce(context.Background())
	if err == nil {
		t.Fatal("total chain exhaustion must halt the loop")
	}
	if !core.IsErrorType(err, core.ErrorTypeProvidersExhausted) {
		t.Errorf("halt error should wrap the exhaustion cause, got %v", err)
	}
	if loop.State() != StateStopped {
		t.Errorf("state = %q, want stopped", loop.State())
	}
}

func TestStopIsCheckedBetweenItems(t *testing.T) {
	gen := &fakeGenerator{block: make(chan struct{})}
	store := &fakeStore{}
	loop := New(gen, &fakeTopics{n: 9, source: core.SourceLive}, store, Config{
		BatchSize: 9,
		Interval:  time.Hour,
		ItemPause: time.Hour,
	}, nil)

	loop.Start(context.Background())

	// Wait for the loop to enter the first item.
	deadline := time.After(2 * time.Second)
	for gen.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("loop never started generating")
		case <-time.After(time.Millisecond):
		}
	}

	// Release the first item, then stop. The item pause between items is
	// where the stop signal must be observed; the loop exits after the
	// in-flight item rather than finishing the batch.
	close(gen.block)
	loop.Stop()

	if loop.State() != StateStopped {
		t.Errorf("state = %q, want stopped", loop.State())
	}
	if n := gen.calls.Load(); n != 1 {
		t.Errorf("loop generated %d items, want 1: shutdown is bounded by one item", n)
	}
	summary := loop.LastCycle()
	if summary == nil || summary.Persisted != 1 {
		t.Errorf("interrupted cycle should still report the completed item, got %+v", summary)
	}
}

func TestEmptyTopicListSkipsCycle(t *testing.T) {
	store := &fakeStore{}
	loop := New(&fakeGenerator{}, &fakeTopics{n: 0}, store, Config{BatchSize: 9, Interval: time.Hour}, nil)

	if err := loop.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if store.saved.Load() != 0 {
		t.Error("no topics should mean no persists")
	}
	if loop.LastCycle() != nil {
		t.Error("skipped cycle should not record a summary")
	}
}

func TestBatchSizeCappedByTopicCount(t *testing.T) {
	store := &fakeStore{}
	loop := New(&fakeGenerator{}, &fakeTopics{n: 4, source: core.SourceLive}, store, Config{
		BatchSize: 9,
		Interval:  time.Hour,
	}, nil)

	if err := loop.RunOnce(context.Background()); err != nil {
		t.Fatalf("RunOnce failed: %v", err)
	}
	if store.saved.Load() != 4 {
		t.Errorf("persisted %d, want 4 when only 4 topics exist", store.saved.Load())
	}
}
