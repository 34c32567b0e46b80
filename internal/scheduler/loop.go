// Package scheduler runs the autonomous generation loop. Every cycle it
// ingests trending topics, synthesizes a batch of prompts, drives each one
// through the orchestrator, and persists the results. Item failures are
// isolated; only an offline-adapter failure halts the loop.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"slideforge/internal/core"
	"slideforge/internal/observability"
	"slideforge/internal/seo"
	"slideforge/internal/storage"
)

// State names the loop's position in its cycle.
type State string

const (
	StateIdle         State = "idle"
	StateIngesting    State = "ingesting"
	StateSynthesizing State = "synthesizing"
	StateGenerating   State = "generating"
	StatePersisting   State = "persisting"
	StateSleeping     State = "sleeping"
	StateStopped      State = "stopped"
)

// Generator is the orchestration surface the loop drives. The loop bypasses
// the credit ledger; the process owns its own quota budget instead.
type Generator interface {
	GenerateUnmetered(ctx context.Context, req *core.GenerationRequest) (*core.GeneratedArtifact, error)
}

// TopicSource supplies the topics for a cycle. Implementations never fail;
// they degrade to a curated fallback list.
type TopicSource interface {
	Fetch(ctx context.Context) []core.TrendingTopic
}

// Persister is the slice of the storage contract the loop needs.
type Persister interface {
	SaveArtifact(ctx context.Context, artifact *core.GeneratedArtifact, meta storage.ArtifactMeta) (string, error)
}

// Config tunes the loop.
type Config struct {
	// BatchSize is the number of prompts generated per cycle.
	BatchSize int

	// Interval is the sleep between cycles.
	Interval time.Duration

	// ItemPause is the pause between items within a cycle, spacing out
	// provider calls.
	ItemPause time.Duration
}

// CycleSummary reports one completed cycle for the status surface.
type CycleSummary struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	TopicSource string    `json:"topic_source"`
	Persisted   int       `json:"persisted"`
	Fallback    int       `json:"fallback"`
	Failed      int       `json:"failed"`
}

// Loop is the autonomous scheduler. Construct with New, drive with Run or
// Start/Stop.
type Loop struct {
	generator Generator
	topics    TopicSource
	store     Persister
	cfg       Config
	metrics   *observability.Metrics
	logger    *slog.Logger

	mu    sync.Mutex
	state State
	last  *CycleSummary

	stop chan struct{}
	done chan struct{}
}

// New creates a Loop. Zero-value config fields get working defaults.
func New(generator Generator, topics TopicSource, store Persister, cfg Config, metrics *observability.Metrics) *Loop {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 9
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Hour
	}
	return &Loop{
		generator: generator,
		topics:    topics,
		store:     store,
		cfg:       cfg,
		metrics:   metrics,
		logger:    slog.Default().With("component", "scheduler"),
		state:     StateIdle,
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// State returns the loop's current state.
func (l *Loop) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// LastCycle returns a copy of the most recent completed cycle summary, or
// nil before the first cycle finishes.
func (l *Loop) LastCycle() *CycleSummary {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.last == nil {
		return nil
	}
	summary := *l.last
	return &summary
}

// Start runs the loop in its own goroutine. Use Stop to shut it down.
func (l *Loop) Start(ctx context.Context) {
	go func() {
		if err := l.Run(ctx); err != nil {
			l.logger.Error("scheduler halted", "error", err)
		}
	}()
}

// Stop signals the loop to stop and waits for it to finish the in-flight
// item. Safe to call once.
func (l *Loop) Stop() {
	close(l.stop)
	<-l.done
}

// RunOnce executes a single cycle and returns. Useful for cron-style
// deployments and smoke tests.
func (l *Loop) RunOnce(ctx context.Context) error {
	defer close(l.done)
	defer l.setState(StateStopped)
	return l.runCycle(ctx)
}

// Run executes cycles until the context is cancelled or Stop is called.
// It returns a non-nil error only on the fatal condition: the offline
// adapter failing to produce an artifact, which indicates a defect rather
// than a transient environment problem.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.done)
	defer l.setState(StateStopped)

	for {
		if err := l.runCycle(ctx); err != nil {
			return err
		}
		l.setState(StateSleeping)
		select {
		case <-ctx.Done():
			return nil
		case <-l.stop:
			return nil
		case <-time.After(l.cfg.Interval):
		}
	}
}

func (l *Loop) runCycle(ctx context.Context) error {
	summary := CycleSummary{StartedAt: time.Now().UTC()}

	l.setState(StateIngesting)
	topics := l.topics.Fetch(ctx)
	if len(topics) == 0 {
		l.logger.Warn("cycle skipped, no topics available")
		return nil
	}
	summary.TopicSource = string(topics[0].Source)

	l.setState(StateSynthesizing)
	prompts := l.synthesizeBatch(topics)
	l.logger.Info("cycle starting",
		"topics", len(topics),
		"batch", len(prompts),
		"source", summary.TopicSource,
	)

	for i, prompt := range prompts {
		if l.stopped(ctx) {
			l.finishCycle(&summary)
			return nil
		}
		if i > 0 && l.cfg.ItemPause > 0 {
			select {
			case <-ctx.Done():
				l.finishCycle(&summary)
				return nil
			case <-l.stop:
				l.finishCycle(&summary)
				return nil
			case <-time.After(l.cfg.ItemPause):
			}
		}

		if err := l.runItem(ctx, prompt, &summary); err != nil {
			l.finishCycle(&summary)
			return err
		}
	}

	l.finishCycle(&summary)
	return nil
}

// runItem generates and persists a single prompt. Item failures increment
// the summary and return nil; only total chain exhaustion is fatal, since
// the offline adapter sits at the end of the chain and never fails by
// contract.
func (l *Loop) runItem(ctx context.Context, prompt seo.Prompt, summary *CycleSummary) error {
	l.setState(StateGenerating)
	artifact, err := l.generator.GenerateUnmetered(ctx, prompt.BuildRequest())
	if err != nil {
		if core.IsErrorType(err, core.ErrorTypeProvidersExhausted) {
			return fmt.Errorf("offline adapter failed for topic %q: %w", prompt.Topic, err)
		}
		l.logger.Error("item failed", "topic", prompt.Topic, "error", err)
		summary.Failed++
		l.metrics.RecordCycleItem("failed")
		return nil
	}

	l.setState(StatePersisting)
	meta := storage.ArtifactMeta{
		Title:       prompt.Title,
		Description: prompt.Description,
		Category:    prompt.Category,
		Keywords:    prompt.Keywords,
		TrendSource: summary.TopicSource,
		Style:       prompt.Style,
		Fallback:    artifact.Provenance.Fallback,
	}
	id, err := l.store.SaveArtifact(ctx, artifact, meta)
	if err != nil {
		l.logger.Error("persist failed", "topic", prompt.Topic, "error", err)
		summary.Failed++
		l.metrics.RecordCycleItem("failed")
		return nil
	}

	summary.Persisted++
	if artifact.Provenance.Fallback {
		summary.Fallback++
		l.metrics.RecordCycleItem("fallback")
	} else {
		l.metrics.RecordCycleItem("persisted")
	}
	l.logger.Info("item persisted",
		"id", id,
		"topic", prompt.Topic,
		"provider", artifact.Provenance.Provider,
		"fallback", artifact.Provenance.Fallback,
	)
	return nil
}

// synthesizeBatch turns topics into at most BatchSize prompts, rotating
// through the style list so consecutive items vary visually.
func (l *Loop) synthesizeBatch(topics []core.TrendingTopic) []seo.Prompt {
	n := l.cfg.BatchSize
	if n > len(topics) {
		n = len(topics)
	}
	prompts := make([]seo.Prompt, 0, n)
	for i := 0; i < n; i++ {
		style := seo.Styles[i%len(seo.Styles)]
		prompts = append(prompts, seo.Synthesize(topics[i].Topic, style))
	}
	return prompts
}

func (l *Loop) finishCycle(summary *CycleSummary) {
	summary.FinishedAt = time.Now().UTC()
	l.mu.Lock()
	l.last = summary
	l.mu.Unlock()
	l.metrics.RecordCycle()
	l.logger.Info("cycle complete",
		"persisted", summary.Persisted,
		"fallback", summary.Fallback,
		"failed", summary.Failed,
		"duration", summary.FinishedAt.Sub(summary.StartedAt).Round(time.Millisecond),
	)
}

func (l *Loop) stopped(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	case <-l.stop:
		return true
	default:
		return false
	}
}

func (l *Loop) setState(s State) {
	l.mu.Lock()
	l.state = s
	l.mu.Unlock()
}
