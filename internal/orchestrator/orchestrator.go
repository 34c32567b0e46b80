// Package orchestrator composes admission control, the response cache, the
// provider fallback chain, validation, and credit commitment into the single
// generate operation both the gateway and the scheduler drive.
package orchestrator

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"slideforge/internal/cache"
	"slideforge/internal/core"
	"slideforge/internal/credits"
	"slideforge/internal/observability"
	"slideforge/internal/quota"
)

// DefaultCallTimeout bounds a single provider invocation.
const DefaultCallTimeout = 8 * time.Second

// CostFunc returns the credit cost of generating a content kind.
type CostFunc func(kind core.ContentKind) int

// Options tunes an Orchestrator.
type Options struct {
	// CacheTTL is how long generated artifacts stay cached. Zero disables
	// cache writes.
	CacheTTL time.Duration

	// CallTimeout bounds each provider invocation. Defaults to
	// DefaultCallTimeout.
	CallTimeout time.Duration

	// Cost maps content kinds to credit costs. Defaults to a flat cost of 5.
	Cost CostFunc

	// Metrics receives instrumentation. Nil records nothing.
	Metrics *observability.Metrics
}

// Orchestrator is a pure coordinator: it owns no persistent state, only the
// injected collaborators, which is what makes it testable without live
// providers.
type Orchestrator struct {
	chain   []core.Provider
	cache   cache.Cache
	ledger  *credits.Ledger
	quota   *quota.Tracker
	opts    Options
	metrics *observability.Metrics

	// group collapses concurrent identical requests into one chain run.
	group singleflight.Group
}

// New creates an orchestrator over a fixed-priority provider chain.
// The ledger may be nil only if every call goes through GenerateUnmetered.
func New(chain []core.Provider, responseCache cache.Cache, ledger *credits.Ledger, tracker *quota.Tracker, opts Options) *Orchestrator {
	if opts.CallTimeout <= 0 {
		opts.CallTimeout = DefaultCallTimeout
	}
	if opts.Cost == nil {
		opts.Cost = func(core.ContentKind) int { return 5 }
	}
	return &Orchestrator{
		chain:   chain,
		cache:   responseCache,
		ledger:  ledger,
		quota:   tracker,
		opts:    opts,
		metrics: opts.Metrics,
	}
}

// Generate runs the full metered pipeline: fingerprint, cache lookup, credit
// reserve, provider chain, validation, cache write, credit commit. A cache
// hit short-circuits before any credit charge. On total chain failure the
// hold is released; holds never leak, including on caller-supplied timeout.
func (o *Orchestrator) Generate(ctx context.Context, req *core.GenerationRequest, principal string) (*core.GeneratedArtifact, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	fp := core.Fingerprint(req)
	if artifact, ok := o.cache.Get(ctx, fp); ok {
		o.metrics.RecordCacheLookup(true)
		artifact.Provenance.CacheHit = true
		artifact.Provenance.LatencyMS = 0
		return artifact, nil
	}
	o.metrics.RecordCacheLookup(false)

	cost := o.opts.Cost(req.Kind)
	hold, err := o.ledger.Reserve(ctx, principal, cost)
	if err != nil {
		return nil, err
	}

	artifact, err := o.runChainShared(ctx, fp, req)
	if err != nil {
		if relErr := o.ledger.Release(ctx, hold); relErr != nil {
			slog.Error("failed to release credit hold", "principal", principal, "error", relErr)
		}
		return nil, err
	}

	o.cache.Put(ctx, fp, artifact, o.opts.CacheTTL)
	if err := o.ledger.Commit(ctx, hold); err != nil {
		// The artifact exists and is cached; surface the accounting failure
		// rather than discarding the work.
		slog.Error("credit commit failed after successful generation", "principal", principal, "error", err)
		return artifact, nil
	}
	o.metrics.RecordCreditsCommitted(cost)
	return artifact, nil
}

// GenerateUnmetered runs the pipeline without credit admission. Used by the
// scheduler loop, which is gated by the process-owned quota tracker instead
// of the ledger.
func (o *Orchestrator) GenerateUnmetered(ctx context.Context, req *core.GenerationRequest) (*core.GeneratedArtifact, error) {
	if err := checkRequest(req); err != nil {
		return nil, err
	}

	fp := core.Fingerprint(req)
	if artifact, ok := o.cache.Get(ctx, fp); ok {
		o.metrics.RecordCacheLookup(true)
		artifact.Provenance.CacheHit = true
		artifact.Provenance.LatencyMS = 0
		return artifact, nil
	}
	o.metrics.RecordCacheLookup(false)

	artifact, err := o.runChainShared(ctx, fp, req)
	if err != nil {
		return nil, err
	}
	o.cache.Put(ctx, fp, artifact, o.opts.CacheTTL)
	return artifact, nil
}

// Stats exposes the operational counters for the status surface.
func (o *Orchestrator) Stats() Stats {
	providers := make([]string, 0, len(o.chain))
	for _, p := range o.chain {
		providers = append(providers, p.Name())
	}
	return Stats{
		Cache:  o.cache.Stats(),
		Quotas: o.quota.Snapshot(providers...),
	}
}

// Stats is a point-in-time view of the orchestrator's collaborators.
type Stats struct {
	Cache  cache.Stats          `json:"cache"`
	Quotas []quota.ProviderState `json:"quotas"`
}

func checkRequest(req *core.GenerationRequest) error {
	if req == nil || req.Prompt == "" {
		return core.NewInvalidRequestError("prompt is required")
	}
	if !req.Kind.Valid() {
		return core.NewInvalidRequestError("unrecognized content kind")
	}
	if req.CardCount <= 0 {
		return core.NewInvalidRequestError("card count must be positive")
	}
	return nil
}

// runChainShared collapses concurrent callers with the same fingerprint onto
// one chain run. The run is detached from any single caller's context so one
// collapsed caller's deadline cannot abort work the others are waiting on;
// each caller waits on the shared result under its own context and times out
// independently. Duplicate callers get a deep copy so no two callers share an
// artifact pointer.
func (o *Orchestrator) runChainShared(ctx context.Context, fp string, req *core.GenerationRequest) (*core.GeneratedArtifact, error) {
	ch := o.group.DoChan(fp, func() (any, error) {
		budget := o.opts.CallTimeout * time.Duration(len(o.chain)+1)
		runCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), budget)
		defer cancel()
		return o.runChain(runCtx, req)
	})

	select {
	case <-ctx.Done():
		return nil, core.NewProviderTimeoutError("", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		artifact := res.Val.(*core.GeneratedArtifact)
		if res.Shared {
			return cloneArtifact(artifact), nil
		}
		return artifact, nil
	}
}

func cloneArtifact(a *core.GeneratedArtifact) *core.GeneratedArtifact {
	data, err := json.Marshal(a)
	if err != nil {
		return a
	}
	var out core.GeneratedArtifact
	if err := json.Unmarshal(data, &out); err != nil {
		return a
	}
	return &out
}
