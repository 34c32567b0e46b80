package orchestrator

import (
	"context"
	"log/slog"
	"time"

	"slideforge/internal/core"
)

// step outcomes, recorded as metric labels so the fallback policy is
// observable as data.
const (
	outcomeSuccess     = "success"
	outcomeQuotaSkip   = "quota_skipped"
	outcomeQuotaRemote = "quota_exhausted"
	outcomeTimeout     = "timeout"
	outcomeUnreachable = "unreachable"
	outcomeMalformed   = "malformed"
	outcomeInvalid     = "invalid"
	outcomeSynthesized = "synthesized"
)

// runChain walks the provider chain in priority order. For each candidate:
// local quota check (no network call on denial), bounded invocation, decode,
// structural validation. A malformed response from a reachable provider
// resolves to deterministic local synthesis instead of cascading, because a
// malformed-but-reachable provider is not a quota problem. The first
// structurally valid artifact wins.
func (o *Orchestrator) runChain(ctx context.Context, req *core.GenerationRequest) (*core.GeneratedArtifact, error) {
	start := time.Now()

	for _, p := range o.chain {
		name := p.Name()

		// The offline adapter performs no network call; quota never gates
		// the chain's terminal step.
		if name != core.OfflineProviderName && !o.quota.TryAcquire(name) {
			o.metrics.RecordProviderCall(name, outcomeQuotaSkip)
			continue
		}

		callCtx, cancel := context.WithTimeout(ctx, o.opts.CallTimeout)
		raw, err := p.Generate(callCtx, req)
		cancel()

		if err != nil {
			outcome := classify(err)
			o.metrics.RecordProviderCall(name, outcome)

			if outcome == outcomeMalformed {
				// Reachable provider, undecodable envelope: synthesize
				// locally rather than spending the next provider's quota.
				o.quota.MarkSuccess(name)
				return o.synthesize(req, name, start), nil
			}

			o.quota.MarkFailure(name)
			slog.Warn("provider failed, advancing chain",
				"provider", name, "outcome", outcome, "error", err)

			// An expired chain budget aborts the walk, not just this
			// provider.
			if ctx.Err() != nil {
				return nil, core.NewProviderTimeoutError(name, ctx.Err())
			}
			continue
		}

		o.quota.MarkSuccess(name)

		artifact, derr := core.DecodeArtifact(raw, req)
		if derr != nil {
			o.metrics.RecordProviderCall(name, outcomeMalformed)
			slog.Warn("provider response undecodable, synthesizing locally",
				"provider", name, "error", derr)
			return o.synthesize(req, name, start), nil
		}

		if verr := artifact.Validate(); verr != nil {
			o.metrics.RecordProviderCall(name, outcomeInvalid)
			o.quota.MarkFailure(name)
			slog.Warn("artifact failed validation, advancing chain",
				"provider", name, "error", verr)
			continue
		}

		elapsed := time.Since(start)
		artifact.Provenance = core.Provenance{
			Provider:    name,
			Fallback:    name == core.OfflineProviderName,
			LatencyMS:   elapsed.Milliseconds(),
			GeneratedAt: time.Now().UTC(),
		}
		o.metrics.RecordProviderCall(name, outcomeSuccess)
		o.metrics.RecordGeneration(name, elapsed.Seconds())
		return artifact, nil
	}

	return nil, core.NewProvidersExhaustedError()
}

// synthesize produces the deterministic local artifact used when a reachable
// provider returns undecodable content.
func (o *Orchestrator) synthesize(req *core.GenerationRequest, provider string, start time.Time) *core.GeneratedArtifact {
	artifact := core.SynthesizeFallback(req)
	artifact.Provenance = core.Provenance{
		Provider:    provider,
		Fallback:    true,
		LatencyMS:   time.Since(start).Milliseconds(),
		GeneratedAt: time.Now().UTC(),
	}
	o.metrics.RecordProviderCall(provider, outcomeSynthesized)
	return artifact
}

// classify maps a provider error to its outcome label.
func classify(err error) string {
	switch {
	case core.IsErrorType(err, core.ErrorTypeQuotaExhausted):
		return outcomeQuotaRemote
	case core.IsErrorType(err, core.ErrorTypeProviderTimeout):
		return outcomeTimeout
	case core.IsErrorType(err, core.ErrorTypeMalformedResponse):
		return outcomeMalformed
	default:
		return outcomeUnreachable
	}
}
