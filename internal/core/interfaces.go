package core

import "context"

// OfflineProviderName identifies the deterministic fallback adapter in
// provenance. The adapter is exempt from quota gating: it makes no network
// call and must stay reachable as the chain's terminal step.
const OfflineProviderName = "offline"

// Provider is the uniform interface over external generation backends.
// Generate returns the provider's raw text response; the orchestrator owns
// decoding and validation so that a malformed-but-reachable provider can be
// handled differently from an unreachable one.
//
// Implementations must classify failures into the core error taxonomy
// (timeout, unreachable, quota) via the constructors in errors.go.
type Provider interface {
	// Name returns the stable provider identifier used for quota tracking
	// and provenance.
	Name() string

	// Generate executes one generation call with a bounded deadline taken
	// from ctx.
	Generate(ctx context.Context, req *GenerationRequest) (string, error)
}

// AvailabilityChecker is an optional interface for providers that can verify
// their backend is reachable before being placed in the chain.
type AvailabilityChecker interface {
	CheckAvailability(ctx context.Context) error
}
