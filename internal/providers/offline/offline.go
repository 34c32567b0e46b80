// Package offline provides the terminal fallback adapter. It performs no
// network calls and always succeeds with a deterministic minimal artifact,
// which makes total chain exhaustion unreachable for callers that enable it.
package offline

import (
	"context"
	"encoding/json"
	"fmt"

	"slideforge/internal/core"
	"slideforge/internal/providers"
)

// Name is the provider identifier used in quota state and provenance.
const Name = core.OfflineProviderName

func init() {
	providers.Register(Name, New)
}

// Provider implements core.Provider without any backend.
type Provider struct{}

// New creates the offline adapter. Configuration is ignored.
func New(providers.Config) core.Provider {
	return &Provider{}
}

func (p *Provider) Name() string { return Name }

// Generate synthesizes a minimal valid document and returns it in the same
// wire shape remote providers produce, so the orchestrator's decode path
// stays uniform. An error here indicates a logic defect, never an
// environment issue.
func (p *Provider) Generate(_ context.Context, req *core.GenerationRequest) (string, error) {
	artifact := core.SynthesizeFallback(req)

	doc := map[string]any{
		"title": artifact.Title,
		"cards": artifact.Blocks,
	}
	data, err := json.Marshal(doc)
	if err != nil {
		return "", fmt.Errorf("offline synthesis failed: %w", err)
	}
	return string(data), nil
}
