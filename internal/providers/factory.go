// Package providers provides a factory and chain builder for generation
// provider adapters.
package providers

import (
	"fmt"
	"net/http"
	"sort"

	"slideforge/internal/core"
)

// Config holds the resolved settings a builder needs to construct an adapter.
type Config struct {
	APIKey  string
	BaseURL string
	// Client is the shared outbound HTTP client. Nil falls back to
	// http.DefaultClient inside the adapter.
	Client *http.Client
}

// Builder creates a provider instance from configuration.
type Builder func(cfg Config) core.Provider

// registry holds all registered provider builders. Provider packages register
// themselves from init(), triggered by blank imports in the binaries.
var registry = make(map[string]Builder)

// Register makes a provider type constructible by name.
func Register(providerType string, builder Builder) {
	registry[providerType] = builder
}

// Create instantiates a provider by type name.
func Create(providerType string, cfg Config) (core.Provider, error) {
	builder, ok := registry[providerType]
	if !ok {
		return nil, fmt.Errorf("unknown provider type: %s", providerType)
	}
	return builder(cfg), nil
}

// ListRegistered returns all registered provider types, sorted.
func ListRegistered() []string {
	types := make([]string, 0, len(registry))
	for t := range registry {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}
