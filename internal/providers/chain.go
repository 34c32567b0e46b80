package providers

import (
	"fmt"
	"log/slog"
	"net/http"

	"slideforge/config"
	"slideforge/internal/core"
)

// BuildChain assembles the ordered fallback chain from configuration.
// Providers appear in priority order; when includeOffline is true the
// deterministic offline adapter is appended so the chain cannot exhaust.
func BuildChain(order []string, cfgs map[string]config.ProviderConfig, client *http.Client, includeOffline bool) ([]core.Provider, error) {
	var chain []core.Provider
	for _, name := range order {
		pc, ok := cfgs[name]
		if !ok {
			continue
		}
		p, err := Create(name, Config{
			APIKey:  pc.APIKey,
			BaseURL: pc.BaseURL,
			Client:  client,
		})
		if err != nil {
			return nil, fmt.Errorf("build provider %s: %w", name, err)
		}
		chain = append(chain, p)
		slog.Info("provider configured", "provider", name, "daily_cap", pc.DailyCap)
	}

	if includeOffline {
		offline, err := Create("offline", Config{})
		if err != nil {
			return nil, fmt.Errorf("build offline fallback: %w", err)
		}
		chain = append(chain, offline)
	}

	if len(chain) == 0 {
		return nil, fmt.Errorf("no providers configured")
	}
	return chain, nil
}
