// Package main is the entry point for the generation gateway server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"slideforge/config"
	"slideforge/internal/cache"
	"slideforge/internal/core"
	"slideforge/internal/credits"
	"slideforge/internal/httpclient"
	"slideforge/internal/logging"
	"slideforge/internal/observability"
	"slideforge/internal/orchestrator"
	"slideforge/internal/providers"
	"slideforge/internal/quota"
	"slideforge/internal/scheduler"
	"slideforge/internal/server"
	"slideforge/internal/storage"
	"slideforge/internal/trends"
	"slideforge/internal/version"

	// Import provider packages to trigger their init() registration
	_ "slideforge/internal/providers/anthropic"
	_ "slideforge/internal/providers/gemini"
	_ "slideforge/internal/providers/groq"
	_ "slideforge/internal/providers/offline"
	_ "slideforge/internal/providers/perplexity"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logging.Setup(cfg.Logging.Format, cfg.Logging.Level)

	slog.Info("starting slideforge",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	if cfg.Server.MasterKey == "" {
		slog.Warn("SECURITY WARNING: SLIDEFORGE_MASTER_KEY not set, unauthenticated access allowed")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	httpClient := httpclient.New(nil)

	responseCache, err := buildCache(cfg)
	if err != nil {
		slog.Error("failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer responseCache.Close()

	store, err := storage.New(ctx, storage.Config{
		Type:          cfg.Storage.Type,
		SQLitePath:    cfg.Storage.SQLitePath,
		PostgresURL:   cfg.Storage.PostgresURL,
		MongoURL:      cfg.Storage.MongoURL,
		MongoDatabase: cfg.Storage.MongoDatabase,
	})
	if err != nil {
		slog.Error("failed to initialize storage", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("storage initialized", "type", cfg.Storage.Type)

	chain, err := providers.BuildChain(cfg.ProviderOrder, cfg.Providers, httpClient, true)
	if err != nil {
		slog.Error("failed to build provider chain", "error", err)
		os.Exit(1)
	}
	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	slog.Info("provider chain ready", "order", names)

	tracker := quota.New(quota.Config{
		Window:           cfg.Quota.Window,
		Caps:             providerCaps(cfg),
		Mode:             quota.WindowMode(cfg.Quota.WindowMode),
		FailureThreshold: cfg.Quota.FailureThreshold,
	})

	var metrics *observability.Metrics
	if cfg.Server.MetricsEnabled {
		metrics = observability.New(prometheus.DefaultRegisterer)
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Server.MetricsEndpoint)
	}

	orch := orchestrator.New(chain, responseCache, credits.NewLedger(store), tracker, orchestrator.Options{
		CacheTTL: cfg.Cache.TTL,
		Cost: func(kind core.ContentKind) int {
			return cfg.Credits.CostFor(string(kind))
		},
		Metrics: metrics,
	})

	var cycles server.CycleReporter
	if cfg.Scheduler.Enabled {
		ingestor, err := trends.New(httpClient, cfg.Scheduler.TrendFeed)
		if err != nil {
			slog.Error("failed to initialize trend ingestor", "error", err)
			os.Exit(1)
		}
		loop := scheduler.New(orch, ingestor, store, scheduler.Config{
			BatchSize: cfg.Scheduler.BatchSize,
			Interval:  cfg.Scheduler.Interval,
			ItemPause: cfg.Scheduler.ItemPause,
		}, metrics)
		loop.Start(ctx)
		defer loop.Stop()
		cycles = loop
		slog.Info("scheduler enabled",
			"batch_size", cfg.Scheduler.BatchSize,
			"interval", cfg.Scheduler.Interval,
		)
	}

	srv := server.New(server.NewHandler(orch, cycles), &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Server.MetricsEnabled,
		MetricsEndpoint: cfg.Server.MetricsEndpoint,
		BodySizeLimit:   cfg.Server.BodySizeLimit,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}

func buildCache(cfg *config.Config) (cache.Cache, error) {
	switch cfg.Cache.Backend {
	case "redis":
		return cache.NewRedisCache(cfg.Cache.RedisURL)
	default:
		return cache.NewMemoryCache(), nil
	}
}

func providerCaps(cfg *config.Config) map[string]int {
	caps := make(map[string]int, len(cfg.Providers))
	for name, p := range cfg.Providers {
		if p.DailyCap > 0 {
			caps[name] = p.DailyCap
		}
	}
	return caps
}
