// Package main is the entry point for the autonomous trend generation
// daemon. It runs the scheduler loop against the configured storage backend
// without exposing an HTTP surface.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"slideforge/config"
	"slideforge/internal/cache"
	"slideforge/internal/httpclient"
	"slideforge/internal/logging"
	"slideforge/internal/orchestrator"
	"slideforge/internal/providers"
	"slideforge/internal/quota"
	"slideforge/internal/scheduler"
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
	once := flag.Bool("once", false, "Run a single cycle and exit")
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

	slog.Info("starting trendagent", "version", version.Version)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit
		slog.Info("stop signal received")
		cancel()
	}()

	if err := run(ctx, cfg, *once); err != nil {
		slog.Error("trendagent failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, once bool) error {
	httpClient := httpclient.New(nil)

	store, err := storage.New(ctx, storage.Config{
		Type:          cfg.Storage.Type,
		SQLitePath:    cfg.Storage.SQLitePath,
		PostgresURL:   cfg.Storage.PostgresURL,
		MongoURL:      cfg.Storage.MongoURL,
		MongoDatabase: cfg.Storage.MongoDatabase,
	})
	if err != nil {
		return fmt.Errorf("initialize storage: %w", err)
	}
	defer store.Close()

	chain, err := providers.BuildChain(cfg.ProviderOrder, cfg.Providers, httpClient, true)
	if err != nil {
		return fmt.Errorf("build provider chain: %w", err)
	}

	tracker := quota.New(quota.Config{
		Window:           cfg.Quota.Window,
		Caps:             providerCaps(cfg),
		Mode:             quota.WindowMode(cfg.Quota.WindowMode),
		FailureThreshold: cfg.Quota.FailureThreshold,
	})

	// The daemon bypasses the credit ledger; a nil ledger is fine because
	// every call goes through GenerateUnmetered.
	orch := orchestrator.New(chain, cache.NewMemoryCache(), nil, tracker, orchestrator.Options{
		CacheTTL: cfg.Cache.TTL,
	})

	ingestor, err := trends.New(httpClient, cfg.Scheduler.TrendFeed)
	if err != nil {
		return fmt.Errorf("initialize trend ingestor: %w", err)
	}

	loop := scheduler.New(orch, ingestor, store, scheduler.Config{
		BatchSize: cfg.Scheduler.BatchSize,
		Interval:  cfg.Scheduler.Interval,
		ItemPause: cfg.Scheduler.ItemPause,
	}, nil)

	if once {
		return loop.RunOnce(ctx)
	}
	return loop.Run(ctx)
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
