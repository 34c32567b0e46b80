// Package config provides configuration management for the application.
// Values come from environment variables, optionally seeded from a .env file.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds the full application configuration.
type Config struct {
	Server    ServerConfig
	Providers map[string]ProviderConfig
	// ProviderOrder is the fixed fallback priority. Providers without
	// credentials are dropped at wiring time; "offline" is always appended.
	ProviderOrder []string
	Quota         QuotaConfig
	Cache         CacheConfig
	Storage       StorageConfig
	Credits       CreditsConfig
	Scheduler     SchedulerConfig
	Logging       LoggingConfig
}

// ServerConfig holds HTTP gateway configuration.
type ServerConfig struct {
	Port            string
	MasterKey       string
	BodySizeLimit   string
	MetricsEnabled  bool
	MetricsEndpoint string
}

// ProviderConfig holds per-provider credentials and limits.
type ProviderConfig struct {
	APIKey   string
	BaseURL  string
	DailyCap int
}

// QuotaConfig controls the provider quota windows.
type QuotaConfig struct {
	// WindowMode is "rolling" (default) or "calendar".
	WindowMode string
	Window     time.Duration
	// FailureThreshold is the consecutive-failure count after which a
	// provider is treated as exhausted until its window resets.
	FailureThreshold int
}

// CacheConfig selects and tunes the response cache backend.
type CacheConfig struct {
	// Backend is "memory" or "redis".
	Backend  string
	RedisURL string
	TTL      time.Duration
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Type is "sqlite", "postgresql", or "mongodb".
	Type          string
	SQLitePath    string
	PostgresURL   string
	MongoURL      string
	MongoDatabase string
}

// CreditsConfig holds per-operation credit costs.
type CreditsConfig struct {
	CostPresentation int
	CostDocument     int
	CostWebpage      int
	CostSocial       int
	CostTemplate     int
	DefaultCost      int
}

// SchedulerConfig tunes the autonomous generation loop.
type SchedulerConfig struct {
	Enabled   bool
	BatchSize int
	Interval  time.Duration
	ItemPause time.Duration
	TrendFeed string
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	// Format is "json" (default) or "pretty".
	Format string
	Level  string
}

// knownProviderEnvs maps provider names to their credential environment
// variables. This list is the authoritative source for provider discovery.
var knownProviderEnvs = []struct {
	name       string
	apiKeyEnv  string
	baseURLEnv string
	defaultCap int
}{
	{"gemini", "GEMINI_API_KEY", "GEMINI_BASE_URL", 500},
	{"groq", "GROQ_API_KEY", "GROQ_BASE_URL", 1000},
	{"perplexity", "PERPLEXITY_API_KEY", "PERPLEXITY_BASE_URL", 500},
	{"anthropic", "ANTHROPIC_API_KEY", "ANTHROPIC_BASE_URL", 1000},
}

// DefaultProviderOrder is the fallback chain priority when PROVIDER_ORDER is
// not set. Mirrors free-tier generosity: gemini first, anthropic last.
var DefaultProviderOrder = []string{"gemini", "groq", "perplexity", "anthropic"}

// Load reads configuration from the environment, seeded from an optional
// .env file in the working directory.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is the normal production case.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Server: ServerConfig{
			Port:            v.GetString("PORT"),
			MasterKey:       v.GetString("SLIDEFORGE_MASTER_KEY"),
			BodySizeLimit:   v.GetString("BODY_SIZE_LIMIT"),
			MetricsEnabled:  v.GetBool("METRICS_ENABLED"),
			MetricsEndpoint: v.GetString("METRICS_ENDPOINT"),
		},
		Quota: QuotaConfig{
			WindowMode:       v.GetString("QUOTA_WINDOW_MODE"),
			Window:           v.GetDuration("QUOTA_WINDOW"),
			FailureThreshold: v.GetInt("QUOTA_FAILURE_THRESHOLD"),
		},
		Cache: CacheConfig{
			Backend:  v.GetString("CACHE_BACKEND"),
			RedisURL: v.GetString("REDIS_URL"),
			TTL:      time.Duration(v.GetInt("CACHE_TTL_SECONDS")) * time.Second,
		},
		Storage: StorageConfig{
			Type:          v.GetString("STORAGE_TYPE"),
			SQLitePath:    v.GetString("SQLITE_PATH"),
			PostgresURL:   v.GetString("DATABASE_URL"),
			MongoURL:      v.GetString("MONGODB_URL"),
			MongoDatabase: v.GetString("MONGODB_DATABASE"),
		},
		Credits: CreditsConfig{
			CostPresentation: v.GetInt("COST_GENERATE_PRESENTATION"),
			CostDocument:     v.GetInt("COST_GENERATE_DOCUMENT"),
			CostWebpage:      v.GetInt("COST_GENERATE_WEBPAGE"),
			CostSocial:       v.GetInt("COST_GENERATE_SOCIAL"),
			CostTemplate:     v.GetInt("COST_GENERATE_TEMPLATE"),
			DefaultCost:      v.GetInt("COST_DEFAULT"),
		},
		Scheduler: SchedulerConfig{
			Enabled:   v.GetBool("SCHEDULER_ENABLED"),
			BatchSize: v.GetInt("SCHEDULER_BATCH_SIZE"),
			Interval:  time.Duration(v.GetInt("SCHEDULER_INTERVAL_SECONDS")) * time.Second,
			ItemPause: time.Duration(v.GetInt("SCHEDULER_ITEM_PAUSE_SECONDS")) * time.Second,
			TrendFeed: v.GetString("TREND_FEED_URL"),
		},
		Logging: LoggingConfig{
			Format: v.GetString("LOG_FORMAT"),
			Level:  v.GetString("LOG_LEVEL"),
		},
	}

	cfg.Providers = resolveProviders(v)
	cfg.ProviderOrder = resolveProviderOrder(v, cfg.Providers)

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("BODY_SIZE_LIMIT", "1M")
	v.SetDefault("METRICS_ENABLED", true)
	v.SetDefault("METRICS_ENDPOINT", "/metrics")

	v.SetDefault("QUOTA_WINDOW_MODE", "rolling")
	v.SetDefault("QUOTA_WINDOW", "24h")
	v.SetDefault("QUOTA_FAILURE_THRESHOLD", 3)

	v.SetDefault("CACHE_BACKEND", "memory")
	v.SetDefault("CACHE_TTL_SECONDS", 3600)

	v.SetDefault("STORAGE_TYPE", "sqlite")
	v.SetDefault("SQLITE_PATH", "data/slideforge.db")
	v.SetDefault("MONGODB_DATABASE", "slideforge")

	v.SetDefault("COST_GENERATE_PRESENTATION", 10)
	v.SetDefault("COST_GENERATE_DOCUMENT", 8)
	v.SetDefault("COST_GENERATE_WEBPAGE", 8)
	v.SetDefault("COST_GENERATE_SOCIAL", 3)
	v.SetDefault("COST_GENERATE_TEMPLATE", 10)
	v.SetDefault("COST_DEFAULT", 5)

	v.SetDefault("SCHEDULER_ENABLED", false)
	v.SetDefault("SCHEDULER_BATCH_SIZE", 9)
	v.SetDefault("SCHEDULER_INTERVAL_SECONDS", 3600)
	v.SetDefault("SCHEDULER_ITEM_PAUSE_SECONDS", 3)
	v.SetDefault("TREND_FEED_URL", "https://trends.google.com/trends/api/dailytrends?hl=en-US&geo=US")

	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_LEVEL", "info")
}

// resolveProviders discovers providers from credential env vars. A provider
// without an API key is omitted entirely so the chain never dials it.
func resolveProviders(v *viper.Viper) map[string]ProviderConfig {
	out := make(map[string]ProviderConfig)
	for _, kp := range knownProviderEnvs {
		apiKey := v.GetString(kp.apiKeyEnv)
		if apiKey == "" {
			continue
		}
		cap := v.GetInt(strings.ToUpper(kp.name) + "_DAILY_CAP")
		if cap <= 0 {
			cap = kp.defaultCap
		}
		out[kp.name] = ProviderConfig{
			APIKey:   apiKey,
			BaseURL:  v.GetString(kp.baseURLEnv),
			DailyCap: cap,
		}
	}
	return out
}

// resolveProviderOrder parses PROVIDER_ORDER (comma separated) and drops
// entries that have no credentials configured.
func resolveProviderOrder(v *viper.Viper, providers map[string]ProviderConfig) []string {
	order := DefaultProviderOrder
	if raw := v.GetString("PROVIDER_ORDER"); raw != "" {
		order = nil
		for _, name := range strings.Split(raw, ",") {
			order = append(order, strings.TrimSpace(strings.ToLower(name)))
		}
	}
	var out []string
	for _, name := range order {
		if _, ok := providers[name]; ok {
			out = append(out, name)
		}
	}
	return out
}

func (c *Config) validate() error {
	switch c.Quota.WindowMode {
	case "rolling", "calendar":
	default:
		return fmt.Errorf("invalid QUOTA_WINDOW_MODE %q (valid: rolling, calendar)", c.Quota.WindowMode)
	}
	switch c.Cache.Backend {
	case "memory":
	case "redis":
		if c.Cache.RedisURL == "" {
			return fmt.Errorf("CACHE_BACKEND=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("invalid CACHE_BACKEND %q (valid: memory, redis)", c.Cache.Backend)
	}
	switch c.Storage.Type {
	case "sqlite":
	case "postgresql":
		if c.Storage.PostgresURL == "" {
			return fmt.Errorf("STORAGE_TYPE=postgresql requires DATABASE_URL")
		}
	case "mongodb":
		if c.Storage.MongoURL == "" {
			return fmt.Errorf("STORAGE_TYPE=mongodb requires MONGODB_URL")
		}
	default:
		return fmt.Errorf("invalid STORAGE_TYPE %q (valid: sqlite, postgresql, mongodb)", c.Storage.Type)
	}
	if c.Scheduler.BatchSize <= 0 {
		return fmt.Errorf("SCHEDULER_BATCH_SIZE must be positive")
	}
	if c.Scheduler.Interval <= 0 {
		return fmt.Errorf("SCHEDULER_INTERVAL_SECONDS must be positive")
	}
	return nil
}

// CostFor returns the credit cost of generating the given content kind.
func (c *CreditsConfig) CostFor(kind string) int {
	switch kind {
	case "presentation":
		return c.CostPresentation
	case "document":
		return c.CostDocument
	case "webpage":
		return c.CostWebpage
	case "social":
		return c.CostSocial
	case "template":
		return c.CostTemplate
	default:
		return c.DefaultCost
	}
}
