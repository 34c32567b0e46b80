// Package storage is the persistence collaborator for the generation core:
// artifact saves and credit balance accounting behind one interface with
// SQLite, PostgreSQL, and MongoDB backends.
package storage

import (
	"context"
	"fmt"

	"slideforge/internal/core"
)

// Type constants for storage backends.
const (
	TypeSQLite     = "sqlite"
	TypePostgreSQL = "postgresql"
	TypeMongoDB    = "mongodb"
)

// Config holds storage configuration.
type Config struct {
	// Type selects the backend: "sqlite", "postgresql", or "mongodb".
	Type string

	// SQLitePath is the database file path for the sqlite backend.
	SQLitePath string

	// PostgresURL is the connection string for the postgresql backend.
	PostgresURL string

	// MongoURL and MongoDatabase configure the mongodb backend.
	MongoURL      string
	MongoDatabase string
}

// ArtifactMeta carries the SEO and provenance metadata persisted alongside
// an artifact.
type ArtifactMeta struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Keywords    []string `json:"keywords"`
	TrendSource string   `json:"trend_source,omitempty"`
	Style       string   `json:"style"`
	Fallback    bool     `json:"fallback"`
}

// Store is the persistence contract the orchestration core consumes.
// It also satisfies credits.Store, so one backend serves both artifact
// persistence and credit accounting. Implementations must be safe for
// concurrent use.
type Store interface {
	// SaveArtifact persists one generated artifact and returns its id.
	SaveArtifact(ctx context.Context, artifact *core.GeneratedArtifact, meta ArtifactMeta) (string, error)

	// ReadCreditBalance returns the committed balance for a principal.
	// Unknown principals have zero credits.
	ReadCreditBalance(ctx context.Context, principal string) (int, error)

	// ApplyCreditDelta atomically adjusts a balance, returning false when
	// the delta would drive it negative.
	ApplyCreditDelta(ctx context.Context, principal string, delta int) (bool, error)

	// Close releases all resources held by the store.
	Close() error
}

// New creates a Store for the configured backend.
func New(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Type {
	case TypeSQLite:
		return NewSQLite(cfg.SQLitePath)
	case TypePostgreSQL:
		return NewPostgreSQL(ctx, cfg.PostgresURL)
	case TypeMongoDB:
		return NewMongoDB(ctx, cfg.MongoURL, cfg.MongoDatabase)
	default:
		return nil, fmt.Errorf("unknown storage type: %s (valid: sqlite, postgresql, mongodb)", cfg.Type)
	}
}
