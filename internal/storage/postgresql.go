package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"slideforge/internal/core"
)

// PostgresStore implements Store on a pgx connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
}

const postgresSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	kind TEXT NOT NULL,
	style TEXT,
	category TEXT,
	content JSONB NOT NULL,
	meta JSONB NOT NULL,
	provider TEXT NOT NULL,
	fallback BOOLEAN NOT NULL DEFAULT FALSE,
	trend_source TEXT,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);
CREATE INDEX IF NOT EXISTS idx_artifacts_category ON artifacts(category);

CREATE TABLE IF NOT EXISTS credit_accounts (
	principal TEXT PRIMARY KEY,
	balance INTEGER NOT NULL DEFAULT 0
);
`

// NewPostgreSQL creates a connection pool, verifies connectivity, and
// ensures the schema exists.
func NewPostgreSQL(ctx context.Context, url string) (*PostgresStore, error) {
	if url == "" {
		return nil, fmt.Errorf("PostgreSQL URL is required")
	}

	poolCfg, err := pgxpool.ParseConfig(url)
	if err != nil {
		return nil, fmt.Errorf("parse PostgreSQL URL: %w", err)
	}
	if poolCfg.MaxConns == 0 {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create PostgreSQL connection pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping PostgreSQL: %w", err)
	}
	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &PostgresStore{pool: pool}, nil
}

// SaveArtifact persists the artifact content and metadata as JSONB.
func (s *PostgresStore) SaveArtifact(ctx context.Context, artifact *core.GeneratedArtifact, meta ArtifactMeta) (string, error) {
	id := artifact.ID
	if id == "" {
		id = uuid.NewString()
	}
	content, err := json.Marshal(artifact)
	if err != nil {
		return "", fmt.Errorf("marshal artifact: %w", err)
	}
	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return "", fmt.Errorf("marshal artifact meta: %w", err)
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO artifacts (id, title, kind, style, category, content, meta, provider, fallback, trend_source)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		id, artifact.Title, string(artifact.Kind), artifact.Style, meta.Category,
		content, metaJSON, artifact.Provenance.Provider,
		artifact.Provenance.Fallback, meta.TrendSource,
	)
	if err != nil {
		return "", fmt.Errorf("insert artifact: %w", err)
	}
	return id, nil
}

// ReadCreditBalance returns the principal's balance, zero when the account
// does not exist.
func (s *PostgresStore) ReadCreditBalance(ctx context.Context, principal string) (int, error) {
	var balance int
	err := s.pool.QueryRow(ctx,
		`SELECT balance FROM credit_accounts WHERE principal = $1`, principal).Scan(&balance)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read credit balance: %w", err)
	}
	return balance, nil
}

// ApplyCreditDelta adjusts a balance atomically. The conditional update
// rejects deltas that would drive the balance negative without holding a
// transaction open across application code.
func (s *PostgresStore) ApplyCreditDelta(ctx context.Context, principal string, delta int) (bool, error) {
	if delta >= 0 {
		_, err := s.pool.Exec(ctx, `
			INSERT INTO credit_accounts (principal, balance) VALUES ($1, $2)
			ON CONFLICT (principal) DO UPDATE SET balance = credit_accounts.balance + $2`,
			principal, delta,
		)
		if err != nil {
			return false, fmt.Errorf("update credit balance: %w", err)
		}
		return true, nil
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE credit_accounts SET balance = balance + $2
		WHERE principal = $1 AND balance + $2 >= 0`,
		principal, delta,
	)
	if err != nil {
		return false, fmt.Errorf("update credit balance: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// Close releases the connection pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}
