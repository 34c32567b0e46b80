package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"slideforge/internal/core"
)

// SQLiteStore implements Store on a local SQLite file. Default backend for
// single-instance deployments.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database file and ensures the
// schema exists.
func NewSQLite(path string) (*SQLiteStore, error) {
	if path == "" {
		path = "data/slideforge.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path+"?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// modernc sqlite serializes writes; a single connection avoids
	// SQLITE_BUSY churn under concurrent access.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id TEXT PRIMARY KEY,
	title TEXT NOT NULL,
	kind TEXT NOT NULL,
	style TEXT,
	category TEXT,
	content TEXT NOT NULL,
	meta TEXT NOT NULL,
	provider TEXT NOT NULL,
	fallback INTEGER NOT NULL DEFAULT 0,
	trend_source TEXT,
	created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_created_at ON artifacts(created_at);
CREATE INDEX IF NOT EXISTS idx_artifacts_category ON artifacts(category);

CREATE TABLE IF NOT EXISTS credit_accounts (
	principal TEXT PRIMARY KEY,
	balance INTEGER NOT NULL DEFAULT 0
);
`

// SaveArtifact persists the artifact content and metadata as JSON columns.
func (s *SQLiteStore) SaveArtifact(ctx context.Context, artifact *core.GeneratedArtifact, meta ArtifactMeta) (string, error) {
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

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO artifacts (id, title, kind, style, category, content, meta, provider, fallback, trend_source, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, artifact.Title, string(artifact.Kind), artifact.Style, meta.Category,
		string(content), string(metaJSON), artifact.Provenance.Provider,
		boolToInt(artifact.Provenance.Fallback), meta.TrendSource, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("insert artifact: %w", err)
	}
	return id, nil
}

// ReadCreditBalance returns the principal's balance, zero when the account
// does not exist.
func (s *SQLiteStore) ReadCreditBalance(ctx context.Context, principal string) (int, error) {
	var balance int
	err := s.db.QueryRowContext(ctx,
		`SELECT balance FROM credit_accounts WHERE principal = ?`, principal).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read credit balance: %w", err)
	}
	return balance, nil
}

// ApplyCreditDelta adjusts a balance inside a transaction, rejecting deltas
// that would drive it negative.
func (s *SQLiteStore) ApplyCreditDelta(ctx context.Context, principal string, delta int) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	var balance int
	err = tx.QueryRowContext(ctx,
		`SELECT balance FROM credit_accounts WHERE principal = ?`, principal).Scan(&balance)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("read credit balance: %w", err)
	}

	next := balance + delta
	if next < 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO credit_accounts (principal, balance) VALUES (?, ?)
		ON CONFLICT(principal) DO UPDATE SET balance = ?`,
		principal, next, next,
	)
	if err != nil {
		return false, fmt.Errorf("update credit balance: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("commit transaction: %w", err)
	}
	return true, nil
}

// CountArtifacts returns the number of persisted artifacts, optionally
// filtered to fallback-sourced ones. Used by tests and the status surface.
func (s *SQLiteStore) CountArtifacts(ctx context.Context, fallbackOnly bool) (int, error) {
	query := `SELECT COUNT(*) FROM artifacts`
	if fallbackOnly {
		query += ` WHERE fallback = 1`
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, fmt.Errorf("count artifacts: %w", err)
	}
	return n, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
