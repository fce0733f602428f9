// Package sqlite records finished benchmark runs in an embedded SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver

	"toolcore/pkg/domain"
)

var _ domain.RunLedger = (*Ledger)(nil)

const defaultPath = "toolcore.db"

// Ledger persists run records to a single SQLite table. The full record is
// kept as JSON next to the filter columns.
type Ledger struct {
	db   *sql.DB
	path string
}

// NewLedger opens (creating when needed) the ledger database at path.
func NewLedger(path string) (*Ledger, error) {
	if path == "" {
		path = defaultPath
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
		return nil, fmt.Errorf("create dirs: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// Runs finish concurrently; a single connection serializes the writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		interface TEXT NOT NULL,
		reward REAL NOT NULL,
		recorded_at TEXT NOT NULL,
		payload BLOB NOT NULL
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create runs table: %w", err)
	}
	return &Ledger{db: db, path: path}, nil
}

// Record upserts rec.
func (l *Ledger) Record(ctx context.Context, rec domain.RunRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", rec.RunID, err)
	}
	_, err = l.db.ExecContext(ctx, `INSERT INTO runs(run_id,domain,interface,reward,recorded_at,payload) VALUES(?,?,?,?,?,?)
		ON CONFLICT(run_id) DO UPDATE SET domain=excluded.domain, interface=excluded.interface, reward=excluded.reward,
		recorded_at=excluded.recorded_at, payload=excluded.payload`,
		rec.RunID, rec.Domain, rec.Interface, rec.Reward, rec.RecordedAt.UTC().Format(time.RFC3339Nano), payload)
	if err != nil {
		return fmt.Errorf("upsert run %s: %w", rec.RunID, err)
	}
	return nil
}

// List returns matching records ordered by recording time.
func (l *Ledger) List(ctx context.Context, filter domain.RunFilter) ([]domain.RunRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT payload FROM runs
		WHERE (? = '' OR domain = ?) AND (? = '' OR interface = ?)
		ORDER BY recorded_at, run_id`,
		filter.Domain, filter.Domain, filter.Interface, filter.Interface)
	if err != nil {
		return nil, fmt.Errorf("select runs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	var out []domain.RunRecord
	for rows.Next() {
		var payload []byte
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		var rec domain.RunRecord
		if err := json.Unmarshal(payload, &rec); err != nil {
			return nil, fmt.Errorf("decode run: %w", err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	return out, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (l *Ledger) DB() *sql.DB { return l.db }

// Path returns the configured database path.
func (l *Ledger) Path() string { return l.path }
