// Package postgres records finished benchmark runs in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib" // register pgx as a database/sql driver

	"toolcore/pkg/domain"
)

var _ domain.RunLedger = (*Ledger)(nil)

const (
	defaultDriver = "pgx"
	defaultDSN    = "postgres://localhost/toolcore?sslmode=disable"
)

var (
	sqlOpen = sql.Open
	openMu  sync.Mutex
)

// Ledger persists run records to a Postgres table with a JSONB payload.
type Ledger struct {
	db *sql.DB
}

// NewLedger connects using dsn (falling back to a local default) and ensures
// the runs table exists.
func NewLedger(dsn string) (*Ledger, error) {
	if dsn == "" {
		dsn = defaultDSN
	}
	openMu.Lock()
	db, err := sqlOpen(defaultDriver, dsn)
	openMu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	l, err := NewLedgerWithDB(context.Background(), db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return l, nil
}

// NewLedgerWithDB wraps an existing handle.
func NewLedgerWithDB(ctx context.Context, db *sql.DB) (*Ledger, error) {
	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if err := ensureRunsTable(ctx, db); err != nil {
		return nil, err
	}
	return &Ledger{db: db}, nil
}

func ensureRunsTable(ctx context.Context, db *sql.DB) error {
	ddl := `CREATE TABLE IF NOT EXISTS runs (
		run_id TEXT PRIMARY KEY,
		domain TEXT NOT NULL,
		interface TEXT NOT NULL,
		reward DOUBLE PRECISION NOT NULL,
		recorded_at TIMESTAMPTZ NOT NULL,
		payload JSONB NOT NULL
	)`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("ensure runs table: %w", err)
	}
	return nil
}

// Record upserts rec inside a transaction.
func (l *Ledger) Record(ctx context.Context, rec domain.RunRecord) error {
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode run %s: %w", rec.RunID, err)
	}
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if _, err := tx.ExecContext(ctx, `INSERT INTO runs(run_id,domain,interface,reward,recorded_at,payload) VALUES($1,$2,$3,$4,$5,$6)
		ON CONFLICT(run_id) DO UPDATE SET domain=EXCLUDED.domain, interface=EXCLUDED.interface, reward=EXCLUDED.reward,
		recorded_at=EXCLUDED.recorded_at, payload=EXCLUDED.payload`,
		rec.RunID, rec.Domain, rec.Interface, rec.Reward, rec.RecordedAt.UTC(), payload); err != nil {
		return fmt.Errorf("upsert run %s: %w", rec.RunID, err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", rec.RunID, err)
	}
	committed = true
	return nil
}

// List returns matching records ordered by recording time.
func (l *Ledger) List(ctx context.Context, filter domain.RunFilter) ([]domain.RunRecord, error) {
	rows, err := l.db.QueryContext(ctx, `SELECT payload FROM runs ORDER BY recorded_at`)
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
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// Close releases the database handle.
func (l *Ledger) Close() error { return l.db.Close() }

// DB exposes the underlying sql.DB for integration testing hooks.
func (l *Ledger) DB() *sql.DB { return l.db }
