package core

import (
	"fmt"

	"toolcore/internal/infra/persistence/memory"
	"toolcore/internal/infra/persistence/postgres"
	"toolcore/internal/infra/persistence/sqlite"
	"toolcore/pkg/domain"
)

// LedgerDriver identifies a run ledger backend.
type LedgerDriver string

const (
	LedgerMemory   LedgerDriver = "memory"   // process memory (tests / one-off runs)
	LedgerSQLite   LedgerDriver = "sqlite"   // embedded sqlite file
	LedgerPostgres LedgerDriver = "postgres" // PostgreSQL server
)

// LedgerConfig selects and configures the run ledger.
type LedgerConfig struct {
	Driver      LedgerDriver
	SQLitePath  string
	PostgresDSN string
}

// OpenRunLedger opens the configured ledger. An empty driver selects memory.
func OpenRunLedger(cfg LedgerConfig) (domain.RunLedger, error) {
	switch cfg.Driver {
	case "", LedgerMemory:
		return memory.NewRunLedger(), nil
	case LedgerSQLite:
		ledger, err := sqlite.NewLedger(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	case LedgerPostgres:
		ledger, err := postgres.NewLedger(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		return ledger, nil
	default:
		return nil, fmt.Errorf("unknown ledger driver %s", cfg.Driver)
	}
}
