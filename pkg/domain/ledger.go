package domain

import (
	"context"
	"encoding/json"
	"time"
)

// RunRecord summarizes one finished run for the results ledger.
type RunRecord struct {
	RunID      string          `json:"run_id"`
	Domain     string          `json:"domain"`
	Interface  string          `json:"interface"`
	UserID     string          `json:"user_id,omitempty"`
	Annotator  string          `json:"annotator,omitempty"`
	Reward     float64         `json:"reward"`
	Steps      int             `json:"steps"`
	Failures   int             `json:"failures"`
	Stopped    bool            `json:"stopped"`
	Transcript json.RawMessage `json:"transcript,omitempty"`
	RecordedAt time.Time       `json:"recorded_at"`
}

// RunFilter narrows ledger listings. Empty fields match everything.
type RunFilter struct {
	Domain    string
	Interface string
}

// Matches reports whether rec satisfies the filter.
func (f RunFilter) Matches(rec RunRecord) bool {
	if f.Domain != "" && rec.Domain != f.Domain {
		return false
	}
	if f.Interface != "" && rec.Interface != f.Interface {
		return false
	}
	return true
}

// RunLedger persists run results. It never stores dataset state.
type RunLedger interface {
	Record(ctx context.Context, rec RunRecord) error
	List(ctx context.Context, filter RunFilter) ([]RunRecord, error)
	Close() error
}
