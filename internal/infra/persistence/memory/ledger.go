package memory

import (
	"context"
	"sort"
	"sync"

	"toolcore/pkg/domain"
)

var _ domain.RunLedger = (*RunLedger)(nil)

// RunLedger keeps run records in process memory.
type RunLedger struct {
	mu      sync.Mutex
	records []domain.RunRecord
}

// NewRunLedger constructs an empty ledger.
func NewRunLedger() *RunLedger {
	return &RunLedger{}
}

// Record appends rec, replacing an earlier record with the same run id.
func (l *RunLedger) Record(_ context.Context, rec domain.RunRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	for i, existing := range l.records {
		if existing.RunID == rec.RunID {
			l.records[i] = rec
			return nil
		}
	}
	l.records = append(l.records, rec)
	return nil
}

// List returns matching records ordered by RecordedAt.
func (l *RunLedger) List(_ context.Context, filter domain.RunFilter) ([]domain.RunRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]domain.RunRecord, 0, len(l.records))
	for _, rec := range l.records {
		if filter.Matches(rec) {
			out = append(out, rec)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RecordedAt.Before(out[j].RecordedAt) })
	return out, nil
}

// Close implements domain.RunLedger.
func (l *RunLedger) Close() error { return nil }
