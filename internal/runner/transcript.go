package runner

import (
	"context"
	"strings"
	"time"

	"toolcore/internal/core"
)

// Step pairs an action with the envelope it produced. Gated steps were
// answered without reaching the dispatcher.
type Step struct {
	Action   Action        `json:"action"`
	Envelope core.Envelope `json:"envelope"`
	Gated    bool          `json:"gated,omitempty"`
}

// Transcript is the ordered record of one run.
type Transcript struct {
	RunID      string    `json:"run_id"`
	Domain     string    `json:"domain"`
	Interface  string    `json:"interface"`
	Task       Task      `json:"task"`
	Steps      []Step    `json:"steps"`
	Reward     float64   `json:"reward"`
	Stopped    bool      `json:"stopped,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Failures counts steps whose envelope is not ok.
func (t Transcript) Failures() int {
	n := 0
	for _, s := range t.Steps {
		if !s.Envelope.OK {
			n++
		}
	}
	return n
}

// TranscriptSink receives every finished transcript.
type TranscriptSink interface {
	Save(ctx context.Context, t Transcript) error
}

// Score returns 1 when every expected output occurs in the concatenated text
// of the successful steps, compared case-insensitively with commas removed,
// and 0 otherwise. No expected outputs scores 1.
func Score(steps []Step, outputs []string) float64 {
	var b strings.Builder
	for _, s := range steps {
		if s.Envelope.OK {
			b.WriteString(s.Envelope.Text())
			b.WriteByte('\n')
		}
	}
	haystack := normalizeOutput(b.String())
	for _, want := range outputs {
		if !strings.Contains(haystack, normalizeOutput(want)) {
			return 0
		}
	}
	return 1
}

func normalizeOutput(s string) string {
	return strings.ToLower(strings.ReplaceAll(s, ",", ""))
}
