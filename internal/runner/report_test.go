package runner

import (
	"bytes"
	"strings"
	"testing"

	"toolcore/internal/core"
)

func TestRenderReport(t *testing.T) {
	ok, _ := core.Success("done")
	transcripts := []Transcript{
		{RunID: "r1", Domain: "bank", Interface: "interface_1", Reward: 1, Task: Task{UserID: "7"}, Steps: []Step{{Envelope: ok}}},
		{RunID: "r2", Domain: "bank", Interface: "interface_1", Reward: 0, Stopped: true, Steps: []Step{{Envelope: core.Failure(nil)}}},
	}
	var buf bytes.Buffer
	if err := RenderReport(&buf, "", transcripts); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"bank/interface_1: 1/2 tasks rewarded (mean reward 0.50)",
		"- r1 reward=1.00 steps=1 failures=0 user=7",
		"- r2 reward=0.00 steps=1 failures=1 stopped",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("report missing %q:\n%s", want, out)
		}
	}
}

func TestRenderReportCustomTemplate(t *testing.T) {
	var buf bytes.Buffer
	if err := RenderReport(&buf, "{{total}} runs", nil); err != nil {
		t.Fatalf("render: %v", err)
	}
	if buf.String() != "0 runs" {
		t.Fatalf("unexpected output %q", buf.String())
	}
}

func TestScore(t *testing.T) {
	ok, _ := core.Success(map[string]any{"total": "1,250.50", "status": "Paid"})
	steps := []Step{{Envelope: ok}, {Envelope: core.Failure(nil)}}
	if Score(steps, []string{"1250.50", "paid"}) != 1 {
		t.Fatalf("expected match across case and commas")
	}
	if Score(steps, []string{"internal"}) != 0 {
		t.Fatalf("failed steps must not contribute text")
	}
	if Score(nil, nil) != 1 {
		t.Fatalf("no outputs scores 1")
	}
}
