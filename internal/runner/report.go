package runner

import (
	"fmt"
	"io"
	"strconv"

	"github.com/hoisie/mustache"
)

// DefaultReportTemplate renders a plain-text summary of a batch of runs.
const DefaultReportTemplate = `{{domain}}/{{interface}}: {{passed}}/{{total}} tasks rewarded (mean reward {{mean}})
{{#runs}}
- {{run_id}} reward={{reward}} steps={{steps}} failures={{failures}}{{#stopped}} stopped{{/stopped}}{{#user_id}} user={{user_id}}{{/user_id}}
{{/runs}}
`

// ReportContext builds the template values for transcripts.
func ReportContext(transcripts []Transcript) map[string]any {
	runs := make([]map[string]any, 0, len(transcripts))
	passed := 0
	total := 0.0
	var domainName, iface string
	for _, t := range transcripts {
		if domainName == "" {
			domainName, iface = t.Domain, t.Interface
		}
		if t.Reward >= 1 {
			passed++
		}
		total += t.Reward
		runs = append(runs, map[string]any{
			"run_id":   t.RunID,
			"reward":   formatReward(t.Reward),
			"steps":    strconv.Itoa(len(t.Steps)),
			"failures": strconv.Itoa(t.Failures()),
			"stopped":  t.Stopped,
			"user_id":  t.Task.UserID,
		})
	}
	mean := 0.0
	if len(transcripts) > 0 {
		mean = total / float64(len(transcripts))
	}
	return map[string]any{
		"domain":    domainName,
		"interface": iface,
		"total":     strconv.Itoa(len(transcripts)),
		"passed":    strconv.Itoa(passed),
		"mean":      formatReward(mean),
		"runs":      runs,
	}
}

// RenderReport writes the summary of transcripts using tmpl, or the default
// template when tmpl is empty.
func RenderReport(w io.Writer, tmpl string, transcripts []Transcript) error {
	if tmpl == "" {
		tmpl = DefaultReportTemplate
	}
	if _, err := io.WriteString(w, mustache.Render(tmpl, ReportContext(transcripts))); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}

func formatReward(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
