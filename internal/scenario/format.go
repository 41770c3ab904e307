package scenario

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Totals aggregates results across scenario files.
type Totals struct {
	Files       int `json:"files"`
	FailedFiles int `json:"failed_files"`
	Cases       int `json:"cases"`
	Passed      int `json:"passed"`
}

// OK reports whether every case passed.
func (t Totals) OK() bool { return t.FailedFiles == 0 }

// Summarize totals results.
func Summarize(results []*RunResult) Totals {
	t := Totals{Files: len(results)}
	for _, r := range results {
		t.Cases += r.Total
		t.Passed += r.Passed
		if r.Failed > 0 {
			t.FailedFiles++
		}
	}
	return t
}

// FormatText renders run results for a terminal. Failing cases are listed
// with their score and patterns; message text is clipped to 40 characters.
func FormatText(results []*RunResult) string {
	var b strings.Builder
	t := Summarize(results)

	plural := "s"
	if t.Files == 1 {
		plural = ""
	}
	fmt.Fprintf(&b, "Checking %d scenario file%s...\n\n", t.Files, plural)

	for _, r := range results {
		status := "PASS"
		if r.Failed > 0 {
			status = "FAIL"
		}
		fmt.Fprintf(&b, "  %s  %s (%d/%d)\n", status, r.Name, r.Passed, r.Total)
		for _, c := range r.Cases {
			if c.Passed {
				continue
			}
			fmt.Fprintf(&b, "    FAIL  case %d: %-40q %s (risk %d, patterns %s)\n",
				c.Index, clip(c.Text, 40), c.Failure, c.RiskScore, strings.Join(c.Patterns, ","))
		}
	}

	fmt.Fprintf(&b, "\n%d of %d cases passed.", t.Passed, t.Cases)
	if !t.OK() {
		fmt.Fprintf(&b, " %d of %d scenarios failed.", t.FailedFiles, t.Files)
	}
	b.WriteString("\n")
	return b.String()
}

// FormatJSON renders results and their totals as one JSON document.
func FormatJSON(results []*RunResult) (string, error) {
	doc := struct {
		Scenarios []*RunResult `json:"scenarios"`
		Totals    Totals       `json:"totals"`
	}{results, Summarize(results)}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal results: %w", err)
	}
	return string(data), nil
}

func clip(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
