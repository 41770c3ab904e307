package scenario

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/chatguard/internal/verdict"
)

func writeScenario(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestAllCasesPass(t *testing.T) {
	s := &Scenario{
		Name: "basic",
		Cases: []Case{
			{Text: "what time is load-in?", Expect: "allow"},
			{Text: "my number is 555-123-4567", Restricted: true, Expect: "block", Patterns: []string{"single_phone"}, ReasonContains: "Upgrade"},
			{Text: "1234", History: []string{"call me at 555"}, Expect: "block", Patterns: []string{"split_phone"}},
			{Text: "555-123-4567", Bypass: true, Expect: "allow"},
		},
	}

	result := Run(s, nil, verdict.DefaultCopy())
	if result.Failed != 0 {
		t.Fatalf("expected 0 failures, got %d: %+v", result.Failed, result.Cases)
	}
	if result.Passed != 4 {
		t.Errorf("expected 4 passed, got %d", result.Passed)
	}
}

func TestFailedAssertionDetected(t *testing.T) {
	s := &Scenario{
		Name: "wrong expectation",
		Cases: []Case{
			{Text: "the event is 3 hours and costs 500", Expect: "block"},
		},
	}
	result := Run(s, nil, verdict.DefaultCopy())
	if result.Failed != 1 || result.Passed != 0 {
		t.Fatalf("expected 1 failure, got %+v", result)
	}
	if result.Cases[0].Failure != "expected block, got allow" {
		t.Errorf("unexpected failure message %q", result.Cases[0].Failure)
	}
}

func TestMissingPatternDetected(t *testing.T) {
	s := &Scenario{
		Cases: []Case{
			{Text: "call me 555 1234", Expect: "block", Patterns: []string{"split_email"}},
		},
	}
	result := Run(s, nil, verdict.DefaultCopy())
	if result.Failed != 1 || !strings.Contains(result.Cases[0].Failure, "split_email") {
		t.Fatalf("expected missing pattern failure, got %+v", result.Cases)
	}
}

func TestInvalidExpect(t *testing.T) {
	s := &Scenario{Cases: []Case{{Text: "hi", Expect: "deny"}}}
	result := Run(s, nil, verdict.DefaultCopy())
	if result.Failed != 1 || !strings.Contains(result.Cases[0].Failure, "invalid expect") {
		t.Fatalf("expected invalid expect failure, got %+v", result.Cases)
	}
}

func TestCasesAreIsolated(t *testing.T) {
	s := &Scenario{
		Cases: []Case{
			{Text: "call me at 555", Channel: "c", Sender: "s", Expect: "block"},
			{Text: "1234", Channel: "c", Sender: "s", Expect: "allow"},
		},
	}
	result := Run(s, nil, verdict.DefaultCopy())
	if result.Failed != 0 {
		t.Fatalf("history leaked between cases: %+v", result.Cases)
	}
}

func TestLoadAndRun(t *testing.T) {
	dir := t.TempDir()
	path := writeScenario(t, dir, "leaks.yaml", `
name: contact leaks
cases:
  - text: "check my site bandname dot com"
    restricted: true
    expect: block
    patterns: [split_domain]
    reason_contains: "Website links"
  - text: "see you at soundcheck"
    expect: allow
`)
	cfgPath := writeScenario(t, dir, "config.yaml", "reasons:\n  plan_name: Plus\n")

	result, err := LoadAndRun(path, cfgPath)
	if err != nil {
		t.Fatal(err)
	}
	if result.File != path || result.Name != "contact leaks" {
		t.Errorf("unexpected metadata %+v", result)
	}
	if result.Failed != 0 {
		t.Fatalf("unexpected failures: %+v", result.Cases)
	}
	if !strings.Contains(result.Cases[0].Reason, "Upgrade to Plus") {
		t.Errorf("config reasons not applied: %q", result.Cases[0].Reason)
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	path := writeScenario(t, t.TempDir(), "bad.yaml", "cases: [")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestFormatText(t *testing.T) {
	results := []*RunResult{
		{Name: "good", Total: 1, Passed: 1},
		{Name: "bad", Total: 1, Failed: 1, Cases: []CaseResult{
			{Index: 1, Text: "hello", Expected: "block", Actual: "allow", Failure: "expected block, got allow", Patterns: []string{}},
		}},
	}
	out := FormatText(results)
	for _, want := range []string{"Checking 2 scenario files", "PASS  good", "FAIL  bad", "expected block, got allow", "1 of 2 cases passed", "1 of 2 scenarios failed"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestFormatJSON(t *testing.T) {
	out, err := FormatJSON([]*RunResult{{Name: "x", Total: 0, Cases: []CaseResult{}}})
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"name": "x"`) {
		t.Errorf("unexpected json %s", out)
	}
}

func TestSummarize(t *testing.T) {
	tot := Summarize([]*RunResult{
		{Total: 3, Passed: 3},
		{Total: 2, Passed: 1, Failed: 1},
	})
	if tot.Files != 2 || tot.FailedFiles != 1 || tot.Cases != 5 || tot.Passed != 4 {
		t.Errorf("unexpected totals %+v", tot)
	}
	if tot.OK() {
		t.Error("totals with a failed file should not be OK")
	}
	if !Summarize(nil).OK() {
		t.Error("no results should be OK")
	}
}

func TestClipMultibyte(t *testing.T) {
	s := strings.Repeat("é", 50)
	got := clip(s, 40)
	if !strings.HasSuffix(got, "...") || len([]rune(got)) != 40 {
		t.Errorf("clip = %q", got)
	}
}

func TestBundledScenario(t *testing.T) {
	result, err := LoadAndRun(filepath.Join("testdata", "contact_leaks.yaml"), filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if result.Failed != 0 {
		for _, c := range result.Cases {
			if !c.Passed {
				t.Errorf("case %d %q: %s", c.Index, c.Text, c.Failure)
			}
		}
	}
	if result.Total != 8 {
		t.Errorf("expected 8 cases, got %d", result.Total)
	}
}
