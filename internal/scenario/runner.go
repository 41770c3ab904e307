package scenario

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/chatguard/internal/catalog"
	"github.com/ppiankov/chatguard/internal/config"
	"github.com/ppiankov/chatguard/internal/engine"
	"github.com/ppiankov/chatguard/internal/model"
	"github.com/ppiankov/chatguard/internal/verdict"
)

const (
	expectBlock = "block"
	expectAllow = "allow"
)

// Run evaluates every case in s. Each case gets a fresh engine, so buffers
// never leak between cases. A nil cat uses the built-in catalog.
func Run(s *Scenario, cat *catalog.Catalog, cp verdict.Copy) *RunResult {
	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
		Cases: []CaseResult{},
	}

	for i, c := range s.Cases {
		e := engine.New(engine.WithCatalog(cat), engine.WithComposer(verdict.NewComposer(cp)))

		channel, sender := c.Channel, c.Sender
		if channel == "" {
			channel = "scenario"
		}
		if sender == "" {
			sender = fmt.Sprintf("sender-%d", i+1)
		}
		if len(c.History) > 0 {
			e.RecordForAnalysis(channel, sender, c.History)
		}

		res := e.Evaluate(c.Text, channel, sender, model.RoleContext{
			SenderRestricted: c.Restricted,
			Bypass:           c.Bypass,
		})

		actual := expectAllow
		if res.IsBlocked {
			actual = expectBlock
		}
		cr := CaseResult{
			Index:     i + 1,
			Text:      c.Text,
			Expected:  strings.ToLower(c.Expect),
			Actual:    actual,
			RiskScore: res.RiskScore,
			Patterns:  res.PatternStrings(),
			Reason:    res.Reason,
		}
		cr.Failure = check(c, cr, res)
		if cr.Failure == "" {
			cr.Passed = true
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}

	return result
}

func check(c Case, cr CaseResult, res model.FilterResult) string {
	if cr.Expected != expectBlock && cr.Expected != expectAllow {
		return fmt.Sprintf("invalid expect %q (want block|allow)", c.Expect)
	}
	if cr.Actual != cr.Expected {
		return fmt.Sprintf("expected %s, got %s", cr.Expected, cr.Actual)
	}
	for _, p := range c.Patterns {
		if !res.HasPattern(model.Tag(p)) {
			return fmt.Sprintf("missing pattern %s", p)
		}
	}
	if c.ReasonContains != "" && !strings.Contains(res.Reason, c.ReasonContains) {
		return fmt.Sprintf("reason %q lacks %q", res.Reason, c.ReasonContains)
	}
	return ""
}

// Load parses a scenario file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	if s.Name == "" {
		s.Name = path
	}
	return &s, nil
}

// LoadAndRun loads a scenario file and the config at configPath, then runs.
func LoadAndRun(path, configPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	cat, err := cfg.BuildCatalog()
	if err != nil {
		return nil, err
	}

	result := Run(s, cat, cfg.Reasons)
	result.File = path
	return result, nil
}
