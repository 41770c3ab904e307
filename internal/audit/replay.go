package audit

import (
	"encoding/json"
	"fmt"
	"time"
)

// ReplayFilter selects entries for a conversation replay. Empty fields match
// everything.
type ReplayFilter struct {
	ChannelID string
	SenderID  string
	From      time.Time // zero value = no lower bound
	To        time.Time // zero value = no upper bound
}

func (f ReplayFilter) match(e Entry) bool {
	if f.ChannelID != "" && e.ChannelID != f.ChannelID {
		return false
	}
	if f.SenderID != "" && e.SenderID != f.SenderID {
		return false
	}
	if f.From.IsZero() && f.To.IsZero() {
		return true
	}
	ts, err := time.Parse(TimestampFormat, e.Timestamp)
	if err != nil {
		return false
	}
	if !f.From.IsZero() && ts.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && ts.After(f.To) {
		return false
	}
	return true
}

// after reports whether e is past the upper time bound.
func (f ReplayFilter) after(e Entry) bool {
	if f.To.IsZero() {
		return false
	}
	ts, err := time.Parse(TimestampFormat, e.Timestamp)
	return err == nil && ts.After(f.To)
}

// ReplaySummary counts outcomes over the replayed entries.
type ReplaySummary struct {
	Total          int            `json:"total"`
	Blocked        int            `json:"blocked"`
	Allowed        int            `json:"allowed"`
	MaxRiskScore   int            `json:"max_risk_score"`
	PatternCounts  map[string]int `json:"pattern_counts"`
	FirstTimestamp string         `json:"first_timestamp"`
	LastTimestamp  string         `json:"last_timestamp"`
}

// ReplayResult holds the matched entries and their summary.
type ReplayResult struct {
	Filter  ReplayFilter  `json:"-"`
	Entries []Entry       `json:"entries"`
	Summary ReplaySummary `json:"summary"`
}

// Replay reads the log at path and returns the entries matching filter.
// Malformed lines are skipped; use Verify to detect them. Entries after To
// end the read, since the log is append-only in time order.
func Replay(path string, filter ReplayFilter) (*ReplayResult, error) {
	result := &ReplayResult{
		Filter:  filter,
		Entries: []Entry{},
		Summary: ReplaySummary{PatternCounts: map[string]int{}},
	}

	err := eachLine(path, func(_ int, line []byte) error {
		var entry Entry
		if json.Unmarshal(line, &entry) != nil {
			return nil
		}
		if filter.after(entry) {
			return errStop
		}
		if filter.match(entry) {
			result.Entries = append(result.Entries, entry)
			updateSummary(&result.Summary, entry)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("replay audit log: %w", err)
	}
	return result, nil
}

func updateSummary(s *ReplaySummary, e Entry) {
	s.Total++
	if e.Blocked {
		s.Blocked++
	} else {
		s.Allowed++
	}
	if e.RiskScore > s.MaxRiskScore {
		s.MaxRiskScore = e.RiskScore
	}
	for _, p := range e.Patterns {
		s.PatternCounts[p]++
	}
	if s.FirstTimestamp == "" {
		s.FirstTimestamp = e.Timestamp
	}
	s.LastTimestamp = e.Timestamp
}
