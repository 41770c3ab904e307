package audit

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"
)

const separator = "──────────────────────────────────────────────────────────────────"

// FormatTimeline renders a ReplayResult as a human-readable timeline.
func FormatTimeline(result *ReplayResult) string {
	scope := scopeLabel(result.Filter)
	if len(result.Entries) == 0 {
		return fmt.Sprintf("%s | No entries found.\n", scope)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s | %s–%s UTC\n", scope,
		formatDateTime(result.Summary.FirstTimestamp),
		formatTimeOnly(result.Summary.LastTimestamp)))
	b.WriteString(separator + "\n")

	for _, e := range result.Entries {
		outcome := "ALLOW"
		if e.Blocked {
			outcome = "BLOCK"
		}
		b.WriteString(fmt.Sprintf("%-10s %-5s %3d  %-24s %s\n",
			formatTimeOnly(e.Timestamp),
			outcome,
			e.RiskScore,
			truncate(e.ChannelID+"/"+e.SenderID, 24),
			strings.Join(e.Patterns, ",")))
	}

	b.WriteString(separator + "\n")
	b.WriteString(formatSummary(result.Summary))
	return b.String()
}

// FormatJSON renders a ReplayResult as indented JSON.
func FormatJSON(result *ReplayResult) (string, error) {
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal replay result: %w", err)
	}
	return string(data), nil
}

func scopeLabel(f ReplayFilter) string {
	channel, sender := f.ChannelID, f.SenderID
	if channel == "" {
		channel = "*"
	}
	if sender == "" {
		sender = "*"
	}
	return fmt.Sprintf("Conversation: %s/%s", channel, sender)
}

func formatDateTime(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("2006-01-02 15:04:05")
}

func formatTimeOnly(ts string) string {
	t, err := time.Parse(TimestampFormat, ts)
	if err != nil {
		return ts
	}
	return t.Format("15:04:05")
}

func formatSummary(s ReplaySummary) string {
	tags := make([]string, 0, len(s.PatternCounts))
	for tag := range s.PatternCounts {
		tags = append(tags, tag)
	}
	sort.Strings(tags)

	parts := make([]string, 0, len(tags))
	for _, tag := range tags {
		parts = append(parts, fmt.Sprintf("%s=%d", tag, s.PatternCounts[tag]))
	}
	line := fmt.Sprintf("Summary: %d blocked, %d allowed | Max risk: %d", s.Blocked, s.Allowed, s.MaxRiskScore)
	if len(parts) > 0 {
		line += " | " + strings.Join(parts, " ")
	}
	return line + "\n"
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}
