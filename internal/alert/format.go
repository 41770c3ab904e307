package alert

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatPayload builds the webhook body for the given format.
func FormatPayload(format string, event Event) ([]byte, error) {
	switch format {
	case "slack":
		return formatSlack(event)
	case "pagerduty":
		return formatPagerDuty(event)
	default:
		return formatGeneric(event)
	}
}

func formatGeneric(event Event) ([]byte, error) {
	return json.Marshal(event)
}

func formatSlack(event Event) ([]byte, error) {
	payload := map[string]any{
		"blocks": []any{
			map[string]any{
				"type": "header",
				"text": map[string]any{
					"type": "plain_text",
					"text": fmt.Sprintf("chatguard: blocked %s", event.Category),
				},
			},
			map[string]any{
				"type": "section",
				"fields": []any{
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Channel:* %s", event.ChannelID)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Sender:* %s (%s)", event.SenderID, roleLabel(event.SenderRestricted))},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Risk:* %d", event.RiskScore)},
					map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Patterns:* %s", strings.Join(event.Patterns, ", "))},
				},
			},
		},
	}
	return json.Marshal(payload)
}

func formatPagerDuty(event Event) ([]byte, error) {
	payload := map[string]any{
		"event_action": "trigger",
		"payload": map[string]any{
			"summary":  fmt.Sprintf("chatguard blocked %s in %s", event.Category, event.ChannelID),
			"severity": severityFor(event.RiskScore),
			"source":   "chatguard",
			"custom_details": map[string]any{
				"channel_id": event.ChannelID,
				"sender_id":  event.SenderID,
				"risk_score": event.RiskScore,
				"patterns":   event.Patterns,
				"eval_id":    event.EvalID,
			},
		},
	}
	return json.Marshal(payload)
}

// Scanner evidence scores 100; fragments accumulate below that.
func severityFor(risk int) string {
	switch {
	case risk >= 100:
		return "error"
	case risk >= 60:
		return "warning"
	default:
		return "info"
	}
}

func roleLabel(restricted bool) string {
	if restricted {
		return "restricted"
	}
	return "counterparty"
}
