// Package alert notifies moderation webhooks about blocked messages.
package alert

// Config defines a webhook destination.
type Config struct {
	URL     string            `yaml:"url"     json:"url"`
	Format  string            `yaml:"format"  json:"format"` // "generic", "slack", "pagerduty"
	Events  []string          `yaml:"events"  json:"events"` // "block" or categories: "phone", "website", "email", "social"
	Headers map[string]string `yaml:"headers" json:"headers"`
}

// Event is the payload sent to webhook endpoints. It never carries
// message text.
type Event struct {
	Timestamp        string   `json:"timestamp"`
	EvalID           string   `json:"eval_id"`
	ChannelID        string   `json:"channel_id"`
	SenderID         string   `json:"sender_id"`
	SenderRestricted bool     `json:"sender_restricted"`
	Category         string   `json:"category"`
	RiskScore        int      `json:"risk_score"`
	Patterns         []string `json:"patterns"`
	ConfigHash       string   `json:"config_hash"`
}

// EventBlock matches every blocked verdict.
const EventBlock = "block"
