package audit

import "github.com/ppiankov/chatguard/internal/model"

// Entry is one verdict line in the hash-chained JSONL audit log.
// Message text is never recorded, only the outcome and triggered tags.
// Fields are plain structs and slices so json.Marshal output is stable
// for reproducible hashing.
type Entry struct {
	Timestamp  string   `json:"ts"`
	EvalID     string   `json:"eval_id"`
	ChannelID  string   `json:"channel_id"`
	SenderID   string   `json:"sender_id"`
	Blocked    bool     `json:"blocked"`
	RiskScore  int      `json:"risk_score"`
	Patterns   []string `json:"patterns"`
	Reason     string   `json:"reason,omitempty"`
	ConfigHash string   `json:"config_hash"`
	PrevHash   string   `json:"prev_hash"`
}

// NewEntry builds the log line for one verdict.
func NewEntry(evalID string, key model.BufferKey, res model.FilterResult, configHash string) Entry {
	return Entry{
		EvalID:     evalID,
		ChannelID:  key.ChannelID,
		SenderID:   key.SenderID,
		Blocked:    res.IsBlocked,
		RiskScore:  res.RiskScore,
		Patterns:   res.PatternStrings(),
		Reason:     res.Reason,
		ConfigHash: configHash,
	}
}
