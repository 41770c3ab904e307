package model

import "time"

// Tag identifies a triggered detection signal.
type Tag string

const (
	TagSinglePhone   Tag = "single_phone"
	TagSingleWebsite Tag = "single_website"
	TagSingleEmail   Tag = "single_email"
	TagSingleSocial  Tag = "single_social"

	TagContactIntent            Tag = "contact_intent"
	TagSplitPhone               Tag = "split_phone"
	TagSplitDomain              Tag = "split_domain"
	TagSplitEmail               Tag = "split_email"
	TagSplitSocial              Tag = "split_social"
	TagNumberSequence           Tag = "number_sequence"
	TagNumberSequenceWithIntent Tag = "number_sequence_with_intent"
	TagSuspiciousSpacing        Tag = "suspicious_spacing"
)

// Category groups rules and reasons by the kind of contact detail involved.
type Category string

const (
	CategoryNone    Category = ""
	CategoryPhone   Category = "phone"
	CategoryWebsite Category = "website"
	CategoryEmail   Category = "email"
	CategorySocial  Category = "social"
	CategoryIntent  Category = "intent"
)

// EvidenceCategories is the fixed scan priority of single-message evidence.
var EvidenceCategories = []Category{CategoryPhone, CategoryWebsite, CategoryEmail, CategorySocial}

// SingleTag returns the single-message tag for an evidence category.
func SingleTag(c Category) Tag {
	switch c {
	case CategoryPhone:
		return TagSinglePhone
	case CategoryWebsite:
		return TagSingleWebsite
	case CategoryEmail:
		return TagSingleEmail
	case CategorySocial:
		return TagSingleSocial
	default:
		return ""
	}
}

// Category returns the reason category a tag belongs to.
// Intent and spacing tags carry no category of their own.
func (t Tag) Category() Category {
	switch t {
	case TagSinglePhone, TagSplitPhone, TagNumberSequence, TagNumberSequenceWithIntent:
		return CategoryPhone
	case TagSingleWebsite, TagSplitDomain:
		return CategoryWebsite
	case TagSingleEmail, TagSplitEmail:
		return CategoryEmail
	case TagSingleSocial, TagSplitSocial:
		return CategorySocial
	default:
		return CategoryNone
	}
}

// FilterResult is the verdict handed back to the transport layer.
type FilterResult struct {
	IsBlocked bool   `json:"is_blocked"`
	RiskScore int    `json:"risk_score"`
	Patterns  []Tag  `json:"patterns"`
	Reason    string `json:"reason,omitempty"`
}

// Allowed returns the empty, non-blocking verdict.
func Allowed() FilterResult {
	return FilterResult{Patterns: []Tag{}}
}

// HasPattern reports whether tag was triggered.
func (r FilterResult) HasPattern(tag Tag) bool {
	for _, p := range r.Patterns {
		if p == tag {
			return true
		}
	}
	return false
}

// PatternStrings returns the triggered tags as plain strings.
func (r FilterResult) PatternStrings() []string {
	out := make([]string, len(r.Patterns))
	for i, p := range r.Patterns {
		out[i] = string(p)
	}
	return out
}

// RoleContext carries the caller-supplied restriction flags for one evaluation.
type RoleContext struct {
	// SenderRestricted is true when the sender is the party forbidden from
	// sharing contact details (e.g. a free-tier talent).
	SenderRestricted bool `json:"sender_restricted"`
	// Bypass disables filtering entirely (e.g. paid tier).
	Bypass bool `json:"bypass"`
}

// BufferKey identifies one sender's history within one channel.
type BufferKey struct {
	ChannelID string `json:"channel_id"`
	SenderID  string `json:"sender_id"`
}

// String returns "channel/sender".
func (k BufferKey) String() string {
	return k.ChannelID + "/" + k.SenderID
}

// Valid reports whether both halves of the key are set.
func (k BufferKey) Valid() bool {
	return k.ChannelID != "" && k.SenderID != ""
}

// Message is a chat message as owned by the transport. The engine only reads it.
type Message struct {
	SenderID  string    `json:"sender_id"`
	ChannelID string    `json:"channel_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// SenderHistory returns the contents of messages sent by senderID, oldest first.
func SenderHistory(messages []Message, senderID string) []string {
	var out []string
	for _, m := range messages {
		if m.SenderID == senderID {
			out = append(out, m.Content)
		}
	}
	return out
}
