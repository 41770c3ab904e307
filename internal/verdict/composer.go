package verdict

import (
	"fmt"
	"sync/atomic"

	"github.com/ppiankov/chatguard/internal/detect"
	"github.com/ppiankov/chatguard/internal/model"
)

// Copy holds the product wording substituted into reasons.
type Copy struct {
	PlanName   string `yaml:"plan_name" json:"plan_name"`
	PartyLabel string `yaml:"party_label" json:"party_label"`
}

// DefaultCopy returns the stock wording.
func DefaultCopy() Copy {
	return Copy{PlanName: "Pro", PartyLabel: "talent"}
}

func (c Copy) withDefaults() Copy {
	d := DefaultCopy()
	if c.PlanName == "" {
		c.PlanName = d.PlanName
	}
	if c.PartyLabel == "" {
		c.PartyLabel = d.PartyLabel
	}
	return c
}

// reasonOrder is the precedence used when several categories fired.
var reasonOrder = []model.Category{
	model.CategoryPhone,
	model.CategoryWebsite,
	model.CategoryEmail,
	model.CategorySocial,
}

type reasonSet struct {
	restricted   map[model.Category]string
	counterparty map[model.Category]string
}

func buildReasons(c Copy) *reasonSet {
	c = c.withDefaults()
	return &reasonSet{
		restricted: map[model.Category]string{
			model.CategoryPhone:   fmt.Sprintf("Phone numbers are not allowed. Upgrade to %s to share contact details.", c.PlanName),
			model.CategoryWebsite: fmt.Sprintf("Website links are not allowed. Upgrade to %s to share links.", c.PlanName),
			model.CategoryEmail:   fmt.Sprintf("Email addresses are not allowed. Upgrade to %s to share contact details.", c.PlanName),
			model.CategorySocial:  fmt.Sprintf("Social media handles are not allowed. Upgrade to %s for unlimited messaging access.", c.PlanName),
			model.CategoryNone:    fmt.Sprintf("This message appears to contain contact information. Upgrade to %s to share contact details.", c.PlanName),
		},
		counterparty: map[model.Category]string{
			model.CategoryPhone:   fmt.Sprintf("This %s's plan does not allow receiving phone numbers.", c.PartyLabel),
			model.CategoryWebsite: fmt.Sprintf("This %s's plan does not allow receiving website links.", c.PartyLabel),
			model.CategoryEmail:   fmt.Sprintf("This %s's plan does not allow receiving email addresses.", c.PartyLabel),
			model.CategorySocial:  fmt.Sprintf("This %s's plan does not allow receiving social media handles.", c.PartyLabel),
			model.CategoryNone:    fmt.Sprintf("This message contains contact details that this %s's plan does not allow receiving.", c.PartyLabel),
		},
	}
}

// Composer turns a raw detection result into a FilterResult with a reason
// phrased for the sender's role. It is safe for concurrent use.
type Composer struct {
	reasons atomic.Pointer[reasonSet]
}

// NewComposer returns a composer using c. Empty fields fall back to DefaultCopy.
func NewComposer(c Copy) *Composer {
	comp := &Composer{}
	comp.SetCopy(c)
	return comp
}

// SetCopy swaps the wording. In-flight Compose calls see either the old or
// the new set, never a mix.
func (c *Composer) SetCopy(cp Copy) {
	c.reasons.Store(buildReasons(cp))
}

// Compose builds the final verdict. The reason is set only when res is blocked.
func (c *Composer) Compose(res detect.Result, role model.RoleContext) model.FilterResult {
	out := model.FilterResult{
		IsBlocked: res.Blocked,
		RiskScore: res.RiskScore,
		Patterns:  append([]model.Tag{}, res.Patterns...),
	}
	if !res.Blocked {
		return out
	}
	out.Reason = c.Reason(res.Patterns, role)
	return out
}

// Reason picks the wording for the highest-precedence category among tags.
func (c *Composer) Reason(tags []model.Tag, role model.RoleContext) string {
	set := c.reasons.Load()
	table := set.counterparty
	if role.SenderRestricted {
		table = set.restricted
	}
	return table[Category(tags)]
}

// Category returns the first category in precedence order that any of tags
// belongs to, or CategoryNone.
func Category(tags []model.Tag) model.Category {
	present := make(map[model.Category]bool, len(tags))
	for _, t := range tags {
		present[t.Category()] = true
	}
	for _, cat := range reasonOrder {
		if present[cat] {
			return cat
		}
	}
	return model.CategoryNone
}
