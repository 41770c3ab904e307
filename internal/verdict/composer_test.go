package verdict

import (
	"strings"
	"sync"
	"testing"

	"github.com/ppiankov/chatguard/internal/detect"
	"github.com/ppiankov/chatguard/internal/model"
)

var (
	restricted   = model.RoleContext{SenderRestricted: true}
	counterparty = model.RoleContext{}
)

func blocked(tags ...model.Tag) detect.Result {
	return detect.Result{Blocked: true, RiskScore: 100, Patterns: tags}
}

func TestComposeAllowedHasNoReason(t *testing.T) {
	c := NewComposer(DefaultCopy())
	res := c.Compose(detect.Result{RiskScore: 15, Patterns: []model.Tag{model.TagContactIntent}}, restricted)
	if res.IsBlocked {
		t.Fatal("expected allowed")
	}
	if res.Reason != "" {
		t.Errorf("allowed verdict carries reason %q", res.Reason)
	}
	if res.RiskScore != 15 || len(res.Patterns) != 1 {
		t.Errorf("score/patterns not carried through: %+v", res)
	}
}

func TestComposeNilPatternsBecomeEmpty(t *testing.T) {
	c := NewComposer(DefaultCopy())
	res := c.Compose(detect.Result{}, counterparty)
	if res.Patterns == nil {
		t.Error("expected empty, non-nil patterns")
	}
}

func TestRestrictedPhrasing(t *testing.T) {
	c := NewComposer(DefaultCopy())
	cases := map[model.Tag]string{
		model.TagSinglePhone:   "Phone numbers are not allowed. Upgrade to Pro to share contact details.",
		model.TagSingleWebsite: "Website links are not allowed. Upgrade to Pro to share links.",
		model.TagSingleEmail:   "Email addresses are not allowed. Upgrade to Pro to share contact details.",
		model.TagSingleSocial:  "Social media handles are not allowed. Upgrade to Pro for unlimited messaging access.",
	}
	for tag, want := range cases {
		got := c.Compose(blocked(tag), restricted).Reason
		if got != want {
			t.Errorf("%s: got %q, want %q", tag, got, want)
		}
	}
}

func TestCounterpartyPhrasing(t *testing.T) {
	c := NewComposer(DefaultCopy())
	cases := map[model.Tag]string{
		model.TagSinglePhone:   "This talent's plan does not allow receiving phone numbers.",
		model.TagSplitDomain:   "This talent's plan does not allow receiving website links.",
		model.TagSplitEmail:    "This talent's plan does not allow receiving email addresses.",
		model.TagSplitSocial:   "This talent's plan does not allow receiving social media handles.",
		model.TagContactIntent: "This message contains contact details that this talent's plan does not allow receiving.",
	}
	for tag, want := range cases {
		got := c.Compose(blocked(tag), counterparty).Reason
		if got != want {
			t.Errorf("%s: got %q, want %q", tag, got, want)
		}
	}
}

func TestRoleWordingDiffers(t *testing.T) {
	c := NewComposer(DefaultCopy())
	for _, tag := range []model.Tag{model.TagSinglePhone, model.TagSplitDomain, model.TagSuspiciousSpacing} {
		r := c.Compose(blocked(tag), restricted).Reason
		p := c.Compose(blocked(tag), counterparty).Reason
		if !strings.Contains(r, "Upgrade") {
			t.Errorf("%s: restricted reason lacks upgrade prompt: %q", tag, r)
		}
		if strings.Contains(p, "Upgrade") || !strings.Contains(p, "plan") {
			t.Errorf("%s: counterparty reason should reference the plan: %q", tag, p)
		}
	}
}

func TestPrecedence(t *testing.T) {
	tests := []struct {
		tags []model.Tag
		want model.Category
	}{
		{[]model.Tag{model.TagSplitSocial, model.TagSplitPhone}, model.CategoryPhone},
		{[]model.Tag{model.TagSplitEmail, model.TagSplitDomain}, model.CategoryWebsite},
		{[]model.Tag{model.TagSplitSocial, model.TagSplitEmail}, model.CategoryEmail},
		{[]model.Tag{model.TagContactIntent, model.TagNumberSequence}, model.CategoryPhone},
		{[]model.Tag{model.TagContactIntent, model.TagSuspiciousSpacing}, model.CategoryNone},
		{nil, model.CategoryNone},
	}
	for _, tt := range tests {
		if got := Category(tt.tags); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.tags, got, tt.want)
		}
	}
}

func TestCustomCopy(t *testing.T) {
	c := NewComposer(Copy{PlanName: "Plus", PartyLabel: "artist"})
	r := c.Compose(blocked(model.TagSingleWebsite), restricted).Reason
	if r != "Website links are not allowed. Upgrade to Plus to share links." {
		t.Errorf("unexpected restricted reason %q", r)
	}
	p := c.Compose(blocked(model.TagSingleWebsite), counterparty).Reason
	if p != "This artist's plan does not allow receiving website links." {
		t.Errorf("unexpected counterparty reason %q", p)
	}
}

func TestPartialCopyFallsBack(t *testing.T) {
	c := NewComposer(Copy{PlanName: "Plus"})
	p := c.Compose(blocked(model.TagSinglePhone), counterparty).Reason
	if !strings.Contains(p, "talent's") {
		t.Errorf("expected default party label, got %q", p)
	}
}

func TestSetCopyConcurrent(t *testing.T) {
	c := NewComposer(DefaultCopy())
	valid := map[string]bool{
		"Phone numbers are not allowed. Upgrade to Pro to share contact details.":  true,
		"Phone numbers are not allowed. Upgrade to Plus to share contact details.": true,
	}

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			c.SetCopy(Copy{PlanName: "Plus"})
			c.SetCopy(DefaultCopy())
		}()
		go func() {
			defer wg.Done()
			r := c.Compose(blocked(model.TagSinglePhone), restricted).Reason
			if !valid[r] {
				t.Errorf("torn reason %q", r)
			}
		}()
	}
	wg.Wait()
}
