package catalog

import (
	"strings"
	"testing"

	"github.com/ppiankov/chatguard/internal/model"
)

func TestDefaultIsShared(t *testing.T) {
	if Default() != Default() {
		t.Fatal("expected Default to return the same catalog")
	}
}

func TestEvidenceCategoriesPopulated(t *testing.T) {
	c := Default()
	for _, cat := range model.EvidenceCategories {
		if len(c.Evidence(cat)) == 0 {
			t.Errorf("no evidence rules for %s", cat)
		}
		if len(c.Fragments(cat)) == 0 {
			t.Errorf("no fragment rules for %s", cat)
		}
	}
	if len(c.Intent()) == 0 {
		t.Error("no intent rules")
	}
	if len(c.Spacing()) != 3 {
		t.Errorf("expected 3 spacing rules, got %d", len(c.Spacing()))
	}
}

func TestPhoneEvidence(t *testing.T) {
	rules := Default().Evidence(model.CategoryPhone)
	hits := []string{
		"555-123-4567",
		"555.123.4567",
		"(555) 123-4567",
		"+44 2012345678",
		"5551234567",
		"1234567",
		"phone: 42",
		"number 7",
		"call me at 555 123 4",
	}
	for _, text := range hits {
		if MatchAny(rules, text) == nil {
			t.Errorf("expected phone evidence in %q", text)
		}
	}
	misses := []string{
		"call me at 555",
		"see you at 10",
		"it costs 500",
		"",
	}
	for _, text := range misses {
		if r := MatchAny(rules, text); r != nil {
			t.Errorf("unexpected phone evidence in %q (rule %s)", text, r.Name)
		}
	}
}

func TestWebsiteEvidence(t *testing.T) {
	rules := Default().Evidence(model.CategoryWebsite)
	for _, text := range []string{"https://x.y", "www.band", "mysite.com", "MYSITE.COM", "app.dev", "band.io"} {
		if MatchAny(rules, text) == nil {
			t.Errorf("expected website evidence in %q", text)
		}
	}
	if r := MatchAny(rules, "see you at the venue"); r != nil {
		t.Errorf("unexpected website evidence (rule %s)", r.Name)
	}
}

func TestEmailEvidence(t *testing.T) {
	rules := Default().Evidence(model.CategoryEmail)
	for _, text := range []string{"me@band.org", "me @ band . org"} {
		if MatchAny(rules, text) == nil {
			t.Errorf("expected email evidence in %q", text)
		}
	}
}

func TestSocialEvidence(t *testing.T) {
	rules := Default().Evidence(model.CategorySocial)
	for _, text := range []string{"@djmike", "find me on instagram", "whatsapp works", "discord"} {
		if MatchAny(rules, text) == nil {
			t.Errorf("expected social evidence in %q", text)
		}
	}
	if r := MatchAny(rules, "bigger stage please"); r != nil {
		t.Errorf("platform keyword must be a whole word (rule %s)", r.Name)
	}
}

func TestNumberTokens(t *testing.T) {
	c := Default()
	cases := map[string]int{
		"the event is 3 hours and costs 500": 1,
		"call me 555 1234":                   2,
		"12345":                              0,
		"10 20 30":                           3,
	}
	for text, want := range cases {
		if got := c.NumberTokens(text); got != want {
			t.Errorf("NumberTokens(%q) = %d, want %d", text, got, want)
		}
	}
}

func TestMinDigitsCount(t *testing.T) {
	r := newRule("t", model.CategoryPhone, KindEvidence, `\d[\d ]*`)
	r.MinDigits = 3
	if got := r.Count("12 and 345 and 6 7 8"); got != 2 {
		t.Errorf("expected 2 qualifying matches, got %d", got)
	}
	if r.Match("1 2") {
		t.Error("expected no match below MinDigits")
	}
}

func TestCountMatchingDistinctRules(t *testing.T) {
	frags := Default().Fragments(model.CategoryPhone)
	if got := CountMatching(frags, "call me at 555 1234"); got != 4 {
		t.Errorf("expected all 4 phone fragment rules, got %d", got)
	}
	if got := CountMatching(frags, "call me at 555"); got != 1 {
		t.Errorf("expected 1 phone fragment rule, got %d", got)
	}
}

func TestRulesListsEverything(t *testing.T) {
	c := Default()
	if len(c.Rules()) != c.Size() {
		t.Errorf("Rules() len %d != Size() %d", len(c.Rules()), c.Size())
	}
}

func TestNewNilConfigReturnsDefault(t *testing.T) {
	c, err := New(nil)
	if err != nil {
		t.Fatal(err)
	}
	if c != Default() {
		t.Error("expected default catalog for nil config")
	}
}

func TestNewExtraEvidence(t *testing.T) {
	c, err := New(&Config{
		ExtraEvidence: []EvidenceDef{{Name: "venmo", Category: "social", Regex: `(?i)venmo\s*[:@]?\s*\w+`}},
		ExtraIntent:   []string{"pay me directly"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if MatchAny(c.Evidence(model.CategorySocial), "venmo: band42") == nil {
		t.Error("expected extra social evidence to match")
	}
	if MatchAny(c.Intent(), "just pay   me directly") == nil {
		t.Error("expected extra intent phrase to match")
	}
	// The default catalog is untouched.
	if MatchAny(Default().Evidence(model.CategorySocial), "venmo: band42") != nil {
		t.Error("default catalog was modified")
	}
	if c.Size() != Default().Size()+2 {
		t.Errorf("expected 2 extra rules, got size %d vs %d", c.Size(), Default().Size())
	}
}

func TestNewRejectsInvalid(t *testing.T) {
	cases := []struct {
		name string
		cfg  Config
		want string
	}{
		{"missing name", Config{ExtraEvidence: []EvidenceDef{{Category: "phone", Regex: `\d`}}}, "name is required"},
		{"missing regex", Config{ExtraEvidence: []EvidenceDef{{Name: "x", Category: "phone"}}}, "regex is required"},
		{"bad category", Config{ExtraEvidence: []EvidenceDef{{Name: "x", Category: "fax", Regex: `\d`}}}, "unknown category"},
		{"bad regex", Config{ExtraEvidence: []EvidenceDef{{Name: "x", Category: "phone", Regex: `(`}}}, "invalid regex"},
		{"empty intent", Config{ExtraIntent: []string{"  "}}, "phrase is empty"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(&tc.cfg)
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Errorf("error %q does not mention %q", err, tc.want)
			}
		})
	}
}

func TestNormalizeSpace(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"plain ascii", "plain ascii"},
		{"555\u00a0123\u00a04567", "555 123 4567"},
		{"a\u2009b\u3000c\u2028d\ufeffe", "a b c d e"},
		{"caf\u00e9 stays", "caf\u00e9 stays"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeSpace(tt.in); got != tt.want {
			t.Errorf("NormalizeSpace(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
