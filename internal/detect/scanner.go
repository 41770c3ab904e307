package detect

import (
	"strings"

	"github.com/ppiankov/chatguard/internal/catalog"
	"github.com/ppiankov/chatguard/internal/model"
)

// Scanner checks one message in isolation against the evidence rules.
// It is stateless and safe for concurrent use.
type Scanner struct {
	cat *catalog.Catalog
}

// NewScanner returns a scanner over cat. A nil cat uses catalog.Default().
func NewScanner(cat *catalog.Catalog) *Scanner {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Scanner{cat: cat}
}

// Scan returns a blocking result and true on the first evidence category
// that matches, in the order phone, website, email, social. Intent phrases
// are never consulted here.
func (s *Scanner) Scan(text string) (Result, bool) {
	text = catalog.NormalizeSpace(text)
	if strings.TrimSpace(text) == "" {
		return Result{}, false
	}

	lower := strings.ToLower(strings.TrimSpace(text))

	for _, cat := range model.EvidenceCategories {
		subject := text
		if cat == model.CategorySocial {
			subject = lower
		}
		if catalog.MatchAny(s.cat.Evidence(cat), subject) != nil {
			return Result{
				Blocked:   true,
				RiskScore: MaxRisk,
				Patterns:  []model.Tag{model.SingleTag(cat)},
			}, true
		}
	}

	return Result{}, false
}

// Explain returns the names of every evidence rule that fires on text, for
// diagnostics. It does not stop at the first hit.
func (s *Scanner) Explain(text string) []string {
	text = catalog.NormalizeSpace(text)
	lower := strings.ToLower(strings.TrimSpace(text))
	var names []string
	for _, cat := range model.EvidenceCategories {
		subject := text
		if cat == model.CategorySocial {
			subject = lower
		}
		for _, r := range s.cat.Evidence(cat) {
			if r.Match(subject) {
				names = append(names, r.Name)
			}
		}
	}
	return names
}
