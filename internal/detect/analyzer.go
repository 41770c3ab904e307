package detect

import (
	"strings"

	"github.com/ppiankov/chatguard/internal/catalog"
	"github.com/ppiankov/chatguard/internal/model"
)

// Analyzer scores a new message together with the sender's recent history
// for contact details split across several messages.
type Analyzer struct {
	cat *catalog.Catalog
}

// NewAnalyzer returns an analyzer over cat. A nil cat uses catalog.Default().
func NewAnalyzer(cat *catalog.Catalog) *Analyzer {
	if cat == nil {
		cat = catalog.Default()
	}
	return &Analyzer{cat: cat}
}

// splitChecks are the fragment categories scored only when intent is present.
var splitChecks = []struct {
	category model.Category
	tag      model.Tag
	weight   int
	minRules int
}{
	{model.CategoryPhone, model.TagSplitPhone, SplitPhoneWeight, minSplitPhoneRules},
	{model.CategoryWebsite, model.TagSplitDomain, SplitDomainWeight, 1},
	{model.CategoryEmail, model.TagSplitEmail, SplitEmailWeight, 1},
	{model.CategorySocial, model.TagSplitSocial, SplitSocialWeight, 1},
}

// Analyze scores text joined with history, which must not already contain
// text. Scoring is additive:
//  1. Window: last AnalysisWindow history entries + text, lower-cased
//  2. Contact intent: +15
//  3. Split fragments: only with intent
//  4. Bare 2-4 digit tokens: +40 for two or more, +25 for one with intent
//  5. Suspicious spacing: +20
//  6. Block at BlockThreshold
func (a *Analyzer) Analyze(text string, history []string) Result {
	window := Window(text, history)
	res := emptyResult()

	hasIntent := catalog.MatchAny(a.cat.Intent(), window) != nil
	if hasIntent {
		res.add(model.TagContactIntent, IntentWeight)

		for _, sc := range splitChecks {
			if catalog.CountMatching(a.cat.Fragments(sc.category), window) >= sc.minRules {
				res.add(sc.tag, sc.weight)
			}
		}
	}

	numbers := a.cat.NumberTokens(window)
	switch {
	case numbers >= 2:
		res.add(model.TagNumberSequence, NumberSequenceWeight)
	case numbers == 1 && hasIntent:
		res.add(model.TagNumberSequenceWithIntent, NumberWithIntentWeight)
	}

	if catalog.MatchAny(a.cat.Spacing(), window) != nil {
		res.add(model.TagSuspiciousSpacing, SpacingWeight)
	}

	res.Blocked = res.RiskScore >= BlockThreshold
	return res
}

// Window builds the lower-cased analysis text from the most recent history
// entries followed by text, with Unicode spaces folded to ASCII.
func Window(text string, history []string) string {
	if len(history) > AnalysisWindow {
		history = history[len(history)-AnalysisWindow:]
	}
	parts := make([]string, 0, len(history)+1)
	parts = append(parts, history...)
	parts = append(parts, text)
	return strings.ToLower(catalog.NormalizeSpace(strings.Join(parts, " ")))
}
