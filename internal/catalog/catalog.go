package catalog

import "github.com/ppiankov/chatguard/internal/model"

// Catalog is the full set of rules used by the scanner and the analyzer.
// A Catalog is never modified after construction and may be shared freely
// across goroutines.
type Catalog struct {
	evidence    map[model.Category][]*Rule
	fragments   map[model.Category][]*Rule
	intent      []*Rule
	spacing     []*Rule
	numberToken *Rule
}

var defaultCatalog = build()

// Default returns the process-global built-in catalog.
func Default() *Catalog {
	return defaultCatalog
}

func build() *Catalog {
	c := &Catalog{
		evidence:    make(map[model.Category][]*Rule, len(evidenceDefs)),
		fragments:   make(map[model.Category][]*Rule, len(fragmentDefs)),
		numberToken: newRule("number_token", model.CategoryPhone, KindFragment, numberTokenExpr),
	}
	for _, d := range evidenceDefs {
		r := newRule(d.name, d.category, KindEvidence, d.expr)
		r.MinDigits = d.minDigits
		c.evidence[d.category] = append(c.evidence[d.category], r)
	}
	for _, d := range fragmentDefs {
		c.fragments[d.category] = append(c.fragments[d.category], newRule(d.name, d.category, KindFragment, d.expr))
	}
	for _, d := range intentDefs {
		c.intent = append(c.intent, newRule(d.name, model.CategoryIntent, KindIntent, d.expr))
	}
	for _, d := range spacingDefs {
		c.spacing = append(c.spacing, newRule(d.name, model.CategoryNone, KindSpacing, d.expr))
	}
	return c
}

// clone returns a shallow copy whose rule slices can be extended without
// touching the receiver.
func (c *Catalog) clone() *Catalog {
	out := &Catalog{
		evidence:    make(map[model.Category][]*Rule, len(c.evidence)),
		fragments:   make(map[model.Category][]*Rule, len(c.fragments)),
		intent:      append([]*Rule(nil), c.intent...),
		spacing:     append([]*Rule(nil), c.spacing...),
		numberToken: c.numberToken,
	}
	for k, v := range c.evidence {
		out.evidence[k] = append([]*Rule(nil), v...)
	}
	for k, v := range c.fragments {
		out.fragments[k] = append([]*Rule(nil), v...)
	}
	return out
}

// Evidence returns the blocking rules for one category, built-ins first.
func (c *Catalog) Evidence(cat model.Category) []*Rule {
	return c.evidence[cat]
}

// Fragments returns the split-evidence sub-patterns for one category.
func (c *Catalog) Fragments(cat model.Category) []*Rule {
	return c.fragments[cat]
}

// Intent returns the contact-intent rules.
func (c *Catalog) Intent() []*Rule {
	return c.intent
}

// Spacing returns the suspicious-spacing rules.
func (c *Catalog) Spacing() []*Rule {
	return c.spacing
}

// NumberTokens counts standalone 2-4 digit tokens in text.
func (c *Catalog) NumberTokens(text string) int {
	return c.numberToken.Count(text)
}

// Size returns the total number of rules.
func (c *Catalog) Size() int {
	n := len(c.intent) + len(c.spacing) + 1
	for _, v := range c.evidence {
		n += len(v)
	}
	for _, v := range c.fragments {
		n += len(v)
	}
	return n
}

// Rules returns every rule in scan order, for listing and diagnostics.
func (c *Catalog) Rules() []*Rule {
	var out []*Rule
	for _, cat := range model.EvidenceCategories {
		out = append(out, c.evidence[cat]...)
	}
	out = append(out, c.intent...)
	for _, cat := range model.EvidenceCategories {
		out = append(out, c.fragments[cat]...)
	}
	out = append(out, c.numberToken)
	return append(out, c.spacing...)
}
