package catalog

import (
	"regexp"

	"github.com/ppiankov/chatguard/internal/model"
)

// Kind separates rules that can block on their own from weaker signals.
type Kind string

const (
	KindEvidence Kind = "evidence"
	KindIntent   Kind = "intent"
	KindFragment Kind = "fragment"
	KindSpacing  Kind = "spacing"
)

// Rule is an immutable lexical matcher. Matching has no side effects.
type Rule struct {
	Name     string
	Category model.Category
	Kind     Kind

	// MinDigits, when set, requires a matched span to contain at least
	// this many digits before it counts.
	MinDigits int

	re *regexp.Regexp
}

func newRule(name string, cat model.Category, kind Kind, expr string) *Rule {
	return &Rule{Name: name, Category: cat, Kind: kind, re: regexp.MustCompile(expr)}
}

// Pattern returns the rule's source expression.
func (r *Rule) Pattern() string {
	return r.re.String()
}

// Match reports whether the rule fires anywhere in text.
func (r *Rule) Match(text string) bool {
	if r.MinDigits <= 0 {
		return r.re.MatchString(text)
	}
	for _, m := range r.re.FindAllString(text, -1) {
		if countDigits(m) >= r.MinDigits {
			return true
		}
	}
	return false
}

// Count returns the number of non-overlapping occurrences in text.
func (r *Rule) Count(text string) int {
	n := 0
	for _, m := range r.re.FindAllString(text, -1) {
		if r.MinDigits > 0 && countDigits(m) < r.MinDigits {
			continue
		}
		n++
	}
	return n
}

func countDigits(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			n++
		}
	}
	return n
}

// MatchAny returns the first rule that fires, or nil.
func MatchAny(rules []*Rule, text string) *Rule {
	for _, r := range rules {
		if r.Match(text) {
			return r
		}
	}
	return nil
}

// CountMatching returns how many distinct rules fire on text.
func CountMatching(rules []*Rule, text string) int {
	n := 0
	for _, r := range rules {
		if r.Match(text) {
			n++
		}
	}
	return n
}
