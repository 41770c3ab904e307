package detect

import "github.com/ppiankov/chatguard/internal/model"

// Result is a raw risk assessment before any reason is attached.
type Result struct {
	Blocked   bool
	RiskScore int
	Patterns  []model.Tag
}

// add records a triggered signal. Weights are non-negative, so the score
// never decreases as signals accumulate.
func (r *Result) add(tag model.Tag, weight int) {
	r.RiskScore += weight
	for _, p := range r.Patterns {
		if p == tag {
			return
		}
	}
	r.Patterns = append(r.Patterns, tag)
}

func emptyResult() Result {
	return Result{Patterns: []model.Tag{}}
}
