package catalog

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ppiankov/chatguard/internal/model"
)

// Config holds operator-defined catalog extensions. It is read once at
// startup; a running catalog is never changed.
type Config struct {
	ExtraEvidence []EvidenceDef `yaml:"extra_evidence"`
	ExtraIntent   []string      `yaml:"extra_intent"`
}

// EvidenceDef defines a custom blocking pattern from config.
type EvidenceDef struct {
	Name     string `yaml:"name"`
	Category string `yaml:"category"`
	Regex    string `yaml:"regex"`
}

// New returns a catalog made of the built-in rules plus the extensions in
// cfg. A nil or empty cfg returns Default().
func New(cfg *Config) (*Catalog, error) {
	if cfg == nil || (len(cfg.ExtraEvidence) == 0 && len(cfg.ExtraIntent) == 0) {
		return Default(), nil
	}

	c := Default().clone()

	for i, def := range cfg.ExtraEvidence {
		if def.Name == "" {
			return nil, fmt.Errorf("extra_evidence[%d]: name is required", i)
		}
		if def.Regex == "" {
			return nil, fmt.Errorf("extra_evidence[%d] %q: regex is required", i, def.Name)
		}
		cat, ok := parseEvidenceCategory(def.Category)
		if !ok {
			return nil, fmt.Errorf("extra_evidence[%d] %q: unknown category %q (want phone|website|email|social)", i, def.Name, def.Category)
		}
		re, err := regexp.Compile(def.Regex)
		if err != nil {
			return nil, fmt.Errorf("extra_evidence[%d] %q: invalid regex: %w", i, def.Name, err)
		}
		c.evidence[cat] = append(c.evidence[cat], &Rule{
			Name:     def.Name,
			Category: cat,
			Kind:     KindEvidence,
			re:       re,
		})
	}

	for i, phrase := range cfg.ExtraIntent {
		phrase = strings.TrimSpace(strings.ToLower(phrase))
		if phrase == "" {
			return nil, fmt.Errorf("extra_intent[%d]: phrase is empty", i)
		}
		c.intent = append(c.intent, &Rule{
			Name:     "extra_intent_" + strings.ReplaceAll(phrase, " ", "_"),
			Category: model.CategoryIntent,
			Kind:     KindIntent,
			re:       regexp.MustCompile(`\b` + phraseExpr(phrase) + `\b`),
		})
	}

	return c, nil
}

// phraseExpr quotes a phrase and lets any whitespace run stand in for a space.
func phraseExpr(phrase string) string {
	words := strings.Fields(phrase)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return strings.Join(words, `\s+`)
}

func parseEvidenceCategory(s string) (model.Category, bool) {
	switch model.Category(strings.ToLower(strings.TrimSpace(s))) {
	case model.CategoryPhone:
		return model.CategoryPhone, true
	case model.CategoryWebsite, "url", "domain":
		return model.CategoryWebsite, true
	case model.CategoryEmail:
		return model.CategoryEmail, true
	case model.CategorySocial:
		return model.CategorySocial, true
	}
	return "", false
}
