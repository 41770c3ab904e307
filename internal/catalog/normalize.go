package catalog

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// NormalizeSpace maps Unicode whitespace (NBSP, thin and ideographic
// spaces, line separators, BOM) to an ASCII space. RE2's \s only matches
// ASCII whitespace. ASCII-only text is returned unchanged.
func NormalizeSpace(text string) string {
	if !hasWideSpace(text) {
		return text
	}
	return strings.Map(func(r rune) rune {
		if isWideSpace(r) {
			return ' '
		}
		return r
	}, text)
}

func hasWideSpace(text string) bool {
	for i := 0; i < len(text); i++ {
		if text[i] >= utf8.RuneSelf {
			return strings.IndexFunc(text[i:], isWideSpace) >= 0
		}
	}
	return false
}

func isWideSpace(r rune) bool {
	return r >= utf8.RuneSelf && (unicode.IsSpace(r) || r == '\ufeff')
}
