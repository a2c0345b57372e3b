// Package difficulty flags words that readers with cognitive differences
// tend to stumble on, using length, syllable count, and academic affix
// heuristics.
package difficulty

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"

	"github.com/easeread/easeread/internal/metrics"
)

var prefixes = []string{
	"anti", "auto", "bio", "counter", "cyber", "hyper", "inter", "macro",
	"meta", "micro", "multi", "poly", "pseudo", "trans", "ultra", "under",
}

var suffixes = []string{
	"tion", "sion", "ment", "ology", "ism", "ity", "ive", "able", "ible",
	"ance", "ence", "ious",
}

var fold = cases.Fold()

// IsDifficult reports whether a single word is likely hard to read: longer
// than ten letters, more than three syllables, or carrying an
// academic/technical affix.
func IsDifficult(word string) bool {
	w := stripAlpha(word)
	if w == "" {
		return false
	}
	if len([]rune(w)) > 10 {
		return true
	}
	if metrics.SyllableCount(w) > 3 {
		return true
	}
	lower := strings.ToLower(w)
	for _, p := range prefixes {
		if strings.HasPrefix(lower, p) && len(lower) > len(p)+2 {
			return true
		}
	}
	for _, s := range suffixes {
		if strings.HasSuffix(lower, s) && len(lower) > len(s)+2 {
			return true
		}
	}
	return false
}

// IdentifyTerms returns the difficult words of text as unique lowercase
// terms, deduplicated by case-folded form, in first-seen order.
func IdentifyTerms(text string) []string {
	var out []string
	seen := map[string]struct{}{}
	for _, tok := range strings.Fields(text) {
		w := stripAlpha(tok)
		if w == "" || !IsDifficult(w) {
			continue
		}
		key := fold.String(w)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, strings.ToLower(w))
	}
	return out
}

func stripAlpha(s string) string {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}
