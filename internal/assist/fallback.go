package assist

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// substitutions maps difficult words to plain equivalents for the offline
// simplify/plain-language paths. Matching is whole-word, case-insensitive;
// replacements keep an initial capital when the original had one.
var substitutions = map[string]string{
	"accomplish":      "do",
	"additional":      "more",
	"approximately":   "about",
	"assistance":      "help",
	"attempt":         "try",
	"commence":        "start",
	"component":       "part",
	"concerning":      "about",
	"consequently":    "so",
	"demonstrate":     "show",
	"sufficient":      "enough",
	"terminate":       "end",
	"transmit":        "send",
	"utilize":         "use",
	"endeavor":        "try",
	"facilitate":      "help",
	"frequently":      "often",
	"fundamental":     "basic",
	"implement":       "do",
	"indicate":        "show",
	"individual":      "person",
	"initial":         "first",
	"numerous":        "many",
	"objective":       "goal",
	"obtain":          "get",
	"prioritize":      "rank",
	"purchase":        "buy",
	"regarding":       "about",
	"requirement":     "need",
	"subsequently":    "later",
	"nevertheless":    "still",
	"notwithstanding": "despite",
	"methodology":     "method",
	"modification":    "change",
	"participate":     "take part",
}

// casualPairs loosen register for the casual tone fallback.
var casualPairs = [][2]string{
	{"do not", "don't"},
	{"does not", "doesn't"},
	{"cannot", "can't"},
	{"will not", "won't"},
	{"it is", "it's"},
	{"that is", "that's"},
}

var sentenceSplit = regexp.MustCompile(`(?s)(.*?[.!?])(\s+|$)`)

// Fallback is the deterministic, offline Service. Every operation degrades
// gracefully: where no rule-based rewrite is sensible the input is returned
// unchanged rather than failing.
type Fallback struct {
	// Dict backs offline idiom detection and explanation.
	Dict IdiomDictionary

	wordRe map[string]*regexp.Regexp
}

var _ Service = (*Fallback)(nil)

// NewFallback compiles the substitution patterns once.
func NewFallback(dict IdiomDictionary) *Fallback {
	f := &Fallback{Dict: dict, wordRe: make(map[string]*regexp.Regexp, len(substitutions))}
	for from := range substitutions {
		f.wordRe[from] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`)
	}
	return f
}

// Probe always reports Ready: the fallback has no external dependency.
func (f *Fallback) Probe(context.Context) Availability { return Ready }

// Summarize extracts the first sentences of the text.
func (f *Fallback) Summarize(_ context.Context, text string, opts SummarizeOpts) (string, error) {
	if len(text) > summarizeInputLimit {
		text = text[:summarizeInputLimit]
	}
	n := 3
	switch opts.Length {
	case "short":
		n = 2
	case "long":
		n = 5
	}
	if opts.Type == "headline" {
		n = 1
	}
	sents := splitSentences(text)
	if len(sents) > n {
		sents = sents[:n]
	}
	return strings.Join(sents, " "), nil
}

func (f *Fallback) Simplify(_ context.Context, text, _ string) (string, error) {
	return f.substitute(text), nil
}

// Expand has no deterministic rule that adds information; the text passes
// through unchanged.
func (f *Fallback) Expand(_ context.Context, text string) (string, error) {
	return text, nil
}

func (f *Fallback) RewriteTone(_ context.Context, text, tone string) (string, error) {
	switch tone {
	case ToneCasual:
		for _, p := range casualPairs {
			text = replaceFold(text, p[0], p[1])
		}
	case ToneFormal:
		for _, p := range casualPairs {
			text = replaceFold(text, p[1], p[0])
		}
	}
	return text, nil
}

// Restructure breaks semicolon-joined clauses into separate sentences.
func (f *Fallback) Restructure(_ context.Context, text string) (string, error) {
	parts := strings.Split(text, "; ")
	for i := 1; i < len(parts); i++ {
		parts[i] = capitalize(parts[i])
	}
	out := strings.Join(parts, ". ")
	return out, nil
}

func (f *Fallback) ActiveVoice(_ context.Context, text string) (string, error) {
	return text, nil
}

func (f *Fallback) PlainLanguage(_ context.Context, text, _ string) (string, error) {
	return f.substitute(text), nil
}

// DetectIdiom consults the static dictionary.
func (f *Fallback) DetectIdiom(_ context.Context, sentence string) (IdiomResult, error) {
	if f.Dict == nil {
		return IdiomResult{}, nil
	}
	idiom, literal, ok := f.Dict.FindPhrase(sentence)
	if !ok {
		return IdiomResult{}, nil
	}
	return IdiomResult{HasIdiom: true, Idiom: idiom, Literal: literal}, nil
}

func (f *Fallback) ExplainTerm(_ context.Context, term, sentenceContext string) (string, error) {
	if simple, ok := substitutions[strings.ToLower(term)]; ok {
		return fmt.Sprintf("%q here means roughly %q.", term, simple), nil
	}
	return fmt.Sprintf("%q is an uncommon word; reading the sentence around it may help: %q.", term, sentenceContext), nil
}

func (f *Fallback) ExplainIdiom(_ context.Context, idiom string) (string, error) {
	if f.Dict != nil {
		if _, literal, ok := f.Dict.FindPhrase(idiom); ok {
			return literal, nil
		}
	}
	return fmt.Sprintf("%q is a figurative phrase; it is not meant literally.", idiom), nil
}

func (f *Fallback) substitute(text string) string {
	for from, to := range substitutions {
		re, ok := f.wordRe[from]
		if !ok {
			continue
		}
		text = re.ReplaceAllStringFunc(text, func(m string) string {
			if m != "" && unicode.IsUpper([]rune(m)[0]) {
				return capitalize(to)
			}
			return to
		})
	}
	return text
}

func splitSentences(text string) []string {
	var out []string
	rest := text
	for {
		loc := sentenceSplit.FindStringSubmatchIndex(rest)
		if loc == nil {
			break
		}
		s := strings.TrimSpace(rest[loc[2]:loc[3]])
		if s != "" {
			out = append(out, s)
		}
		rest = rest[loc[1]:]
		if rest == "" {
			break
		}
	}
	if tail := strings.TrimSpace(rest); tail != "" {
		out = append(out, tail)
	}
	return out
}

func replaceFold(text, from, to string) string {
	re := regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(from) + `\b`)
	return re.ReplaceAllString(text, to)
}

func capitalize(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}
