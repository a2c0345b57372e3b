package idiom

import (
	"context"
	"strings"
	"sync"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/easeread/easeread/internal/assist"
	"github.com/easeread/easeread/internal/page"
)

// Wrapped spans carry these attributes. data-original holds the containing
// sentence for later context-aware explanation; the literal meaning is left
// unset so hover surfaces can fetch it lazily.
const (
	AttrIdiom    = "data-idiom"
	AttrOriginal = "data-original"
)

// Match is one detected idiom, ephemeral per scan pass.
type Match struct {
	Idiom    string
	Literal  string
	Sentence string
	Start    int // byte offset of the idiom within Sentence
	End      int
}

// Scanner finds idioms sentence by sentence. With DictOnly set (the
// low-cost bulk mode) the model is never consulted.
type Scanner struct {
	Assist   assist.Service
	Dict     *Dictionary
	DictOnly bool

	tok *sentences.DefaultSentenceTokenizer

	mu           sync.Mutex
	explanations map[string]string
}

// NewScanner builds a scanner over the default dictionary. svc may be nil
// for pure dictionary scanning.
func NewScanner(svc assist.Service, dictOnly bool) (*Scanner, error) {
	tok, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, err
	}
	return &Scanner{
		Assist:       svc,
		Dict:         Default(),
		DictOnly:     dictOnly,
		tok:          tok,
		explanations: make(map[string]string),
	}, nil
}

// Scan inspects a single sentence. The model path is tried first and its
// structured result trusted on success; any failure drops to the dictionary
// for this call only.
func (s *Scanner) Scan(ctx context.Context, sentence string) (Match, bool) {
	if !s.DictOnly && s.Assist != nil {
		res, err := s.Assist.DetectIdiom(ctx, sentence)
		if err == nil {
			if !res.HasIdiom {
				return Match{}, false
			}
			if start, end, ok := findFold(sentence, res.Idiom); ok {
				return Match{Idiom: res.Idiom, Literal: res.Literal, Sentence: sentence, Start: start, End: end}, true
			}
			// The model named a phrase that is not actually in the
			// sentence; treat as a miss rather than wrapping nothing.
			return Match{}, false
		}
		log.Debug().Err(err).Msg("idiom model scan failed, using dictionary")
	}
	entry, start, ok := s.Dict.Locate(sentence)
	if !ok {
		return Match{}, false
	}
	return Match{
		Idiom:    entry.Phrase,
		Literal:  entry.Literal,
		Sentence: sentence,
		Start:    start,
		End:      start + len(entry.Phrase),
	}, true
}

// FindAll scans running text and reports every detected idiom, at most one
// per sentence.
func (s *Scanner) FindAll(ctx context.Context, text string) []Match {
	var out []Match
	for _, sent := range s.tok.Tokenize(text) {
		if ctx.Err() != nil {
			return out
		}
		trimmed := strings.TrimSpace(sent.Text)
		if len(trimmed) < 4 {
			continue
		}
		if m, ok := s.Scan(ctx, trimmed); ok {
			out = append(out, m)
		}
	}
	return out
}

// Annotate scans every text node under container and wraps the first idiom
// of each sentence in a span, preserving the original letter-casing of the
// matched text. Returns the number of wrapped idioms.
func (s *Scanner) Annotate(ctx context.Context, doc *page.Document, container *html.Node) (int, error) {
	wrapped := 0
	for _, tn := range page.TextNodes(container) {
		if ctx.Err() != nil {
			return wrapped, ctx.Err()
		}
		if !doc.IsAttached(tn) || insideWrap(tn) {
			continue
		}
		wrapped += s.annotateTextNode(ctx, tn)
	}
	if wrapped > 0 {
		log.Debug().Int("idioms", wrapped).Msg("annotated idioms")
	}
	return wrapped, nil
}

type wrapRange struct {
	start, end int
	idiom      string
	sentence   string
}

func (s *Scanner) annotateTextNode(ctx context.Context, tn *html.Node) int {
	data := tn.Data
	if strings.TrimSpace(data) == "" {
		return 0
	}
	var ranges []wrapRange
	searchFrom := 0
	for _, sent := range s.tok.Tokenize(data) {
		text := strings.TrimSpace(sent.Text)
		if len(text) < 4 {
			continue
		}
		sentStart := strings.Index(data[searchFrom:], text)
		if sentStart < 0 {
			continue
		}
		sentStart += searchFrom
		searchFrom = sentStart + len(text)

		m, ok := s.Scan(ctx, text)
		if !ok {
			continue
		}
		ranges = append(ranges, wrapRange{
			start:    sentStart + m.Start,
			end:      sentStart + m.End,
			idiom:    m.Idiom,
			sentence: text,
		})
	}
	if len(ranges) == 0 {
		return 0
	}
	return s.applyWraps(tn, ranges)
}

// applyWraps wraps each range of tn in a span, ranges ascending and
// non-overlapping. Wrapping works back to front: each split leaves the text
// before the wrapped segment as a fresh node, so earlier offsets stay valid.
func (s *Scanner) applyWraps(tn *html.Node, ranges []wrapRange) int {
	wrapped := 0
	cur := tn
	for i := len(ranges) - 1; i >= 0; i-- {
		r := ranges[i]
		span := page.WrapTextRange(cur, r.start, r.end, "span", []html.Attribute{
			{Key: "class", Val: "easeread-idiom"},
			{Key: AttrIdiom, Val: r.idiom},
			{Key: AttrOriginal, Val: r.sentence},
		})
		if span == nil {
			continue
		}
		wrapped++
		if r.start == 0 {
			break
		}
		cur = span.PrevSibling
		if cur == nil || cur.Type != html.TextNode {
			break
		}
	}
	return wrapped
}

// Strip removes every idiom wrapper under container, replacing each span
// with a plain text node holding the idiom attribute's value. Lossy only
// for markup inside the span, which never exists: spans wrap plain matched
// text. Idempotent.
func (s *Scanner) Strip(container *html.Node) int {
	spans := page.QueryAll(container, "span.easeread-idiom")
	for _, sp := range spans {
		page.ReplaceWith(sp, &html.Node{Type: html.TextNode, Data: page.Attr(sp, AttrIdiom)})
	}
	return len(spans)
}

// Explain resolves an idiom's literal meaning lazily, memoized so hovering
// the same idiom twice costs one model call at most.
func (s *Scanner) Explain(ctx context.Context, idiom string) (string, error) {
	s.mu.Lock()
	if cached, ok := s.explanations[idiom]; ok {
		s.mu.Unlock()
		return cached, nil
	}
	s.mu.Unlock()

	var out string
	var err error
	if !s.DictOnly && s.Assist != nil {
		out, err = s.Assist.ExplainIdiom(ctx, idiom)
	}
	if out == "" {
		if _, literal, ok := s.Dict.FindPhrase(idiom); ok {
			out, err = literal, nil
		}
	}
	if err != nil {
		return "", err
	}
	s.mu.Lock()
	s.explanations[idiom] = out
	s.mu.Unlock()
	return out, nil
}

func insideWrap(n *html.Node) bool {
	return page.HasAncestor(n, func(a *html.Node) bool {
		return page.Attr(a, AttrIdiom) != ""
	})
}

// findFold locates needle in haystack case-insensitively, returning byte
// offsets into haystack.
func findFold(haystack, needle string) (int, int, bool) {
	if needle == "" {
		return 0, 0, false
	}
	i := strings.Index(strings.ToLower(haystack), strings.ToLower(needle))
	if i < 0 {
		return 0, 0, false
	}
	return i, i + len(needle), true
}
