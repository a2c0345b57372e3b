// Package chunk partitions a content subtree into minimal presentable units
// for sequential focus navigation. Chunks hold weak references into the live
// tree and are rebuilt from scratch on every request; callers must re-chunk
// after any transform mutates the document.
package chunk

import (
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/easeread/easeread/internal/locate"
	"github.com/easeread/easeread/internal/page"
)

// ErrNoContent signals that nothing on the page was chunkable. Callers
// surface it as a "no content found" outcome, not a crash.
var ErrNoContent = errors.New("no chunkable content")

// Kind classifies a chunk by its source element.
type Kind string

const (
	KindParagraph Kind = "paragraph"
	KindHeading   Kind = "heading"
	KindListItem  Kind = "listItem"
	KindQuote     Kind = "quote"
)

// Chunk is one presentable unit. Node is a non-owning reference into the
// live document; revalidate with Document.IsAttached before mutating.
type Chunk struct {
	Node *html.Node
	Text string
	Kind Kind
}

// Opts tunes the acceptance gates. Per-feature thresholds are configuration,
// not one shared constant.
type Opts struct {
	// MinTextLen applies to p, headings, list items and quotes.
	MinTextLen int
	// MinDivTextLen applies to bare div candidates.
	MinDivTextLen int
	// MaxDivBlockChildren rejects wrapper divs holding more nested blocks.
	MaxDivBlockChildren int
	// UIPrefix marks the engine's own injected elements by id/class prefix.
	UIPrefix string
}

// DefaultOpts returns the standard gates.
func DefaultOpts() Opts {
	return Opts{
		MinTextLen:          10,
		MinDivTextLen:       50,
		MaxDivBlockChildren: 2,
		UIPrefix:            "easeread-",
	}
}

// Chunker extracts chunks from a document.
type Chunker struct {
	Opts Opts
}

// New returns a Chunker with default gates.
func New() *Chunker {
	return &Chunker{Opts: DefaultOpts()}
}

var candidateTags = map[string]Kind{
	"p": KindParagraph, "blockquote": KindQuote, "li": KindListItem,
	"h1": KindHeading, "h2": KindHeading, "h3": KindHeading,
	"h4": KindHeading, "h5": KindHeading, "h6": KindHeading,
	"div": KindParagraph,
}

var blockTags = map[string]bool{
	"p": true, "h1": true, "h2": true, "h3": true, "h4": true, "h5": true,
	"h6": true, "div": true, "article": true, "section": true,
}

// Chunks walks the main content (or the subtree matching containerHint) and
// returns accepted chunks in document order. Returns ErrNoContent when the
// page yields nothing.
func (c *Chunker) Chunks(doc *page.Document, containerHint string) ([]Chunk, error) {
	container := c.container(doc, containerHint)
	var out []Chunk
	var dfs func(*html.Node)
	dfs = func(n *html.Node) {
		if n.Type == html.ElementNode {
			kind, candidate := candidateTags[strings.ToLower(n.Data)]
			if candidate && c.accept(n) {
				out = append(out, Chunk{
					Node: n,
					Text: strings.TrimSpace(page.Text(n)),
					Kind: kind,
				})
				// Accepted nodes are leaves of the chunk sequence; nested
				// candidates would duplicate their text.
				return
			}
		}
		for ch := n.FirstChild; ch != nil; ch = ch.NextSibling {
			dfs(ch)
		}
	}
	dfs(container)
	if len(out) == 0 {
		return nil, ErrNoContent
	}
	log.Debug().Int("chunks", len(out)).Msg("chunked content")
	return out, nil
}

func (c *Chunker) container(doc *page.Document, hint string) *html.Node {
	if hint != "" {
		if n := page.QueryFirst(doc.Root(), hint); n != nil {
			return n
		}
	}
	return locate.Main(doc)
}

func (c *Chunker) accept(n *html.Node) bool {
	if c.excluded(n) {
		return false
	}
	text := strings.TrimSpace(page.Text(n))
	tag := strings.ToLower(n.Data)
	if tag == "div" {
		if len(text) < c.Opts.MinDivTextLen {
			return false
		}
		if countBlockDescendants(n) > c.Opts.MaxDivBlockChildren {
			return false
		}
		return true
	}
	return len(text) >= c.Opts.MinTextLen
}

// excluded filters navigation, boilerplate and the engine's own UI.
func (c *Chunker) excluded(n *html.Node) bool {
	if c.ownUI(n) {
		return true
	}
	if page.HasClass(n, "ad") || page.HasClass(n, "advertisement") {
		return true
	}
	return page.HasAncestor(n, func(a *html.Node) bool {
		switch strings.ToLower(a.Data) {
		case "nav", "footer", "script", "style":
			return true
		case "header":
			// Keep article headers, drop site headers.
			return !insideContentRoot(a)
		}
		if page.HasClass(a, "ad") || page.HasClass(a, "advertisement") {
			return true
		}
		return c.ownUI(a)
	})
}

func (c *Chunker) ownUI(n *html.Node) bool {
	p := c.Opts.UIPrefix
	if p == "" {
		return false
	}
	if strings.HasPrefix(page.Attr(n, "id"), p) {
		return true
	}
	for _, cls := range strings.Fields(page.Attr(n, "class")) {
		if strings.HasPrefix(cls, p) {
			return true
		}
	}
	return false
}

func insideContentRoot(n *html.Node) bool {
	return page.HasAncestor(n, func(a *html.Node) bool {
		switch strings.ToLower(a.Data) {
		case "article", "main":
			return true
		}
		return strings.EqualFold(page.Attr(a, "role"), "main")
	})
}

func countBlockDescendants(n *html.Node) int {
	count := 0
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode && blockTags[strings.ToLower(c.Data)] {
				count++
			}
			dfs(c)
		}
	}
	dfs(n)
	return count
}
