package engine

import (
	"bytes"
	"context"
	"fmt"

	"github.com/yuin/goldmark"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/easeread/easeread/internal/assist"
	"github.com/easeread/easeread/internal/locate"
	"github.com/easeread/easeread/internal/page"
)

// SummaryID is the element id of the injected summary container.
const SummaryID = "easeread-summary"

// injectSummary asks the assist service for a key-points summary of the
// main content and prepends it to container as a marked div. The model
// replies in markdown, which goldmark turns into the injected fragment.
func (e *Engine) injectSummary(ctx context.Context, container *html.Node) error {
	text := locate.MainText(e.doc)
	if text == "" {
		return ErrNoContent
	}
	md, err := e.assist.Summarize(ctx, text, assist.SummarizeOpts{
		Type:   "key-points",
		Format: "markdown",
		Length: "medium",
	})
	if err != nil {
		return fmt.Errorf("summarize: %w", err)
	}

	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return fmt.Errorf("render summary: %w", err)
	}

	div := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr: []html.Attribute{
			{Key: "id", Val: SummaryID},
			{Key: "class", Val: "easeread-summary"},
		},
	}
	if err := page.SetInnerHTML(div, buf.String()); err != nil {
		return fmt.Errorf("inject summary: %w", err)
	}
	if first := container.FirstChild; first != nil {
		container.InsertBefore(div, first)
	} else {
		container.AppendChild(div)
	}
	e.summary = div
	return nil
}

// removeSummary detaches the injected summary, if present.
func (e *Engine) removeSummary() {
	if e.summary == nil {
		// A re-parsed document may still carry a summary from earlier.
		if n := page.QueryFirst(e.doc.Root(), "#"+SummaryID); n != nil {
			page.Remove(n)
		}
		return
	}
	if e.doc.IsAttached(e.summary) {
		page.Remove(e.summary)
	}
	e.summary = nil
}
