package transform

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/easeread/easeread/internal/page"
)

// Rewriter turns one paragraph of plain text into its transformed form.
// The engine binds one per transform kind from the assist service.
type Rewriter func(ctx context.Context, text string) (string, error)

// Opts tune the pipeline. Zero values take the defaults below.
type Opts struct {
	// MinParagraphChars gates which paragraphs count as substantial.
	MinParagraphChars int
	// YieldEvery inserts a cooperative pause after this many paragraphs so
	// long batches do not monopolize the caller's loop.
	YieldEvery int
	// YieldDelay is the length of each pause.
	YieldDelay time.Duration
}

func (o Opts) withDefaults() Opts {
	if o.MinParagraphChars <= 0 {
		o.MinParagraphChars = 20
	}
	if o.YieldEvery <= 0 {
		o.YieldEvery = 10
	}
	if o.YieldDelay <= 0 {
		o.YieldDelay = 30 * time.Millisecond
	}
	return o
}

// Stats is all a caller observes about a batch. Per-paragraph failures are
// counted, never propagated.
type Stats struct {
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Skipped   int `json:"skipped"`
}

// Pipeline applies and reverses one transform kind at a time over a
// container. Paragraphs are processed strictly in document order, one at a
// time; cancellation is honored at paragraph boundaries only, leaving a
// documented partial application.
type Pipeline struct {
	Snapshots *Snapshots
	Opts      Opts
}

// NewPipeline wires a pipeline to a snapshot table.
func NewPipeline(snaps *Snapshots) *Pipeline {
	return &Pipeline{Snapshots: snaps}
}

// Apply rewrites every substantial paragraph under container with rewrite,
// marking each with the kind's class and snapshotting it first. A paragraph
// already carrying the marker is skipped, so re-applying is cheap and safe.
func (p *Pipeline) Apply(ctx context.Context, doc *page.Document, container *html.Node, kind Kind, rewrite Rewriter) Stats {
	opts := p.Opts.withDefaults()
	marker := kind.MarkerClass()
	var stats Stats

	paragraphs := substantialParagraphs(container, opts.MinParagraphChars)
	for _, node := range paragraphs {
		if ctx.Err() != nil {
			log.Debug().Str("kind", string(kind)).Int("processed", stats.Processed).Msg("transform cancelled at unit boundary")
			return stats
		}
		if !doc.IsAttached(node) {
			stats.Skipped++
			continue
		}
		if page.HasClass(node, marker) {
			stats.Skipped++
			continue
		}
		stats.Processed++

		original := strings.TrimSpace(page.Text(node))
		out, err := rewrite(ctx, original)
		if err != nil {
			// Failures are isolated: the paragraph keeps its original
			// content and the batch continues.
			log.Debug().Err(err).Str("kind", string(kind)).Msg("paragraph transform failed")
			stats.Failed++
			continue
		}
		p.Snapshots.Save(node, Snapshot{Markup: page.InnerHTML(node), Text: original})
		page.SetText(node, out)
		page.AddClass(node, marker)
		stats.Succeeded++

		if stats.Processed%opts.YieldEvery == 0 {
			select {
			case <-ctx.Done():
				return stats
			case <-time.After(opts.YieldDelay):
			}
		}
	}
	return stats
}

// Reverse restores every node under container carrying the kind's marker:
// original markup when snapshotted (preserving nested structure), plain
// text otherwise. Idempotent; reversing with nothing active is a no-op.
func (p *Pipeline) Reverse(doc *page.Document, container *html.Node, kind Kind) int {
	marker := kind.MarkerClass()
	restored := 0
	for _, node := range markedNodes(container, marker) {
		if !doc.IsAttached(node) {
			continue
		}
		if snap, ok := p.Snapshots.Get(node); ok {
			if snap.Markup != "" {
				if err := page.SetInnerHTML(node, snap.Markup); err != nil {
					page.SetText(node, snap.Text)
				}
			} else {
				page.SetText(node, snap.Text)
			}
			p.Snapshots.Clear(node)
		}
		page.RemoveClass(node, marker)
		restored++
	}
	return restored
}

// ActiveCount reports how many nodes under container carry the kind's marker.
func (p *Pipeline) ActiveCount(container *html.Node, kind Kind) int {
	return len(markedNodes(container, kind.MarkerClass()))
}

func markedNodes(container *html.Node, marker string) []*html.Node {
	return page.QueryAll(container, "."+marker)
}
