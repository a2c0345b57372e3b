package transform

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/easeread/easeread/internal/page"
)

func parse(t *testing.T, raw string) *page.Document {
	t.Helper()
	doc, err := page.Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func upper(_ context.Context, text string) (string, error) {
	return strings.ToUpper(text), nil
}

func TestApplyThenReverse_RoundTripsInnerHTML(t *testing.T) {
	doc := parse(t, `<html><body><article>
        <p>A paragraph with <em>nested</em> markup inside it.</p>
        <p>A second paragraph with plenty of text.</p>
    </article></body></html>`)
	container := page.QueryFirst(doc.Root(), "article")
	paras := page.QueryAll(container, "p")
	before := make([]string, len(paras))
	for i, n := range paras {
		before[i] = page.InnerHTML(n)
	}

	p := NewPipeline(NewSnapshots())
	stats := p.Apply(context.Background(), doc, container, Simplify, upper)
	if stats.Succeeded != 2 {
		t.Fatalf("expected 2 successes, got %+v", stats)
	}
	for _, n := range paras {
		if !page.HasClass(n, Simplify.MarkerClass()) {
			t.Fatalf("expected marker class on transformed paragraph")
		}
		if !strings.Contains(page.Text(n), "PARAGRAPH") {
			t.Fatalf("expected transformed text, got %q", page.Text(n))
		}
	}

	if restored := p.Reverse(doc, container, Simplify); restored != 2 {
		t.Fatalf("expected 2 restores, got %d", restored)
	}
	for i, n := range paras {
		if got := page.InnerHTML(n); got != before[i] {
			t.Fatalf("paragraph %d not restored byte-for-byte:\n got: %q\nwant: %q", i, got, before[i])
		}
		if page.HasClass(n, Simplify.MarkerClass()) {
			t.Fatalf("marker class must be cleared on reverse")
		}
	}
	if p.Snapshots.Len() != 0 {
		t.Fatalf("snapshots must be cleared after reverse, %d left", p.Snapshots.Len())
	}
}

func TestReverse_IsIdempotent(t *testing.T) {
	doc := parse(t, `<html><body><article><p>Enough text to be substantial.</p></article></body></html>`)
	container := page.QueryFirst(doc.Root(), "article")
	p := NewPipeline(NewSnapshots())

	if n := p.Reverse(doc, container, Simplify); n != 0 {
		t.Fatalf("reversing an inactive transform should be a no-op, restored %d", n)
	}
	p.Apply(context.Background(), doc, container, Simplify, upper)
	p.Reverse(doc, container, Simplify)
	beforeSecond, _ := doc.Render()
	if n := p.Reverse(doc, container, Simplify); n != 0 {
		t.Fatalf("second reverse should restore nothing, got %d", n)
	}
	afterSecond, _ := doc.Render()
	if beforeSecond != afterSecond {
		t.Fatalf("second reverse changed the document")
	}
}

func TestApply_FailuresAreIsolated(t *testing.T) {
	doc := parse(t, `<html><body><article>
        <p>First paragraph with plenty of text.</p>
        <p>Second paragraph mentioning poison here.</p>
        <p>Third paragraph with plenty of text.</p>
    </article></body></html>`)
	container := page.QueryFirst(doc.Root(), "article")
	p := NewPipeline(NewSnapshots())

	rewrite := func(_ context.Context, text string) (string, error) {
		if strings.Contains(text, "poison") {
			return "", errors.New("unit failure")
		}
		return strings.ToUpper(text), nil
	}
	stats := p.Apply(context.Background(), doc, container, Simplify, rewrite)
	if stats.Processed != 3 || stats.Succeeded != 2 || stats.Failed != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	paras := page.QueryAll(container, "p")
	if !strings.Contains(page.Text(paras[1]), "poison here") {
		t.Fatalf("failed paragraph must keep its original content")
	}
	if page.HasClass(paras[1], Simplify.MarkerClass()) {
		t.Fatalf("failed paragraph must not carry the marker class")
	}
}

func TestApply_CancellationStopsAtUnitBoundary(t *testing.T) {
	var b strings.Builder
	b.WriteString(`<html><body><article>`)
	for i := 0; i < 6; i++ {
		b.WriteString(`<p>Numbered paragraph with plenty of text.</p>`)
	}
	b.WriteString(`</article></body></html>`)
	doc := parse(t, b.String())
	container := page.QueryFirst(doc.Root(), "article")
	p := NewPipeline(NewSnapshots())

	ctx, cancel := context.WithCancel(context.Background())
	count := 0
	rewrite := func(_ context.Context, text string) (string, error) {
		count++
		if count == 3 {
			cancel()
		}
		return strings.ToUpper(text), nil
	}
	stats := p.Apply(ctx, doc, container, Simplify, rewrite)
	if stats.Succeeded != 3 {
		t.Fatalf("expected exactly 3 paragraphs transformed before cancellation, got %+v", stats)
	}
	if got := p.ActiveCount(container, Simplify); got != 3 {
		t.Fatalf("expected 3 marked paragraphs after cancellation, got %d", got)
	}
}

func TestApply_SkipsAlreadyMarked(t *testing.T) {
	doc := parse(t, `<html><body><article><p>Enough text to be substantial.</p></article></body></html>`)
	container := page.QueryFirst(doc.Root(), "article")
	p := NewPipeline(NewSnapshots())
	ctx := context.Background()

	first := p.Apply(ctx, doc, container, Simplify, upper)
	second := p.Apply(ctx, doc, container, Simplify, upper)
	if first.Succeeded != 1 || second.Succeeded != 0 || second.Skipped != 1 {
		t.Fatalf("re-apply should skip marked nodes: first=%+v second=%+v", first, second)
	}
}

func TestApply_SnapshotNotOverwritten(t *testing.T) {
	doc := parse(t, `<html><body><article><p>Original wording with plenty of text.</p></article></body></html>`)
	container := page.QueryFirst(doc.Root(), "article")
	node := page.QueryFirst(container, "p")
	snaps := NewSnapshots()
	p := NewPipeline(snaps)
	ctx := context.Background()

	p.Apply(ctx, doc, container, Simplify, upper)
	snap, ok := snaps.Get(node)
	if !ok {
		t.Fatalf("expected snapshot after apply")
	}
	// A later Save against the same node must not clobber the original.
	snaps.Save(node, Snapshot{Text: "bogus"})
	again, _ := snaps.Get(node)
	if again.Text != snap.Text {
		t.Fatalf("snapshot was overwritten")
	}
}

func TestApply_ExcludesBoilerplateParagraphs(t *testing.T) {
	doc := parse(t, `<html><body><article>
        <nav><p>Navigation paragraph with plenty of text.</p></nav>
        <div class="ad"><p>Advertisement paragraph with plenty of text.</p></div>
        <p>Content paragraph with plenty of text.</p>
    </article></body></html>`)
	container := page.QueryFirst(doc.Root(), "article")
	p := NewPipeline(NewSnapshots())
	stats := p.Apply(context.Background(), doc, container, Simplify, upper)
	if stats.Succeeded != 1 {
		t.Fatalf("expected only the content paragraph, got %+v", stats)
	}
}

func TestApply_ShortParagraphsIgnored(t *testing.T) {
	doc := parse(t, `<html><body><article>
        <p>tiny</p>
        <p>This paragraph clears the twenty character gate.</p>
    </article></body></html>`)
	container := page.QueryFirst(doc.Root(), "article")
	p := NewPipeline(NewSnapshots())
	stats := p.Apply(context.Background(), doc, container, Simplify, upper)
	if stats.Processed != 1 {
		t.Fatalf("expected 1 substantial paragraph, got %+v", stats)
	}
}
