package page

import (
	"strings"
	"testing"

	"golang.org/x/net/html"
)

func mustParse(t *testing.T, raw string) *Document {
	t.Helper()
	doc, err := Parse([]byte(raw))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestParse_TitleAndBody(t *testing.T) {
	doc := mustParse(t, `<html><head><title>  A Page Title </title></head><body><p>hi</p></body></html>`)
	if got := doc.Title(); got != "A Page Title" {
		t.Fatalf("title = %q", got)
	}
	if doc.Body() == nil || doc.Body().Data != "body" {
		t.Fatalf("expected a body element")
	}
}

func TestRender_RoundTripsEdits(t *testing.T) {
	doc := mustParse(t, `<html><body><p id="x">before</p></body></html>`)
	SetText(QueryFirst(doc.Root(), "#x"), "after")
	out, err := doc.Render()
	if err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(out, `<p id="x">after</p>`) {
		t.Fatalf("edit not rendered: %s", out)
	}
}

func TestIsAttached(t *testing.T) {
	doc := mustParse(t, `<html><body><p>one</p></body></html>`)
	p := QueryFirst(doc.Root(), "p")
	if !doc.IsAttached(p) {
		t.Fatalf("node in the tree must be attached")
	}
	Remove(p)
	if doc.IsAttached(p) {
		t.Fatalf("removed node must not be attached")
	}
	if doc.IsAttached(Clone(doc.Body())) {
		t.Fatalf("a clone must never count as attached")
	}
}

func TestText_SkipsScriptAndStyle(t *testing.T) {
	doc := mustParse(t, `<html><body><p>visible</p><script>var x = 1;</script><style>p{}</style></body></html>`)
	got := Text(doc.Body())
	if got != "visible" {
		t.Fatalf("text = %q", got)
	}
	if nodes := TextNodes(doc.Body()); len(nodes) != 1 || nodes[0].Data != "visible" {
		t.Fatalf("text nodes must skip script and style subtrees: %d", len(nodes))
	}
}

func TestSetText_EscapesMarkup(t *testing.T) {
	doc := mustParse(t, `<html><body><p>old</p></body></html>`)
	p := QueryFirst(doc.Root(), "p")
	SetText(p, `a <b>bold</b> claim`)
	if got := InnerHTML(p); got != "a &lt;b&gt;bold&lt;/b&gt; claim" {
		t.Fatalf("text must render escaped, got %q", got)
	}
	if got := Text(p); got != "a <b>bold</b> claim" {
		t.Fatalf("text content wrong: %q", got)
	}
}

func TestSetInnerHTML_RestoresStructure(t *testing.T) {
	doc := mustParse(t, `<html><body><p>flat</p></body></html>`)
	p := QueryFirst(doc.Root(), "p")
	markup := `start <em>nested</em> end`
	if err := SetInnerHTML(p, markup); err != nil {
		t.Fatalf("set inner html: %v", err)
	}
	if got := InnerHTML(p); got != markup {
		t.Fatalf("inner html = %q, want %q", got, markup)
	}
	if QueryFirst(p, "em") == nil {
		t.Fatalf("nested element must be parsed, not escaped")
	}
}

func TestReplaceWith(t *testing.T) {
	doc := mustParse(t, `<html><body><p>old</p></body></html>`)
	old := QueryFirst(doc.Root(), "p")
	repl := &html.Node{Type: html.TextNode, Data: "plain"}
	ReplaceWith(old, repl)
	if got := InnerHTML(doc.Body()); got != "plain" {
		t.Fatalf("body = %q after replace", got)
	}
}

func TestWrapTextRange(t *testing.T) {
	doc := mustParse(t, `<html><body><p>We break the ice daily.</p></body></html>`)
	p := QueryFirst(doc.Root(), "p")
	tn := p.FirstChild
	data := tn.Data
	start := strings.Index(data, "break")
	end := start + len("break the ice")

	span := WrapTextRange(tn, start, end, "span", []html.Attribute{
		{Key: "class", Val: "mark"},
		{Key: "data-phrase", Val: "break the ice"},
	})
	if span == nil {
		t.Fatalf("expected a wrapper span")
	}
	want := `We <span class="mark" data-phrase="break the ice">break the ice</span> daily.`
	if got := InnerHTML(p); got != want {
		t.Fatalf("wrap rendered %q, want %q", got, want)
	}
	if Text(p) != data {
		t.Fatalf("wrapping must not change text content: %q", Text(p))
	}
	if span.PrevSibling == nil || span.PrevSibling.Data != "We " {
		t.Fatalf("text before the range must survive as its own node")
	}
}

func TestWrapTextRange_AttributeOrderIsStable(t *testing.T) {
	attrs := []html.Attribute{
		{Key: "class", Val: "mark"},
		{Key: "data-b", Val: "2"},
		{Key: "data-a", Val: "1"},
	}
	want := `<span class="mark" data-b="2" data-a="1">abcde</span>`
	for i := 0; i < 5; i++ {
		doc := mustParse(t, `<html><body><p>abcde</p></body></html>`)
		p := QueryFirst(doc.Root(), "p")
		WrapTextRange(p.FirstChild, 0, 5, "span", attrs)
		if got := InnerHTML(p); got != want {
			t.Fatalf("run %d rendered %q, want %q", i, got, want)
		}
	}
}

func TestWrapTextRange_RejectsBadInput(t *testing.T) {
	doc := mustParse(t, `<html><body><p>abcde</p></body></html>`)
	p := QueryFirst(doc.Root(), "p")
	tn := p.FirstChild
	cases := []struct {
		name       string
		start, end int
	}{
		{"negative start", -1, 3},
		{"end past data", 0, 6},
		{"empty range", 2, 2},
		{"inverted range", 3, 1},
	}
	for _, tc := range cases {
		if got := WrapTextRange(tn, tc.start, tc.end, "span", nil); got != nil {
			t.Fatalf("%s: expected nil wrapper", tc.name)
		}
	}
	if WrapTextRange(p, 0, 1, "span", nil) != nil {
		t.Fatalf("element nodes must be rejected")
	}
	if got := InnerHTML(p); got != "abcde" {
		t.Fatalf("rejected wraps must leave the tree untouched: %q", got)
	}
}

func TestParseSelector(t *testing.T) {
	cases := []struct {
		in   string
		want Selector
	}{
		{"p", Selector{Tag: "p"}},
		{"DIV", Selector{Tag: "div"}},
		{".warn", Selector{Class: "warn"}},
		{"span.warn", Selector{Tag: "span", Class: "warn"}},
		{"#main", Selector{ID: "main"}},
		{"div#main", Selector{Tag: "div", ID: "main"}},
		{`[data-k="v"]`, Selector{AttrKey: "data-k", AttrVal: "v"}},
		{"[hidden]", Selector{AttrKey: "hidden"}},
		{"", Selector{}},
	}
	for _, tc := range cases {
		if got := ParseSelector(tc.in); got != tc.want {
			t.Fatalf("ParseSelector(%q) = %+v, want %+v", tc.in, got, tc.want)
		}
	}
}

func TestQueryFirstAndAll(t *testing.T) {
	doc := mustParse(t, `<html><body>
        <p class="note">first</p>
        <div><p class="note">second</p></div>
        <p>plain</p>
        <span data-k="v">tagged</span>
    </body></html>`)
	root := doc.Root()

	if got := QueryFirst(root, "p.note"); got == nil || Text(got) != "first" {
		t.Fatalf("QueryFirst must return the first match in document order")
	}
	all := QueryAll(root, "p.note")
	if len(all) != 2 || Text(all[1]) != "second" {
		t.Fatalf("QueryAll found %d matches", len(all))
	}
	if len(QueryAll(root, "p")) != 3 {
		t.Fatalf("tag query must ignore class")
	}
	if got := QueryFirst(root, `[data-k="v"]`); got == nil || Text(got) != "tagged" {
		t.Fatalf("attribute selector failed")
	}
	if QueryFirst(root, ".missing") != nil {
		t.Fatalf("no match must return nil")
	}
}

func TestHasAncestor(t *testing.T) {
	doc := mustParse(t, `<html><body><article><p>deep</p></article></body></html>`)
	p := QueryFirst(doc.Root(), "p")
	inArticle := func(n *html.Node) bool { return n.Data == "article" }
	if !HasAncestor(p, inArticle) {
		t.Fatalf("p is inside article")
	}
	if HasAncestor(QueryFirst(doc.Root(), "article"), func(n *html.Node) bool { return n.Data == "p" }) {
		t.Fatalf("descendants must not count as ancestors")
	}
}

func TestClassHelpers(t *testing.T) {
	doc := mustParse(t, `<html><body><p class="a b">x</p></body></html>`)
	p := QueryFirst(doc.Root(), "p")

	if !HasClass(p, "a") || !HasClass(p, "B") || HasClass(p, "c") {
		t.Fatalf("HasClass wrong for %q", Attr(p, "class"))
	}
	AddClass(p, "c")
	AddClass(p, "a") // already present
	if got := Attr(p, "class"); got != "a b c" {
		t.Fatalf("class after add = %q", got)
	}
	RemoveClass(p, "b")
	if got := Attr(p, "class"); got != "a c" {
		t.Fatalf("class after remove = %q", got)
	}
	RemoveClass(p, "a")
	RemoveClass(p, "c")
	if _, ok := lookupAttr(p, "class"); ok {
		t.Fatalf("empty class attribute must be dropped")
	}
	if !ClassContains(mustSpan(t, `<span class="AdBanner">x</span>`), "ad") {
		t.Fatalf("ClassContains must match substrings case-insensitively")
	}
}

func mustSpan(t *testing.T, raw string) *html.Node {
	t.Helper()
	doc := mustParse(t, `<html><body>`+raw+`</body></html>`)
	return QueryFirst(doc.Root(), "span")
}
