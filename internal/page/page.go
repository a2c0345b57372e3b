package page

import (
	"bytes"
	"errors"
	"strings"

	"golang.org/x/net/html"
)

// Document wraps a parsed HTML tree. The tree is the single mutable copy of
// the page: transforms edit it in place and Render serializes the result.
type Document struct {
	root *html.Node
}

// Parse builds a Document from raw HTML bytes.
func Parse(input []byte) (*Document, error) {
	node, err := html.Parse(bytes.NewReader(input))
	if err != nil {
		return nil, err
	}
	if node == nil {
		return nil, errors.New("empty document")
	}
	return &Document{root: node}, nil
}

// Root returns the document root node.
func (d *Document) Root() *html.Node { return d.root }

// Body returns the <body> element, or the root when parsing produced none.
func (d *Document) Body() *html.Node {
	if b := QueryFirst(d.root, "body"); b != nil {
		return b
	}
	return d.root
}

// Title returns the <head><title> text, trimmed.
func (d *Document) Title() string {
	head := QueryFirst(d.root, "head")
	if head == nil {
		return ""
	}
	t := QueryFirst(head, "title")
	if t == nil {
		return ""
	}
	return strings.TrimSpace(Text(t))
}

// Render serializes the whole document back to HTML.
func (d *Document) Render() (string, error) {
	var b bytes.Buffer
	if err := html.Render(&b, d.root); err != nil {
		return "", err
	}
	return b.String(), nil
}

// IsAttached reports whether n is still part of this document. Chunk
// references are weak handles: callers must revalidate membership before
// mutating, since an earlier transform may have detached the node.
func (d *Document) IsAttached(n *html.Node) bool {
	for cur := n; cur != nil; cur = cur.Parent {
		if cur == d.root {
			return true
		}
	}
	return false
}

// InnerHTML serializes the children of n.
func InnerHTML(n *html.Node) string {
	var b bytes.Buffer
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if err := html.Render(&b, c); err != nil {
			return b.String()
		}
	}
	return b.String()
}

// Text returns the concatenated text content of n and its descendants,
// skipping script and style subtrees.
func Text(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript":
				return
			}
		}
		if cur.Type == html.TextNode {
			b.WriteString(cur.Data)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

// SetText drops the children of n and replaces them with a single text node.
// The renderer escapes text nodes, so the value is never re-parsed as markup.
func SetText(n *html.Node, s string) {
	removeChildren(n)
	n.AppendChild(&html.Node{Type: html.TextNode, Data: s})
}

// SetInnerHTML replaces the children of n with the parse of markup in the
// context of n. Used by transform reversal to restore nested structure.
func SetInnerHTML(n *html.Node, markup string) error {
	nodes, err := html.ParseFragment(strings.NewReader(markup), n)
	if err != nil {
		return err
	}
	removeChildren(n)
	for _, c := range nodes {
		n.AppendChild(c)
	}
	return nil
}

func removeChildren(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		n.RemoveChild(c)
		c = next
	}
}

// Remove detaches n from its parent. No-op when already detached.
func Remove(n *html.Node) {
	if n.Parent != nil {
		n.Parent.RemoveChild(n)
	}
}

// ReplaceWith swaps old for repl in the tree.
func ReplaceWith(old, repl *html.Node) {
	parent := old.Parent
	if parent == nil {
		return
	}
	parent.InsertBefore(repl, old)
	parent.RemoveChild(old)
}

// Clone returns a deep copy of n detached from any document. Used for
// read-only analysis so metric passes never touch the live tree.
func Clone(n *html.Node) *html.Node {
	cp := &html.Node{
		Type:     n.Type,
		DataAtom: n.DataAtom,
		Data:     n.Data,
		Attr:     append([]html.Attribute(nil), n.Attr...),
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		cp.AppendChild(Clone(c))
	}
	return cp
}

// WrapTextRange splits the text node tn at [start,end) byte offsets and
// wraps the middle segment in a new element with the given tag and
// attributes, preserving the original letter-casing of the wrapped span.
// Attributes render in slice order. Returns the wrapper element.
func WrapTextRange(tn *html.Node, start, end int, tag string, attrs []html.Attribute) *html.Node {
	if tn.Type != html.TextNode || tn.Parent == nil {
		return nil
	}
	data := tn.Data
	if start < 0 || end > len(data) || start >= end {
		return nil
	}
	parent := tn.Parent
	span := &html.Node{Type: html.ElementNode, Data: tag}
	span.Attr = append(span.Attr, attrs...)
	span.AppendChild(&html.Node{Type: html.TextNode, Data: data[start:end]})

	if start > 0 {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: data[:start]}, tn)
	}
	parent.InsertBefore(span, tn)
	if end < len(data) {
		parent.InsertBefore(&html.Node{Type: html.TextNode, Data: data[end:]}, tn)
	}
	parent.RemoveChild(tn)
	return span
}

// TextNodes collects the text-node descendants of n in document order,
// skipping script/style subtrees. The slice is a stable snapshot: callers
// may mutate the tree while iterating it.
func TextNodes(n *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(cur *html.Node) {
		if cur.Type == html.ElementNode {
			switch strings.ToLower(cur.Data) {
			case "script", "style", "noscript":
				return
			}
		}
		if cur.Type == html.TextNode {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return out
}
