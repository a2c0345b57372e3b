package page

import (
	"strings"

	"golang.org/x/net/html"
)

// Selector is a deliberately small matcher covering the selector shapes the
// engine actually uses: tag, .class, #id, [attr=value] and tag.class
// compounds. Anything fancier belongs in the caller.
type Selector struct {
	Tag     string
	Class   string
	ID      string
	AttrKey string
	AttrVal string
}

// ParseSelector splits a selector string into its parts.
func ParseSelector(s string) Selector {
	var sel Selector
	s = strings.TrimSpace(s)
	if s == "" {
		return sel
	}
	if strings.HasPrefix(s, "[") && strings.HasSuffix(s, "]") {
		body := s[1 : len(s)-1]
		if k, v, ok := strings.Cut(body, "="); ok {
			sel.AttrKey = strings.TrimSpace(k)
			sel.AttrVal = strings.Trim(strings.TrimSpace(v), `"'`)
		} else {
			sel.AttrKey = strings.TrimSpace(body)
		}
		return sel
	}
	if i := strings.IndexByte(s, '#'); i >= 0 {
		sel.Tag = strings.ToLower(s[:i])
		sel.ID = s[i+1:]
		return sel
	}
	if i := strings.IndexByte(s, '.'); i >= 0 {
		sel.Tag = strings.ToLower(s[:i])
		sel.Class = s[i+1:]
		return sel
	}
	sel.Tag = strings.ToLower(s)
	return sel
}

// Matches reports whether element node n satisfies sel.
func Matches(n *html.Node, sel Selector) bool {
	if n == nil || n.Type != html.ElementNode {
		return false
	}
	if sel.Tag != "" && !strings.EqualFold(n.Data, sel.Tag) {
		return false
	}
	if sel.ID != "" && Attr(n, "id") != sel.ID {
		return false
	}
	if sel.Class != "" && !HasClass(n, sel.Class) {
		return false
	}
	if sel.AttrKey != "" {
		v, ok := lookupAttr(n, sel.AttrKey)
		if !ok {
			return false
		}
		if sel.AttrVal != "" && !strings.EqualFold(v, sel.AttrVal) {
			return false
		}
	}
	return true
}

// QueryFirst returns the first descendant of root matching selector, in
// document order, or nil.
func QueryFirst(root *html.Node, selector string) *html.Node {
	sel := ParseSelector(selector)
	var res *html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if res != nil {
			return
		}
		if cur != root && Matches(cur, sel) {
			res = cur
			return
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
			if res != nil {
				return
			}
		}
	}
	dfs(root)
	return res
}

// QueryAll returns all descendants of root matching selector in document order.
func QueryAll(root *html.Node, selector string) []*html.Node {
	sel := ParseSelector(selector)
	var out []*html.Node
	var dfs func(*html.Node)
	dfs = func(cur *html.Node) {
		if cur != root && Matches(cur, sel) {
			out = append(out, cur)
		}
		for c := cur.FirstChild; c != nil; c = c.NextSibling {
			dfs(c)
		}
	}
	dfs(root)
	return out
}

// HasAncestor reports whether any proper ancestor of n satisfies pred,
// stopping at the document root.
func HasAncestor(n *html.Node, pred func(*html.Node) bool) bool {
	for cur := n.Parent; cur != nil; cur = cur.Parent {
		if cur.Type == html.ElementNode && pred(cur) {
			return true
		}
	}
	return false
}

// Attr returns the value of the named attribute, empty when absent.
func Attr(n *html.Node, key string) string {
	v, _ := lookupAttr(n, key)
	return v
}

func lookupAttr(n *html.Node, key string) (string, bool) {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			return a.Val, true
		}
	}
	return "", false
}

// SetAttr sets or replaces an attribute on n.
func SetAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if strings.EqualFold(a.Key, key) {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// HasClass reports whether n carries the given class token.
func HasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(Attr(n, "class")) {
		if strings.EqualFold(c, class) {
			return true
		}
	}
	return false
}

// AddClass appends a class token when not already present.
func AddClass(n *html.Node, class string) {
	if HasClass(n, class) {
		return
	}
	existing := Attr(n, "class")
	if existing == "" {
		SetAttr(n, "class", class)
		return
	}
	SetAttr(n, "class", existing+" "+class)
}

// RemoveClass strips a class token; the attribute is dropped when it empties.
func RemoveClass(n *html.Node, class string) {
	fields := strings.Fields(Attr(n, "class"))
	kept := fields[:0]
	for _, c := range fields {
		if !strings.EqualFold(c, class) {
			kept = append(kept, c)
		}
	}
	if len(kept) == 0 {
		for i, a := range n.Attr {
			if strings.EqualFold(a.Key, "class") {
				n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
				return
			}
		}
		return
	}
	SetAttr(n, "class", strings.Join(kept, " "))
}

// ClassContains reports whether any class token contains the given
// substring, case-insensitively. Used for boilerplate heuristics like
// ad/sidebar detection.
func ClassContains(n *html.Node, sub string) bool {
	return strings.Contains(strings.ToLower(Attr(n, "class")), strings.ToLower(sub))
}
