// Package locate selects the main-content subtree of a page. Mutation
// passes need the live node so edits reach the rendered document; analysis
// passes get a detached clone.
package locate

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/easeread/easeread/internal/page"
)

// mainSelectors are tried in priority order before falling back to the
// largest text block heuristic.
var mainSelectors = []string{
	"article",
	"main",
	"[role=main]",
	".content",
	"#content",
	".post-content",
	".article-content",
}

// Main returns the live main-content node of doc. It never returns nil for
// a well-formed document: the final fallback is <body>.
func Main(doc *page.Document) *html.Node {
	root := doc.Root()
	for _, sel := range mainSelectors {
		if n := page.QueryFirst(root, sel); n != nil {
			return n
		}
	}
	if n := largestTextBlock(root); n != nil {
		return n
	}
	return doc.Body()
}

// MainForAnalysis returns a deep clone of the main-content subtree so
// metric passes can read it without any risk of touching the live tree.
func MainForAnalysis(doc *page.Document) *html.Node {
	return page.Clone(Main(doc))
}

// MainText extracts the readable text of the main content, suitable for
// feeding the metrics package.
func MainText(doc *page.Document) string {
	return strings.TrimSpace(page.Text(MainForAnalysis(doc)))
}

// largestTextBlock picks the single div or section with the most text that
// is not nested inside obvious boilerplate.
func largestTextBlock(root *html.Node) *html.Node {
	var best *html.Node
	bestLen := 0
	for _, tag := range []string{"div", "section"} {
		for _, n := range page.QueryAll(root, tag) {
			if insideBoilerplate(n) {
				continue
			}
			l := len(strings.TrimSpace(page.Text(n)))
			if l > bestLen {
				best, bestLen = n, l
			}
		}
	}
	return best
}

func insideBoilerplate(n *html.Node) bool {
	return page.HasAncestor(n, func(a *html.Node) bool {
		switch strings.ToLower(a.Data) {
		case "nav", "header", "footer", "aside":
			return true
		}
		return page.HasClass(a, "ad") || page.HasClass(a, "sidebar")
	})
}
