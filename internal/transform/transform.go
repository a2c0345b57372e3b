// Package transform applies reversible, per-paragraph text rewrites to the
// live document. Each mutated node gets exactly one snapshot per transform
// family; reversal restores the pre-transform markup byte for byte.
package transform

import (
	"strings"

	"golang.org/x/net/html"

	"github.com/easeread/easeread/internal/page"
)

// Kind names a transform family. Each family owns a marker class so apply
// and reverse can find their own work without a side index of nodes.
type Kind string

const (
	Simplify      Kind = "simplify"
	Expand        Kind = "expand"
	Tone          Kind = "tone"
	Restructure   Kind = "restructure"
	ActiveVoice   Kind = "activeVoice"
	PlainLanguage Kind = "plainLanguage"
)

// MarkerClass is the class token stamped on nodes this kind has rewritten.
func (k Kind) MarkerClass() string {
	return "easeread-" + string(k)
}

// Snapshot preserves a node's pre-transform content. Markup is preferred on
// restore since it keeps nested structure; Text is the plain fallback.
type Snapshot struct {
	Markup string
	Text   string
}

// Snapshots is the per-node snapshot side table, owned by whoever owns the
// document lifecycle. At most one active snapshot per node: a second
// transform on an already-snapshotted node must not overwrite the original.
type Snapshots struct {
	m map[*html.Node]Snapshot
}

// NewSnapshots returns an empty side table.
func NewSnapshots() *Snapshots {
	return &Snapshots{m: make(map[*html.Node]Snapshot)}
}

// Save records a snapshot for n unless one is already active.
func (s *Snapshots) Save(n *html.Node, snap Snapshot) {
	if _, exists := s.m[n]; exists {
		return
	}
	s.m[n] = snap
}

// Get returns the active snapshot for n.
func (s *Snapshots) Get(n *html.Node) (Snapshot, bool) {
	snap, ok := s.m[n]
	return snap, ok
}

// Clear drops the snapshot for n after a successful restore.
func (s *Snapshots) Clear(n *html.Node) {
	delete(s.m, n)
}

// Len reports the number of active snapshots.
func (s *Snapshots) Len() int { return len(s.m) }

// Reset drops every snapshot. Used by whole-feature reset.
func (s *Snapshots) Reset() {
	s.m = make(map[*html.Node]Snapshot)
}

// substantialParagraphs selects the <p> elements a transform operates on:
// enough text and clear of navigation/boilerplate ancestors.
func substantialParagraphs(container *html.Node, minChars int) []*html.Node {
	var out []*html.Node
	for _, p := range page.QueryAll(container, "p") {
		if len(strings.TrimSpace(page.Text(p))) < minChars {
			continue
		}
		if page.HasAncestor(p, isBoilerplate) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func isBoilerplate(a *html.Node) bool {
	switch strings.ToLower(a.Data) {
	case "nav", "header", "footer", "aside":
		return true
	}
	return page.HasClass(a, "ad") || page.ClassContains(a, "advertisement")
}
