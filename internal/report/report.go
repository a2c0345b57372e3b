// Package report renders a readability report for a page, as plain text
// for terminals or as a PDF for sharing.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/easeread/easeread/internal/metrics"
)

// Report collects everything the analyzers produced for one page.
type Report struct {
	Title           string
	URL             string
	Metrics         metrics.Metrics
	DifficultyScore int
	DifficultTerms  []string
	Idioms          []IdiomFinding
	ChunkCount      int
}

// IdiomFinding is one idiom located in the page text.
type IdiomFinding struct {
	Idiom   string
	Literal string
}

// difficultyLabel maps the 1..10 score onto a reader-facing band.
func difficultyLabel(score int) string {
	switch {
	case score <= 3:
		return "easy"
	case score <= 6:
		return "moderate"
	case score <= 8:
		return "hard"
	default:
		return "very hard"
	}
}

// WriteText renders the report as aligned plain text.
func WriteText(w io.Writer, r Report) error {
	var b strings.Builder
	title := r.Title
	if title == "" {
		title = "(untitled page)"
	}
	fmt.Fprintf(&b, "Readability report: %s\n", title)
	if r.URL != "" {
		fmt.Fprintf(&b, "URL: %s\n", r.URL)
	}
	b.WriteString("\n")

	m := r.Metrics
	fmt.Fprintf(&b, "  Words                 %d\n", m.WordCount)
	fmt.Fprintf(&b, "  Sentences             %d\n", m.SentenceCount)
	fmt.Fprintf(&b, "  Paragraphs            %d\n", m.ParagraphCount)
	fmt.Fprintf(&b, "  Avg sentence length   %.1f words\n", m.AvgSentenceLength)
	fmt.Fprintf(&b, "  Avg word length       %.1f chars\n", m.AvgWordLength)
	fmt.Fprintf(&b, "  Flesch reading ease   %.1f\n", m.FleschScore)
	fmt.Fprintf(&b, "  Reading time          %d min\n", m.ReadingTimeMinutes)
	fmt.Fprintf(&b, "  Difficulty            %d/10 (%s)\n", r.DifficultyScore, difficultyLabel(r.DifficultyScore))
	if r.ChunkCount > 0 {
		fmt.Fprintf(&b, "  Content chunks        %d\n", r.ChunkCount)
	}

	if len(r.DifficultTerms) > 0 {
		b.WriteString("\nDifficult terms:\n")
		for _, term := range r.DifficultTerms {
			fmt.Fprintf(&b, "  - %s\n", term)
		}
	}
	if len(r.Idioms) > 0 {
		b.WriteString("\nIdioms found:\n")
		for _, f := range r.Idioms {
			if f.Literal != "" {
				fmt.Fprintf(&b, "  - %q meaning %q\n", f.Idiom, f.Literal)
			} else {
				fmt.Fprintf(&b, "  - %q\n", f.Idiom)
			}
		}
	}
	_, err := io.WriteString(w, b.String())
	return err
}
