package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/easeread/easeread/internal/metrics"
)

func sample() Report {
	return Report{
		Title: "Understanding Photosynthesis",
		URL:   "https://example.org/photosynthesis",
		Metrics: metrics.Metrics{
			WordCount:          420,
			SentenceCount:      28,
			ParagraphCount:     7,
			AvgWordLength:      4.8,
			AvgSentenceLength:  15.0,
			FleschScore:        62.3,
			ReadingTimeMinutes: 3,
		},
		DifficultyScore: 5,
		DifficultTerms:  []string{"photosynthesis", "chlorophyll"},
		Idioms:          []IdiomFinding{{Idiom: "in a nutshell", Literal: "briefly"}},
		ChunkCount:      9,
	}
}

func TestWriteText(t *testing.T) {
	var sb strings.Builder
	if err := WriteText(&sb, sample()); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := sb.String()
	for _, want := range []string{
		"Understanding Photosynthesis",
		"Words                 420",
		"Flesch reading ease   62.3",
		"5/10 (moderate)",
		"photosynthesis",
		`"in a nutshell" meaning "briefly"`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
}

func TestWriteText_UntitledAndEmptySections(t *testing.T) {
	var sb strings.Builder
	if err := WriteText(&sb, Report{DifficultyScore: 1}); err != nil {
		t.Fatalf("WriteText: %v", err)
	}
	out := sb.String()
	if !strings.Contains(out, "(untitled page)") {
		t.Errorf("missing untitled placeholder:\n%s", out)
	}
	if strings.Contains(out, "Difficult terms") || strings.Contains(out, "Idioms found") {
		t.Errorf("empty sections should be omitted:\n%s", out)
	}
}

func TestDifficultyLabel(t *testing.T) {
	cases := []struct {
		score int
		want  string
	}{
		{1, "easy"}, {3, "easy"}, {4, "moderate"}, {6, "moderate"},
		{7, "hard"}, {8, "hard"}, {9, "very hard"}, {10, "very hard"},
	}
	for _, c := range cases {
		if got := difficultyLabel(c.score); got != c.want {
			t.Errorf("difficultyLabel(%d) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestWritePDF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.pdf")
	if err := WritePDF(sample(), path); err != nil {
		t.Fatalf("WritePDF: %v", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(raw) == 0 || !strings.HasPrefix(string(raw), "%PDF-") {
		t.Fatalf("output is not a PDF (%d bytes)", len(raw))
	}
}
