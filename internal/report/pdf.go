package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
)

// WritePDF renders the report as a single-page A4 PDF.
func WritePDF(r Report, outPath string) error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.AddPage()

	title := r.Title
	if title == "" {
		title = "(untitled page)"
	}
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 8, "Readability report", "", 1, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 5, title, "", "L", false)
	if r.URL != "" {
		pdf.SetTextColor(0, 0, 200)
		pdf.WriteLinkString(5, r.URL, r.URL)
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(6)
	}
	pdf.Ln(4)

	m := r.Metrics
	rows := []struct {
		label string
		value string
	}{
		{"Words", fmt.Sprintf("%d", m.WordCount)},
		{"Sentences", fmt.Sprintf("%d", m.SentenceCount)},
		{"Paragraphs", fmt.Sprintf("%d", m.ParagraphCount)},
		{"Avg sentence length", fmt.Sprintf("%.1f words", m.AvgSentenceLength)},
		{"Avg word length", fmt.Sprintf("%.1f chars", m.AvgWordLength)},
		{"Flesch reading ease", fmt.Sprintf("%.1f", m.FleschScore)},
		{"Reading time", fmt.Sprintf("%d min", m.ReadingTimeMinutes)},
		{"Difficulty", fmt.Sprintf("%d/10 (%s)", r.DifficultyScore, difficultyLabel(r.DifficultyScore))},
	}
	for _, row := range rows {
		pdf.CellFormat(60, 6, row.label, "", 0, "L", false, 0, "")
		pdf.CellFormat(0, 6, row.value, "", 1, "L", false, 0, "")
	}

	if len(r.DifficultTerms) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, "Difficult terms", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, term := range r.DifficultTerms {
			pdf.CellFormat(0, 5, "- "+term, "", 1, "L", false, 0, "")
		}
	}
	if len(r.Idioms) > 0 {
		pdf.Ln(4)
		pdf.SetFont("Helvetica", "B", 12)
		pdf.CellFormat(0, 7, "Idioms", "", 1, "L", false, 0, "")
		pdf.SetFont("Helvetica", "", 11)
		for _, f := range r.Idioms {
			line := "- " + f.Idiom
			if f.Literal != "" {
				line += ": " + f.Literal
			}
			pdf.MultiCell(0, 5, line, "", "L", false)
		}
	}

	return pdf.OutputFileAndClose(outPath)
}
