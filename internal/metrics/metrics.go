// Package metrics computes readability statistics from plain text. All
// functions are pure and deterministic; the zero-word case is guarded so no
// derived ratio ever divides by zero.
package metrics

import (
	"math"
	"regexp"
	"strings"
	"unicode"
)

// Metrics summarizes the readability of a stretch of text.
type Metrics struct {
	WordCount          int     `json:"wordCount"`
	SentenceCount      int     `json:"sentenceCount"`
	ParagraphCount     int     `json:"paragraphCount"`
	TotalSyllables     int     `json:"totalSyllables"`
	AvgWordLength      float64 `json:"avgWordLength"`
	AvgSentenceLength  float64 `json:"avgSentenceLength"`
	FleschScore        float64 `json:"fleschScore"`
	ReadingTimeMinutes int     `json:"estimatedReadingTimeMinutes"`
}

var sentenceEnd = regexp.MustCompile(`[.!?]+`)

// Compute derives all metrics from raw text. Empty input yields the zero
// value; no field is ever NaN.
func Compute(text string) Metrics {
	var m Metrics

	words := strings.Fields(text)
	m.WordCount = len(words)
	m.SentenceCount = countSentences(text)
	m.ParagraphCount = countParagraphs(text)

	if m.WordCount == 0 {
		return m
	}

	totalLen := 0
	for _, w := range words {
		m.TotalSyllables += SyllableCount(w)
		totalLen += len([]rune(w))
	}
	m.AvgWordLength = float64(totalLen) / float64(m.WordCount)
	if m.SentenceCount > 0 {
		m.AvgSentenceLength = float64(m.WordCount) / float64(m.SentenceCount)
	}

	flesch := 206.835 - 1.015*m.AvgSentenceLength - 84.6*(float64(m.TotalSyllables)/float64(m.WordCount))
	m.FleschScore = clamp(flesch, 0, 100)
	m.ReadingTimeMinutes = int(math.Ceil(float64(m.WordCount) / 200))
	return m
}

func countSentences(text string) int {
	count := 0
	for _, seg := range sentenceEnd.Split(text, -1) {
		if strings.TrimSpace(seg) != "" {
			count++
		}
	}
	if count == 0 && strings.TrimSpace(text) != "" {
		count = 1
	}
	return count
}

func countParagraphs(text string) int {
	count := 0
	for _, block := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(block) != "" {
			count++
		}
	}
	return count
}

// SyllableCount estimates syllables per word by counting vowel groups after
// stripping common silent suffixes and a leading y. Words of three or fewer
// letters count as one syllable; the result is never zero.
func SyllableCount(word string) int {
	w := strings.ToLower(strings.TrimFunc(word, func(r rune) bool {
		return !unicode.IsLetter(r)
	}))
	if len(w) == 0 {
		return 1
	}
	if len(w) <= 3 {
		return 1
	}
	switch {
	case strings.HasSuffix(w, "es"):
		w = w[:len(w)-2]
	case strings.HasSuffix(w, "ed"):
		w = w[:len(w)-2]
	case strings.HasSuffix(w, "e"):
		w = w[:len(w)-1]
	}
	w = strings.TrimPrefix(w, "y")

	groups := 0
	prevVowel := false
	for _, r := range w {
		isVowel := strings.ContainsRune("aeiouy", r)
		if isVowel && !prevVowel {
			groups++
		}
		prevVowel = isVowel
	}
	if groups < 1 {
		groups = 1
	}
	return groups
}

// DifficultyScore maps metrics onto a 1..10 scale. It grows with average
// sentence length and syllable density and never decreases when either does.
func DifficultyScore(m Metrics) int {
	if m.WordCount == 0 {
		return 1
	}
	density := float64(m.TotalSyllables) / float64(m.WordCount)
	raw := 1 + m.AvgSentenceLength/5 + (density-1)*4
	score := int(math.Round(raw))
	if score < 1 {
		score = 1
	}
	if score > 10 {
		score = 10
	}
	return score
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
