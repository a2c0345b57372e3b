// Package idiom detects fixed figurative phrases in page text and wraps
// them for on-demand explanation. Detection is a model/dictionary hybrid:
// the model path is preferred, the embedded dictionary is the deterministic
// fallback and the bulk-scan mode.
package idiom

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	yaml "gopkg.in/yaml.v3"
)

//go:embed idioms.yaml
var dictYAML []byte

// Entry is one dictionary idiom with its literal meaning.
type Entry struct {
	Phrase  string `yaml:"phrase"`
	Literal string `yaml:"literal"`
}

// Dictionary is the static idiom table, ordered longest phrase first so the
// most specific entry always wins a scan.
type Dictionary struct {
	entries []Entry
}

var (
	defaultOnce sync.Once
	defaultDict *Dictionary
)

// Default returns the embedded dictionary, parsed once.
func Default() *Dictionary {
	defaultOnce.Do(func() {
		var file struct {
			Idioms []Entry `yaml:"idioms"`
		}
		if err := yaml.Unmarshal(dictYAML, &file); err != nil {
			panic("idiom: embedded dictionary is malformed: " + err.Error())
		}
		defaultDict = NewDictionary(file.Idioms)
	})
	return defaultDict
}

// NewDictionary builds a dictionary from entries, sorting longest first.
func NewDictionary(entries []Entry) *Dictionary {
	sorted := append([]Entry(nil), entries...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return len(sorted[i].Phrase) > len(sorted[j].Phrase)
	})
	return &Dictionary{entries: sorted}
}

// Len reports the number of entries.
func (d *Dictionary) Len() int { return len(d.entries) }

// FindPhrase returns the longest idiom contained in the sentence,
// case-insensitively. First match wins; longest-first ordering already
// prefers the most specific phrase, so no overlap resolution is needed.
func (d *Dictionary) FindPhrase(sentence string) (idiom, literal string, ok bool) {
	lower := strings.ToLower(sentence)
	for _, e := range d.entries {
		if strings.Contains(lower, strings.ToLower(e.Phrase)) {
			return e.Phrase, e.Literal, true
		}
	}
	return "", "", false
}

// Locate is FindPhrase plus the byte offset of the match in the sentence.
func (d *Dictionary) Locate(sentence string) (Entry, int, bool) {
	lower := strings.ToLower(sentence)
	for _, e := range d.entries {
		if i := strings.Index(lower, strings.ToLower(e.Phrase)); i >= 0 {
			return e, i, true
		}
	}
	return Entry{}, 0, false
}
