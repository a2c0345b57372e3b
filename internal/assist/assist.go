// Package assist is the boundary abstraction over the text-transform model.
// Everything "smart" the engine does goes through the Service interface; a
// deterministic fallback implementation keeps every feature working when no
// model is reachable.
package assist

import (
	"context"
	"errors"
)

// Availability is the result of probing the external model service.
type Availability int

const (
	Unavailable Availability = iota
	// Downloadable means the backend is staging a local model; readiness is
	// deferred. Backends in this state should also implement Downloader.
	Downloadable
	Ready
)

func (a Availability) String() string {
	switch a {
	case Ready:
		return "ready"
	case Downloadable:
		return "downloadable"
	default:
		return "unavailable"
	}
}

// Downloader is an optional capability for backends that stage a local
// model. WaitReady blocks until the model is usable, reporting progress in
// [0,1] through the callback.
type Downloader interface {
	WaitReady(ctx context.Context, progress func(fraction float64)) error
}

// Simplification levels. The label drives a natural-language instruction to
// the model, not a structural parameter.
const (
	LevelELI5       = "ELI5"
	LevelELI10      = "ELI10"
	LevelELI15      = "ELI15"
	LevelCollege    = "College"
	LevelElementary = "elementary"
)

// Rewrite tones.
const (
	ToneFormal      = "formal"
	ToneCasual      = "casual"
	ToneNeutral     = "neutral"
	ToneEncouraging = "encouraging"
)

// SummarizeOpts shape the summary request.
type SummarizeOpts struct {
	Type   string // key-points, tl;dr, teaser, headline
	Format string // markdown, plain-text
	Length string // short, medium, long
}

// IdiomResult is the fixed structured-output contract of DetectIdiom.
type IdiomResult struct {
	HasIdiom bool   `json:"hasIdiom"`
	Idiom    string `json:"idiom"`
	Literal  string `json:"literal"`
}

// ErrUnavailable signals that the external service cannot serve requests.
var ErrUnavailable = errors.New("assist service unavailable")

// Service is the full transform surface. Implementations must be safe for
// sequential reuse; concurrent calls are not part of the contract.
type Service interface {
	Probe(ctx context.Context) Availability

	Summarize(ctx context.Context, text string, opts SummarizeOpts) (string, error)
	Simplify(ctx context.Context, text, level string) (string, error)
	Expand(ctx context.Context, text string) (string, error)
	RewriteTone(ctx context.Context, text, tone string) (string, error)
	Restructure(ctx context.Context, text string) (string, error)
	ActiveVoice(ctx context.Context, text string) (string, error)
	PlainLanguage(ctx context.Context, text, domain string) (string, error)

	DetectIdiom(ctx context.Context, sentence string) (IdiomResult, error)
	ExplainTerm(ctx context.Context, term, sentenceContext string) (string, error)
	ExplainIdiom(ctx context.Context, idiom string) (string, error)
}

// IdiomDictionary is the lookup surface the fallback service needs for
// offline idiom detection. The idiom package provides the implementation;
// declaring the interface here keeps the dependency arrow pointing one way.
type IdiomDictionary interface {
	// FindPhrase returns the longest dictionary idiom contained in the
	// sentence, case-insensitively, with its literal meaning.
	FindPhrase(sentence string) (idiom, literal string, ok bool)
}
