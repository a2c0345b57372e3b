// Package engine is the composition root over a single document: it owns
// the feature-state table, serializes toggles, and enforces the
// disable-before-enable convention for mutually exclusive transforms.
package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/net/html"

	"github.com/easeread/easeread/internal/assist"
	"github.com/easeread/easeread/internal/chunk"
	"github.com/easeread/easeread/internal/difficulty"
	"github.com/easeread/easeread/internal/idiom"
	"github.com/easeread/easeread/internal/locate"
	"github.com/easeread/easeread/internal/metrics"
	"github.com/easeread/easeread/internal/page"
	"github.com/easeread/easeread/internal/prefs"
	"github.com/easeread/easeread/internal/transform"
)

// Feature names a toggleable capability. The string values double as
// preference keys.
type Feature string

const (
	FeatureSimplify      Feature = "simplify"
	FeatureExpand        Feature = "expand"
	FeatureTone          Feature = "tone"
	FeatureRestructure   Feature = "restructure"
	FeatureActiveVoice   Feature = "activeVoice"
	FeaturePlainLanguage Feature = "plainLanguage"
	FeatureIdioms        Feature = "idioms"
	FeatureSummary       Feature = "summary"
)

// Features lists every toggle in a stable order.
func Features() []Feature {
	return []Feature{
		FeatureSimplify, FeatureExpand, FeatureTone, FeatureRestructure,
		FeatureActiveVoice, FeaturePlainLanguage, FeatureIdioms, FeatureSummary,
	}
}

// ParseFeature maps a user-supplied name onto a Feature.
func ParseFeature(name string) (Feature, error) {
	for _, f := range Features() {
		if strings.EqualFold(string(f), name) {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown feature %q", name)
}

// State of one feature's toggle lifecycle.
type State int

const (
	Off State = iota
	Applying
	Applied
	Reversing
)

func (s State) String() string {
	switch s {
	case Applying:
		return "applying"
	case Applied:
		return "applied"
	case Reversing:
		return "reversing"
	default:
		return "off"
	}
}

// exclusions pairs features that may never be active together. Enabling
// one side fully reverses the other first.
var exclusions = map[Feature]Feature{
	FeatureSimplify: FeatureExpand,
	FeatureExpand:   FeatureSimplify,
}

// ErrNoContent mirrors the chunker's sentinel for callers that only import
// the engine.
var ErrNoContent = chunk.ErrNoContent

// Options carry the per-session transform parameters.
type Options struct {
	SimplifyLevel string
	Tone          string
	Domain        string
}

// Engine drives all features over one live document. Toggles are
// serialized by a single mutex: Applying/Reversing are never interrupted
// by another toggle, only by the caller's context.
type Engine struct {
	mu sync.Mutex

	doc      *page.Document
	assist   assist.Service
	pipeline *transform.Pipeline
	scanner  *idiom.Scanner
	chunker  *chunk.Chunker
	prefs    *prefs.Prefs
	opts     Options

	states  map[Feature]State
	summary *html.Node // injected summary container, when active
}

// New wires an engine over doc. prefs may be nil for throwaway engines
// (e.g. one per HTTP request).
func New(doc *page.Document, svc assist.Service, scanner *idiom.Scanner, p *prefs.Prefs, opts Options) *Engine {
	e := &Engine{
		doc:      doc,
		assist:   svc,
		pipeline: transform.NewPipeline(transform.NewSnapshots()),
		scanner:  scanner,
		chunker:  chunk.New(),
		prefs:    p,
		opts:     opts,
		states:   make(map[Feature]State),
	}
	return e
}

// State reports a feature's current lifecycle state.
func (e *Engine) State(f Feature) State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.states[f]
}

// Chunks re-partitions the current document. Always fresh: chunk handles
// go stale whenever a transform mutates the tree.
func (e *Engine) Chunks() ([]chunk.Chunk, error) {
	return e.chunker.Chunks(e.doc, "")
}

// Metrics analyzes the main content on a detached clone.
func (e *Engine) Metrics() metrics.Metrics {
	return metrics.Compute(locate.MainText(e.doc))
}

// DifficultTerms lists the difficult vocabulary of the main content.
func (e *Engine) DifficultTerms() []string {
	return difficulty.IdentifyTerms(locate.MainText(e.doc))
}

// Enable turns a feature on, first reversing its exclusive partner. A
// second enable of an already-applied feature is a no-op.
func (e *Engine) Enable(ctx context.Context, f Feature) (transform.Stats, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.states[f] == Applied {
		return transform.Stats{}, nil
	}
	if other, ok := exclusions[f]; ok && e.states[other] != Off {
		e.reverseLocked(other)
	}

	e.states[f] = Applying
	stats, err := e.applyLocked(ctx, f)
	if err != nil {
		e.states[f] = Off
		return stats, err
	}
	e.states[f] = Applied
	e.persistLocked(f, true)
	log.Debug().Str("feature", string(f)).Interface("stats", stats).Msg("feature enabled")
	return stats, nil
}

// Disable reverses a feature. Idempotent: disabling an off feature is a
// no-op.
func (e *Engine) Disable(_ context.Context, f Feature) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.states[f] == Off {
		return nil
	}
	e.reverseLocked(f)
	e.persistLocked(f, false)
	return nil
}

// Toggle switches a feature to the requested position.
func (e *Engine) Toggle(ctx context.Context, f Feature, on bool) (transform.Stats, error) {
	if on {
		return e.Enable(ctx, f)
	}
	return transform.Stats{}, e.Disable(ctx, f)
}

// ResetAll reverses every active feature and drops all snapshots.
func (e *Engine) ResetAll(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, f := range Features() {
		if e.states[f] != Off {
			e.reverseLocked(f)
			e.persistLocked(f, false)
		}
	}
}

func (e *Engine) applyLocked(ctx context.Context, f Feature) (transform.Stats, error) {
	container := locate.Main(e.doc)
	switch f {
	case FeatureIdioms:
		n, err := e.scanner.Annotate(ctx, e.doc, container)
		if err != nil && !errors.Is(err, context.Canceled) {
			return transform.Stats{}, err
		}
		return transform.Stats{Processed: n, Succeeded: n}, nil
	case FeatureSummary:
		return transform.Stats{}, e.injectSummary(ctx, container)
	default:
		kind, rewrite, err := e.binding(f)
		if err != nil {
			return transform.Stats{}, err
		}
		stats := e.pipeline.Apply(ctx, e.doc, container, kind, rewrite)
		if stats.Processed == 0 && stats.Skipped == 0 {
			// A cancelled run stops before the first unit; that is not
			// the same as a page with nothing to transform.
			if ctx.Err() != nil {
				return stats, nil
			}
			return stats, ErrNoContent
		}
		return stats, nil
	}
}

func (e *Engine) reverseLocked(f Feature) {
	e.states[f] = Reversing
	container := locate.Main(e.doc)
	switch f {
	case FeatureIdioms:
		e.scanner.Strip(container)
	case FeatureSummary:
		e.removeSummary()
	default:
		if kind, _, err := e.binding(f); err == nil {
			e.pipeline.Reverse(e.doc, container, kind)
		}
	}
	e.states[f] = Off
}

// binding maps a transform feature to its kind and assist call.
func (e *Engine) binding(f Feature) (transform.Kind, transform.Rewriter, error) {
	switch f {
	case FeatureSimplify:
		return transform.Simplify, func(ctx context.Context, t string) (string, error) {
			return e.assist.Simplify(ctx, t, e.opts.SimplifyLevel)
		}, nil
	case FeatureExpand:
		return transform.Expand, func(ctx context.Context, t string) (string, error) {
			return e.assist.Expand(ctx, t)
		}, nil
	case FeatureTone:
		return transform.Tone, func(ctx context.Context, t string) (string, error) {
			return e.assist.RewriteTone(ctx, t, e.opts.Tone)
		}, nil
	case FeatureRestructure:
		return transform.Restructure, func(ctx context.Context, t string) (string, error) {
			return e.assist.Restructure(ctx, t)
		}, nil
	case FeatureActiveVoice:
		return transform.ActiveVoice, func(ctx context.Context, t string) (string, error) {
			return e.assist.ActiveVoice(ctx, t)
		}, nil
	case FeaturePlainLanguage:
		return transform.PlainLanguage, func(ctx context.Context, t string) (string, error) {
			return e.assist.PlainLanguage(ctx, t, e.opts.Domain)
		}, nil
	}
	return "", nil, fmt.Errorf("feature %q has no transform binding", f)
}

// ActiveMarkers counts nodes carrying a transform feature's marker class.
// Exposed for tests and diagnostics.
func (e *Engine) ActiveMarkers(f Feature) int {
	kind, _, err := e.binding(f)
	if err != nil {
		return 0
	}
	return e.pipeline.ActiveCount(locate.Main(e.doc), kind)
}

func (e *Engine) persistLocked(f Feature, on bool) {
	if e.prefs == nil {
		return
	}
	if err := e.prefs.SetBool(string(f), on); err != nil {
		log.Debug().Err(err).Str("feature", string(f)).Msg("preference persist failed")
	}
}
