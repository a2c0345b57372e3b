package assist

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// Resilient routes between the model-backed service and the deterministic
// fallback. The primary is probed once per session: Unavailable switches the
// whole session to fallback mode (with a single non-blocking notice);
// Downloadable is waited out up to WaitTimeout. Per-call idiom detection
// failures fall back for that call only.
type Resilient struct {
	Primary  Service
	Fallback Service
	// WaitTimeout bounds how long a Downloadable backend is waited for
	// before giving up on it for the session. Defaults to 30s.
	WaitTimeout time.Duration

	once   sync.Once
	active Service
}

var _ Service = (*Resilient)(nil)

// Probe resolves and reports the effective availability.
func (r *Resilient) Probe(ctx context.Context) Availability {
	return r.resolve(ctx).Probe(ctx)
}

// resolve picks the serving implementation exactly once.
func (r *Resilient) resolve(ctx context.Context) Service {
	r.once.Do(func() {
		r.active = r.Fallback
		if r.Primary == nil {
			log.Info().Msg("no model configured; using offline rewriting rules")
			return
		}
		switch r.Primary.Probe(ctx) {
		case Ready:
			r.active = r.Primary
		case Downloadable:
			if r.waitForDownload(ctx) {
				r.active = r.Primary
			} else {
				log.Info().Msg("model still downloading; using offline rewriting rules")
			}
		default:
			log.Info().Msg("model unavailable; using offline rewriting rules")
		}
	})
	return r.active
}

func (r *Resilient) waitForDownload(ctx context.Context) bool {
	dl, ok := r.Primary.(Downloader)
	if !ok {
		return false
	}
	timeout := r.WaitTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	err := dl.WaitReady(wctx, func(frac float64) {
		log.Debug().Float64("progress", frac).Msg("model download progress")
	})
	return err == nil
}

func (r *Resilient) Summarize(ctx context.Context, text string, opts SummarizeOpts) (string, error) {
	return r.resolve(ctx).Summarize(ctx, text, opts)
}

func (r *Resilient) Simplify(ctx context.Context, text, level string) (string, error) {
	return r.resolve(ctx).Simplify(ctx, text, level)
}

func (r *Resilient) Expand(ctx context.Context, text string) (string, error) {
	return r.resolve(ctx).Expand(ctx, text)
}

func (r *Resilient) RewriteTone(ctx context.Context, text, tone string) (string, error) {
	return r.resolve(ctx).RewriteTone(ctx, text, tone)
}

func (r *Resilient) Restructure(ctx context.Context, text string) (string, error) {
	return r.resolve(ctx).Restructure(ctx, text)
}

func (r *Resilient) ActiveVoice(ctx context.Context, text string) (string, error) {
	return r.resolve(ctx).ActiveVoice(ctx, text)
}

func (r *Resilient) PlainLanguage(ctx context.Context, text, domain string) (string, error) {
	return r.resolve(ctx).PlainLanguage(ctx, text, domain)
}

// DetectIdiom tries the active service and falls back to the dictionary
// path for this single call when the structured output cannot be used.
func (r *Resilient) DetectIdiom(ctx context.Context, sentence string) (IdiomResult, error) {
	active := r.resolve(ctx)
	res, err := active.DetectIdiom(ctx, sentence)
	if err == nil {
		return res, nil
	}
	if active != r.Fallback && r.Fallback != nil {
		log.Debug().Err(err).Msg("idiom detection fell back to dictionary")
		return r.Fallback.DetectIdiom(ctx, sentence)
	}
	return IdiomResult{}, err
}

func (r *Resilient) ExplainTerm(ctx context.Context, term, sentenceContext string) (string, error) {
	return r.resolve(ctx).ExplainTerm(ctx, term, sentenceContext)
}

func (r *Resilient) ExplainIdiom(ctx context.Context, idiom string) (string, error) {
	return r.resolve(ctx).ExplainIdiom(ctx, idiom)
}
