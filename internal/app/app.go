// Package app wires configuration into the running services: the assist
// stack with its fallback, the idiom scanner, the fetcher, and either a
// one-shot engine run or the HTTP server.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/easeread/easeread/internal/api"
	"github.com/easeread/easeread/internal/assist"
	"github.com/easeread/easeread/internal/cache"
	"github.com/easeread/easeread/internal/difficulty"
	"github.com/easeread/easeread/internal/engine"
	"github.com/easeread/easeread/internal/fetch"
	"github.com/easeread/easeread/internal/idiom"
	"github.com/easeread/easeread/internal/llm"
	"github.com/easeread/easeread/internal/locate"
	"github.com/easeread/easeread/internal/metrics"
	"github.com/easeread/easeread/internal/page"
	"github.com/easeread/easeread/internal/prefs"
	"github.com/easeread/easeread/internal/report"
)

// ErrNoContent is surfaced when the page yields nothing to analyze or
// rewrite. Per the exit code policy, this maps to a non-zero exit.
var ErrNoContent = engine.ErrNoContent

type App struct {
	cfg     Config
	assist  assist.Service
	scanner *idiom.Scanner
	fetcher *fetch.Client
	prefs   *prefs.Prefs
}

func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{cfg: cfg}

	var primary assist.Service
	if cfg.LLMModel != "" {
		var pc *cache.PromptCache
		if cfg.CacheDir != "" {
			pc = &cache.PromptCache{Dir: cfg.CacheDir, StrictPerms: cfg.CacheStrictPerms}
			if cfg.CacheMaxAge > 0 {
				if err := pc.Prune(cfg.CacheMaxAge); err != nil {
					log.Warn().Err(err).Msg("prompt cache prune failed")
				}
			}
		}
		primary = &assist.Model{
			Client:     llm.NewOpenAIProvider(cfg.LLMBaseURL, cfg.LLMAPIKey, newHTTPClient(modelCallTimeout)),
			Name:       cfg.LLMModel,
			Cache:      pc,
			QuotaUnits: cfg.QuotaUnits,
		}
	}
	a.assist = &assist.Resilient{
		Primary:  primary,
		Fallback: assist.NewFallback(idiom.Default()),
	}

	// Availability preflight is best effort and advisory only; the
	// resilient wrapper already degrades to the rule-based fallback.
	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	log.Info().Str("assist", a.assist.Probe(pctx).String()).Msg("assist availability")

	scanner, err := idiom.NewScanner(a.assist, cfg.DictOnly)
	if err != nil {
		return nil, fmt.Errorf("idiom scanner: %w", err)
	}
	a.scanner = scanner

	a.fetcher = &fetch.Client{
		HTTPClient:        newHTTPClient(pageFetchTimeout),
		MaxAttempts:       2,
		PerRequestTimeout: 15 * time.Second,
		RedirectMaxHops:   5,
	}

	if cfg.PrefsPath != "" {
		p, err := prefs.Open(&prefs.FileStore{Path: cfg.PrefsPath})
		if err != nil {
			return nil, fmt.Errorf("preferences: %w", err)
		}
		a.prefs = p
	}
	return a, nil
}

func (a *App) Close() {
	// nothing yet
}

// loadDocument reads the configured input: URL, file, or stdin.
func (a *App) loadDocument(ctx context.Context) (*page.Document, string, error) {
	switch {
	case a.cfg.InputURL != "":
		body, _, err := a.fetcher.Page(ctx, a.cfg.InputURL)
		if err != nil {
			return nil, "", fmt.Errorf("fetch input: %w", err)
		}
		doc, err := page.Parse(body)
		return doc, a.cfg.InputURL, err
	case a.cfg.InputPath == "-":
		body, err := io.ReadAll(os.Stdin)
		if err != nil {
			return nil, "", fmt.Errorf("read stdin: %w", err)
		}
		doc, err := page.Parse(body)
		return doc, "", err
	default:
		body, err := os.ReadFile(a.cfg.InputPath)
		if err != nil {
			return nil, "", fmt.Errorf("read input: %w", err)
		}
		doc, err := page.Parse(body)
		return doc, "", err
	}
}

// Run executes a one-shot invocation. With features configured it rewrites
// the page and writes the resulting HTML; otherwise it writes a
// readability report.
func (a *App) Run(ctx context.Context) error {
	doc, srcURL, err := a.loadDocument(ctx)
	if err != nil {
		return err
	}

	if len(a.cfg.Features) > 0 {
		return a.runRewrite(ctx, doc)
	}
	return a.runReport(ctx, doc, srcURL)
}

func (a *App) runRewrite(ctx context.Context, doc *page.Document) error {
	eng := engine.New(doc, a.assist, a.scanner, a.prefs, engine.Options{
		SimplifyLevel: a.cfg.SimplifyLevel,
		Tone:          a.cfg.Tone,
		Domain:        a.cfg.Domain,
	})
	for _, name := range a.cfg.Features {
		f, err := engine.ParseFeature(name)
		if err != nil {
			return err
		}
		stats, err := eng.Enable(ctx, f)
		if err != nil {
			return fmt.Errorf("apply %s: %w", f, err)
		}
		log.Info().Str("feature", string(f)).
			Int("succeeded", stats.Succeeded).
			Int("failed", stats.Failed).
			Msg("feature applied")
	}

	html, err := doc.Render()
	if err != nil {
		return fmt.Errorf("render output: %w", err)
	}
	return a.writeOutput([]byte(html))
}

func (a *App) runReport(ctx context.Context, doc *page.Document, srcURL string) error {
	text := locate.MainText(doc)
	if text == "" {
		return ErrNoContent
	}
	m := metrics.Compute(text)

	findings := make([]report.IdiomFinding, 0, 4)
	for _, match := range a.scanner.FindAll(ctx, text) {
		findings = append(findings, report.IdiomFinding{Idiom: match.Idiom, Literal: match.Literal})
	}

	chunkCount := 0
	eng := engine.New(doc, a.assist, a.scanner, nil, engine.Options{})
	if chunks, err := eng.Chunks(); err == nil {
		chunkCount = len(chunks)
	}

	rep := report.Report{
		Title:           doc.Title(),
		URL:             srcURL,
		Metrics:         m,
		DifficultyScore: metrics.DifficultyScore(m),
		DifficultTerms:  difficulty.IdentifyTerms(text),
		Idioms:          findings,
		ChunkCount:      chunkCount,
	}

	if a.cfg.ReportPDFPath != "" {
		if err := report.WritePDF(rep, a.cfg.ReportPDFPath); err != nil {
			return fmt.Errorf("write pdf report: %w", err)
		}
		log.Info().Str("out", a.cfg.ReportPDFPath).Msg("wrote pdf report")
	}

	out := os.Stdout
	if a.cfg.OutputPath != "" {
		f, err := os.Create(a.cfg.OutputPath)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer f.Close()
		out = f
	}
	return report.WriteText(out, rep)
}

func (a *App) writeOutput(data []byte) error {
	if a.cfg.OutputPath == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(a.cfg.OutputPath, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	log.Info().Str("out", a.cfg.OutputPath).Msg("wrote output")
	return nil
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	handler := api.NewServer(a.assist, a.scanner, a.fetcher, log.Logger)
	srv := &http.Server{
		Addr:              a.cfg.ListenAddr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", a.cfg.ListenAddr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
