package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/easeread/easeread/internal/app"
)

func main() {
	var (
		configPath  string
		inputPath   string
		inputURL    string
		outputPath  string
		reportPDF   string
		features    string
		level       string
		tone        string
		domain      string
		llmBaseURL  string
		llmModel    string
		llmKey      string
		quotaUnits  int
		dictOnly    bool
		cacheDir    string
		cacheMaxAge time.Duration
		cacheStrict bool
		prefsPath   string
		listenAddr  string
		verbose     bool
		logFile     string
	)

	flag.StringVar(&configPath, "config", os.Getenv("EASEREAD_CONFIG"), "Path to YAML or JSON config file")
	flag.StringVar(&inputPath, "input", "", "Path to input HTML file ('-' for stdin)")
	flag.StringVar(&inputURL, "url", "", "URL of the page to fetch and process")
	flag.StringVar(&outputPath, "output", "", "Output path; empty writes to stdout")
	flag.StringVar(&reportPDF, "report.pdf", "", "Also write the readability report as a PDF to this path")
	flag.StringVar(&features, "features", "", "Comma-separated features to apply (simplify, expand, tone, restructure, activeVoice, plainLanguage, idioms, summary); empty runs analysis only")
	flag.StringVar(&level, "level", "", "Simplification level (ELI5, ELI10, ELI15, College)")
	flag.StringVar(&tone, "tone", "", "Target tone (formal, casual, neutral, encouraging)")
	flag.StringVar(&domain, "domain", "", "Jargon domain hint for plain-language rewrites (e.g. legal, medical)")
	flag.StringVar(&llmBaseURL, "llm.base", os.Getenv("LLM_BASE_URL"), "OpenAI-compatible base URL")
	flag.StringVar(&llmModel, "llm.model", os.Getenv("LLM_MODEL"), "Model name; empty uses rule-based fallbacks only")
	flag.StringVar(&llmKey, "llm.key", os.Getenv("LLM_API_KEY"), "API key for OpenAI-compatible server")
	flag.IntVar(&quotaUnits, "llm.quota", 0, "Model usage units per session before rotation (0 disables metering)")
	flag.BoolVar(&dictOnly, "idioms.dictOnly", false, "Scan idioms with the dictionary only, never the model")
	flag.StringVar(&cacheDir, "cache.dir", "", "Prompt cache directory; empty disables caching")
	flag.DurationVar(&cacheMaxAge, "cache.maxAge", 0, "Max age for cache entries before purge (e.g. 24h); 0 disables")
	flag.BoolVar(&cacheStrict, "cache.strictPerms", false, "Restrict cache permissions (0700 dirs, 0600 files)")
	flag.StringVar(&prefsPath, "prefs", "", "Preference file path; empty disables persistence")
	flag.StringVar(&listenAddr, "listen", "", "Run the HTTP API on this address (e.g. :8080) instead of a one-shot run")
	flag.BoolVar(&verbose, "v", false, "Verbose logging")
	flag.StringVar(&logFile, "log.file", "", "Append logs to this file with rotation instead of stderr")
	flag.Parse()

	cfg := app.Config{
		InputPath:        inputPath,
		InputURL:         inputURL,
		OutputPath:       outputPath,
		ReportPDFPath:    reportPDF,
		SimplifyLevel:    level,
		Tone:             tone,
		Domain:           domain,
		LLMBaseURL:       llmBaseURL,
		LLMModel:         llmModel,
		LLMAPIKey:        llmKey,
		QuotaUnits:       quotaUnits,
		DictOnly:         dictOnly,
		CacheDir:         cacheDir,
		CacheMaxAge:      cacheMaxAge,
		CacheStrictPerms: cacheStrict,
		PrefsPath:        prefsPath,
		ListenAddr:       listenAddr,
		Verbose:          verbose,
		LogFile:          logFile,
	}
	if s := strings.TrimSpace(features); s != "" {
		for _, part := range strings.Split(s, ",") {
			if name := strings.TrimSpace(part); name != "" {
				cfg.Features = append(cfg.Features, name)
			}
		}
	}

	if configPath != "" {
		fc, err := app.LoadConfigFile(configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "config: %v\n", err)
			os.Exit(1)
		}
		app.ApplyFileConfig(&cfg, fc)
	}
	app.ApplyEnvToConfig(&cfg)

	setupLogging(cfg)

	if err := app.ValidateConfig(cfg); err != nil {
		log.Error().Err(err).Msg("invalid configuration")
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		log.Error().Err(err).Msg("run failed")
		// Exit code policy: 2 when the page has no substantive content,
		// 1 for everything else.
		if errors.Is(err, app.ErrNoContent) {
			os.Exit(2)
		}
		os.Exit(1)
	}
}

func setupLogging(cfg app.Config) {
	zerolog.TimeFieldFormat = time.RFC3339
	var out io.Writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
	if cfg.LogFile != "" {
		out = &lumberjack.Logger{
			Filename:   cfg.LogFile,
			MaxSize:    50, // megabytes
			MaxBackups: 3,
			MaxAge:     28, // days
			Compress:   true,
		}
	}
	log.Logger = log.Output(out)
	if cfg.Verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}

func run(cfg app.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}
	defer a.Close()

	if cfg.ListenAddr != "" {
		return a.Serve(ctx)
	}
	return a.Run(ctx)
}
