package app

import "time"

// Config holds runtime configuration for the application.
type Config struct {
	// Input: a local HTML file ("-" for stdin) or a URL.
	InputPath string
	InputURL  string

	// Outputs. OutputPath receives the rewritten HTML or the text report;
	// empty means stdout. ReportPDFPath additionally writes a PDF report.
	OutputPath    string
	ReportPDFPath string

	// Features to apply on a rewrite run, by name.
	Features []string

	// Transform parameters.
	SimplifyLevel string
	Tone          string
	Domain        string

	// LLM backend (OpenAI-compatible). Empty model means dictionary and
	// rule based fallbacks only.
	LLMBaseURL string
	LLMModel   string
	LLMAPIKey  string
	QuotaUnits int

	// DictOnly forces dictionary-only idiom scanning even with a model.
	DictOnly bool

	// Prompt cache.
	CacheDir         string
	CacheMaxAge      time.Duration
	CacheStrictPerms bool

	// Preference file; empty disables persistence.
	PrefsPath string

	// HTTP server address for serve mode, e.g. ":8080".
	ListenAddr string

	// Logging.
	Verbose      bool
	DebugVerbose bool
	LogFile      string
}
