package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

// FileConfig represents the single-file configuration schema. Nested
// sections map naturally onto flags and env.
type FileConfig struct {
	Input  string `yaml:"input" json:"input"`
	URL    string `yaml:"url" json:"url"`
	Output string `yaml:"output" json:"output"`

	Report struct {
		PDF string `yaml:"pdf" json:"pdf"`
	} `yaml:"report" json:"report"`

	Features []string `yaml:"features" json:"features"`

	Rewrite struct {
		Level  string `yaml:"level" json:"level"`
		Tone   string `yaml:"tone" json:"tone"`
		Domain string `yaml:"domain" json:"domain"`
	} `yaml:"rewrite" json:"rewrite"`

	LLM struct {
		BaseURL    string `yaml:"base" json:"base"`
		Model      string `yaml:"model" json:"model"`
		APIKey     string `yaml:"key" json:"key"`
		QuotaUnits int    `yaml:"quotaUnits" json:"quotaUnits"`
	} `yaml:"llm" json:"llm"`

	Idioms struct {
		DictOnly bool `yaml:"dictOnly" json:"dictOnly"`
	} `yaml:"idioms" json:"idioms"`

	Cache struct {
		Dir         string        `yaml:"dir" json:"dir"`
		MaxAge      time.Duration `yaml:"maxAge" json:"maxAge"`
		StrictPerms bool          `yaml:"strictPerms" json:"strictPerms"`
	} `yaml:"cache" json:"cache"`

	Prefs   string `yaml:"prefs" json:"prefs"`
	Listen  string `yaml:"listen" json:"listen"`
	Verbose bool   `yaml:"verbose" json:"verbose"`
	LogFile string `yaml:"logFile" json:"logFile"`
}

// LoadConfigFile reads YAML or JSON into FileConfig.
func LoadConfigFile(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse yaml: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(b, &fc); err != nil {
			return fc, fmt.Errorf("parse json: %w", err)
		}
	default:
		// Try YAML then JSON
		if err := yaml.Unmarshal(b, &fc); err != nil {
			if jerr := json.Unmarshal(b, &fc); jerr != nil {
				return fc, fmt.Errorf("parse config: %v (yaml) / %v (json)", err, jerr)
			}
		}
	}
	return fc, nil
}

// ApplyFileConfig overlays values from FileConfig into cfg for fields that
// are still unset. Flags should already have been parsed; file config
// supplies defaults without clobbering explicit flags.
func ApplyFileConfig(cfg *Config, fc FileConfig) {
	if cfg == nil {
		return
	}
	if cfg.InputPath == "" && fc.Input != "" {
		cfg.InputPath = fc.Input
	}
	if cfg.InputURL == "" && fc.URL != "" {
		cfg.InputURL = fc.URL
	}
	if cfg.OutputPath == "" && fc.Output != "" {
		cfg.OutputPath = fc.Output
	}
	if cfg.ReportPDFPath == "" && fc.Report.PDF != "" {
		cfg.ReportPDFPath = fc.Report.PDF
	}
	if len(cfg.Features) == 0 && len(fc.Features) > 0 {
		cfg.Features = append([]string{}, fc.Features...)
	}
	if cfg.SimplifyLevel == "" && fc.Rewrite.Level != "" {
		cfg.SimplifyLevel = fc.Rewrite.Level
	}
	if cfg.Tone == "" && fc.Rewrite.Tone != "" {
		cfg.Tone = fc.Rewrite.Tone
	}
	if cfg.Domain == "" && fc.Rewrite.Domain != "" {
		cfg.Domain = fc.Rewrite.Domain
	}
	if cfg.LLMBaseURL == "" && fc.LLM.BaseURL != "" {
		cfg.LLMBaseURL = fc.LLM.BaseURL
	}
	if cfg.LLMModel == "" && fc.LLM.Model != "" {
		cfg.LLMModel = fc.LLM.Model
	}
	if cfg.LLMAPIKey == "" && fc.LLM.APIKey != "" {
		cfg.LLMAPIKey = fc.LLM.APIKey
	}
	if cfg.QuotaUnits == 0 && fc.LLM.QuotaUnits > 0 {
		cfg.QuotaUnits = fc.LLM.QuotaUnits
	}
	if !cfg.DictOnly && fc.Idioms.DictOnly {
		cfg.DictOnly = true
	}
	if cfg.CacheDir == "" && fc.Cache.Dir != "" {
		cfg.CacheDir = fc.Cache.Dir
	}
	if cfg.CacheMaxAge == 0 && fc.Cache.MaxAge > 0 {
		cfg.CacheMaxAge = fc.Cache.MaxAge
	}
	if !cfg.CacheStrictPerms && fc.Cache.StrictPerms {
		cfg.CacheStrictPerms = true
	}
	if cfg.PrefsPath == "" && fc.Prefs != "" {
		cfg.PrefsPath = fc.Prefs
	}
	if cfg.ListenAddr == "" && fc.Listen != "" {
		cfg.ListenAddr = fc.Listen
	}
	if !cfg.Verbose && fc.Verbose {
		cfg.Verbose = true
	}
	if cfg.LogFile == "" && fc.LogFile != "" {
		cfg.LogFile = fc.LogFile
	}
}

// ValidateConfig performs minimal schema validation. Serve mode needs no
// input; one-shot runs need a page to work on.
func ValidateConfig(cfg Config) error {
	serving := strings.TrimSpace(cfg.ListenAddr) != ""
	if !serving && strings.TrimSpace(cfg.InputPath) == "" && strings.TrimSpace(cfg.InputURL) == "" {
		return errors.New("config: an input file or url is required")
	}
	if strings.TrimSpace(cfg.InputPath) != "" && strings.TrimSpace(cfg.InputURL) != "" {
		return errors.New("config: input file and url are mutually exclusive")
	}
	if cfg.QuotaUnits < 0 {
		return errors.New("config: negative quota is not allowed")
	}
	for _, name := range cfg.Features {
		if strings.TrimSpace(name) == "" {
			return errors.New("config: empty feature name")
		}
	}
	return nil
}
