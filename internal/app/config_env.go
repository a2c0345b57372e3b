package app

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ApplyEnvToConfig populates unset fields of cfg from environment
// variables. Explicit cfg values take precedence over env.
func ApplyEnvToConfig(cfg *Config) {
	if cfg == nil {
		return
	}

	if cfg.LLMBaseURL == "" {
		cfg.LLMBaseURL = os.Getenv("LLM_BASE_URL")
	}
	if cfg.LLMModel == "" {
		cfg.LLMModel = os.Getenv("LLM_MODEL")
	}
	if cfg.LLMAPIKey == "" {
		cfg.LLMAPIKey = os.Getenv("LLM_API_KEY")
	}
	if cfg.QuotaUnits == 0 {
		if n, err := strconv.Atoi(strings.TrimSpace(os.Getenv("LLM_QUOTA_UNITS"))); err == nil && n > 0 {
			cfg.QuotaUnits = n
		}
	}

	if cfg.CacheDir == "" {
		cfg.CacheDir = os.Getenv("CACHE_DIR")
	}
	if cfg.CacheMaxAge == 0 {
		if s := os.Getenv("CACHE_MAX_AGE"); s != "" {
			if d, err := time.ParseDuration(s); err == nil {
				cfg.CacheMaxAge = d
			}
		}
	}
	if cfg.PrefsPath == "" {
		cfg.PrefsPath = os.Getenv("EASEREAD_PREFS")
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = os.Getenv("EASEREAD_LISTEN")
	}

	setBool := func(dst *bool, envKey string) {
		if *dst {
			return
		}
		switch strings.ToLower(strings.TrimSpace(os.Getenv(envKey))) {
		case "1", "true", "yes", "on":
			*dst = true
		}
	}
	setBool(&cfg.Verbose, "VERBOSE")
	setBool(&cfg.DictOnly, "IDIOMS_DICT_ONLY")
	setBool(&cfg.CacheStrictPerms, "CACHE_STRICT_PERMS")
}
