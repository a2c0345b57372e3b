// Package cache provides the on-disk prompt/response cache used by the
// assist service so repeated rewrites of identical paragraphs do not
// re-spend model quota.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"os"
	"path/filepath"
	"time"
)

// PromptCache stores rewrite results keyed by a digest of model and prompt.
type PromptCache struct {
	Dir string
	// StrictPerms enforces 0700 directories and 0600 files for at-rest
	// protection via restricted permissions.
	StrictPerms bool
}

// KeyFrom builds a cache key from the model name and full prompt text.
func KeyFrom(model, prompt string) string {
	h := sha256.Sum256([]byte(model + "\n\n" + prompt))
	return hex.EncodeToString(h[:])
}

func (c *PromptCache) ensureDir() error {
	if c == nil || c.Dir == "" {
		return errors.New("cache dir not configured")
	}
	perm := os.FileMode(0o755)
	if c.StrictPerms {
		perm = 0o700
	}
	if err := os.MkdirAll(c.Dir, perm); err != nil {
		return err
	}
	if c.StrictPerms {
		if info, err := os.Stat(c.Dir); err == nil && info.Mode()&0o777 != 0o700 {
			_ = os.Chmod(c.Dir, 0o700)
		}
	}
	return nil
}

func (c *PromptCache) pathFor(key string) string {
	return filepath.Join(c.Dir, key+".txt")
}

// Get returns the cached result when present. The file mtime is touched on
// access so age-based pruning behaves like LRU.
func (c *PromptCache) Get(_ context.Context, key string) (string, bool) {
	if c.ensureDir() != nil {
		return "", false
	}
	p := c.pathFor(key)
	b, err := os.ReadFile(p)
	if err != nil {
		return "", false
	}
	now := time.Now()
	_ = os.Chtimes(p, now, now)
	return string(b), true
}

// Save writes a result to the cache. Failures are non-fatal to callers.
func (c *PromptCache) Save(_ context.Context, key, result string) error {
	if err := c.ensureDir(); err != nil {
		return err
	}
	mode := os.FileMode(0o644)
	if c.StrictPerms {
		mode = 0o600
	}
	return os.WriteFile(c.pathFor(key), []byte(result), mode)
}

// Prune removes entries older than maxAge. Zero disables pruning.
func (c *PromptCache) Prune(maxAge time.Duration) error {
	if c == nil || c.Dir == "" || maxAge <= 0 {
		return nil
	}
	entries, err := os.ReadDir(c.Dir)
	if err != nil {
		return err
	}
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		info, err := e.Info()
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			_ = os.Remove(filepath.Join(c.Dir, e.Name()))
		}
	}
	return nil
}
