// Package prefs persists user preferences as a single JSON blob. Values
// load once at construction and every mutation writes the whole blob back,
// so a crash never loses more than the in-flight change.
package prefs

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// Store reads and writes the whole preference blob at once.
type Store interface {
	Load() (map[string]json.RawMessage, error)
	Save(map[string]json.RawMessage) error
}

// FileStore keeps preferences in one JSON file.
type FileStore struct {
	Path string
}

// Load returns an empty blob when the file does not exist yet.
func (f *FileStore) Load() (map[string]json.RawMessage, error) {
	raw, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return map[string]json.RawMessage{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	m := map[string]json.RawMessage{}
	if err := json.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("decode preferences %s: %w", f.Path, err)
	}
	return m, nil
}

func (f *FileStore) Save(m map[string]json.RawMessage) error {
	raw, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(f.Path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create preference dir: %w", err)
		}
	}
	tmp := f.Path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("write preferences: %w", err)
	}
	return os.Rename(tmp, f.Path)
}

// MemStore is an in-memory Store for tests and per-request engines.
type MemStore struct {
	mu sync.Mutex
	m  map[string]json.RawMessage
}

func (s *MemStore) Load() (map[string]json.RawMessage, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]json.RawMessage{}
	for k, v := range s.m {
		out[k] = v
	}
	return out, nil
}

func (s *MemStore) Save(m map[string]json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m = map[string]json.RawMessage{}
	for k, v := range m {
		s.m[k] = v
	}
	return nil
}

// Prefs is the typed view over a Store. Reads come from the cached blob;
// writes update the cache and persist immediately.
type Prefs struct {
	mu    sync.Mutex
	store Store
	blob  map[string]json.RawMessage
}

// Open loads the blob from store. A missing file yields empty defaults.
func Open(store Store) (*Prefs, error) {
	blob, err := store.Load()
	if err != nil {
		return nil, err
	}
	return &Prefs{store: store, blob: blob}, nil
}

func (p *Prefs) get(key string, out any) bool {
	p.mu.Lock()
	raw, ok := p.blob[key]
	p.mu.Unlock()
	if !ok {
		return false
	}
	return json.Unmarshal(raw, out) == nil
}

func (p *Prefs) set(key string, v any) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.blob[key] = raw
	return p.store.Save(p.blob)
}

// Bool returns the stored value for key, or def when unset or malformed.
func (p *Prefs) Bool(key string, def bool) bool {
	v := def
	if p.get(key, &v) {
		return v
	}
	return def
}

func (p *Prefs) SetBool(key string, v bool) error { return p.set(key, v) }

// String returns the stored value for key, or def when unset.
func (p *Prefs) String(key, def string) string {
	v := def
	if p.get(key, &v) {
		return v
	}
	return def
}

func (p *Prefs) SetString(key, v string) error { return p.set(key, v) }

// Keys lists the stored preference keys, unordered.
func (p *Prefs) Keys() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.blob))
	for k := range p.blob {
		out = append(out, k)
	}
	return out
}
