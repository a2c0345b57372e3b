package prefs

import (
	"os"
	"path/filepath"
	"testing"
)

func TestFileStore_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	p, err := Open(&FileStore{Path: path})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if got := p.Bool("simplify", false); got {
		t.Fatalf("unset key should use default, got %v", got)
	}
	if err := p.SetBool("simplify", true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	if err := p.SetString("tone", "casual"); err != nil {
		t.Fatalf("SetString: %v", err)
	}

	reopened, err := Open(&FileStore{Path: path})
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if !reopened.Bool("simplify", false) {
		t.Fatal("simplify=true did not survive reopen")
	}
	if got := reopened.String("tone", "neutral"); got != "casual" {
		t.Fatalf("tone = %q, want casual", got)
	}
}

func TestFileStore_MissingFileIsEmpty(t *testing.T) {
	p, err := Open(&FileStore{Path: filepath.Join(t.TempDir(), "absent.json")})
	if err != nil {
		t.Fatalf("Open on missing file: %v", err)
	}
	if len(p.Keys()) != 0 {
		t.Fatalf("expected no keys, got %v", p.Keys())
	}
}

func TestFileStore_CorruptFileErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(&FileStore{Path: path}); err == nil {
		t.Fatal("expected error on corrupt preference file")
	}
}

func TestMemStore(t *testing.T) {
	p, err := Open(&MemStore{})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := p.SetBool("idioms", true); err != nil {
		t.Fatalf("SetBool: %v", err)
	}
	if !p.Bool("idioms", false) {
		t.Fatal("idioms preference lost")
	}
}
