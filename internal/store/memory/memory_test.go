package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
)

func TestEphemeralStore(t *testing.T) {
	ctx := context.Background()
	s := New()

	if _, ok, err := s.Get(ctx, "ledger"); err != nil || ok {
		t.Fatalf("empty store Get = (%v, %v), want miss", ok, err)
	}

	if err := s.Set(ctx, "ledger", `{"transactions":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "ledger")
	if err != nil || !ok || v != `{"transactions":[]}` {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}

	// Overwrite replaces the blob.
	if err := s.Set(ctx, "ledger", "{}"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := s.Get(ctx, "ledger"); v != "{}" {
		t.Errorf("after overwrite = %q", v)
	}

	if err := s.Remove(ctx, "ledger"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "ledger"); ok {
		t.Error("key survived Remove")
	}

	// Removing a missing key is a no-op.
	if err := s.Remove(ctx, "missing"); err != nil {
		t.Errorf("Remove missing: %v", err)
	}
}

func TestFileMirroring(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s := NewFromFiles(dir)
	if err := s.Set(ctx, "budgets", `{"budgets":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}

	blob, err := os.ReadFile(filepath.Join(dir, "budgets.json"))
	if err != nil {
		t.Fatalf("mirror file: %v", err)
	}
	if string(blob) != `{"budgets":[]}` {
		t.Errorf("mirror content = %q", blob)
	}

	// A fresh store over the same directory seeds from the files.
	reopened := NewFromFiles(dir)
	v, ok, _ := reopened.Get(ctx, "budgets")
	if !ok || v != `{"budgets":[]}` {
		t.Errorf("seeded Get = (%q, %v)", v, ok)
	}

	if err := reopened.Remove(ctx, "budgets"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "budgets.json")); !os.IsNotExist(err) {
		t.Error("mirror file survived Remove")
	}
}

func TestNewFromFilesMissingDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does-not-exist-yet")
	s := NewFromFiles(dir)

	// The directory is created lazily on first write.
	if err := s.Set(context.Background(), "ledger", "{}"); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, "ledger.json")); err != nil {
		t.Errorf("mirror file missing: %v", err)
	}
}

func TestNonJSONFilesIgnoredOnSeed(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	s := NewFromFiles(dir)
	if _, ok, _ := s.Get(context.Background(), "notes"); ok {
		t.Error("non-JSON file should not seed a key")
	}
}
