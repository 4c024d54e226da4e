package sqlite

import (
	"context"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "kumbara.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestSetGetRemove(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if _, ok, err := s.Get(ctx, "ledger"); err != nil || ok {
		t.Fatalf("fresh db Get = (%v, %v), want miss", ok, err)
	}

	if err := s.Set(ctx, "ledger", `{"transactions":[]}`); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, ok, err := s.Get(ctx, "ledger")
	if err != nil || !ok || v != `{"transactions":[]}` {
		t.Fatalf("Get = (%q, %v, %v)", v, ok, err)
	}

	// Upsert semantics: a second Set replaces the row.
	if err := s.Set(ctx, "ledger", "{}"); err != nil {
		t.Fatal(err)
	}
	if v, _, _ := s.Get(ctx, "ledger"); v != "{}" {
		t.Errorf("after upsert = %q", v)
	}

	if err := s.Remove(ctx, "ledger"); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, ok, _ := s.Get(ctx, "ledger"); ok {
		t.Error("key survived Remove")
	}
	if err := s.Remove(ctx, "ledger"); err != nil {
		t.Errorf("removing a missing key should be a no-op: %v", err)
	}
}

func TestKeysAreIndependent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Set(ctx, "ledger", "a"); err != nil {
		t.Fatal(err)
	}
	if err := s.Set(ctx, "budgets", "b"); err != nil {
		t.Fatal(err)
	}
	if err := s.Remove(ctx, "ledger"); err != nil {
		t.Fatal(err)
	}
	v, ok, _ := s.Get(ctx, "budgets")
	if !ok || v != "b" {
		t.Errorf("budgets blob = (%q, %v), want untouched", v, ok)
	}
}

func TestReopenKeepsData(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kumbara.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Set(ctx, "ledger", "persisted"); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	// Reopening also re-runs migrations; both must be idempotent.
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	v, ok, err := reopened.Get(ctx, "ledger")
	if err != nil || !ok || v != "persisted" {
		t.Errorf("after reopen Get = (%q, %v, %v)", v, ok, err)
	}
}
