package store

import (
	"context"
	"path/filepath"
	"testing"
)

func TestMemoryStoreGetPutRoundTrip(t *testing.T) {
	dir := t.TempDir()
	s, err := NewMemoryStore(filepath.Join(dir, "cache.list"))
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}

	ctx := context.Background()
	if _, ok, _ := s.Get(ctx, "missing"); ok {
		t.Errorf("Get(missing) ok = true, want false")
	}

	if err := s.Put(ctx, "search:abc", `{"results":[]}`); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	v, ok, err := s.Get(ctx, "search:abc")
	if err != nil || !ok || v != `{"results":[]}` {
		t.Errorf("Get() = (%q, %v, %v), want ({\"results\":[]}, true, nil)", v, ok, err)
	}
}

func TestMemoryStoreReloadsFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.list")

	first, err := NewMemoryStore(path)
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	if err := first.Put(context.Background(), "sel:xyz", "candidate-1"); err != nil {
		t.Fatalf("Put() error = %v", err)
	}

	second, err := NewMemoryStore(path)
	if err != nil {
		t.Fatalf("NewMemoryStore() (reload) error = %v", err)
	}
	v, ok, _ := second.Get(context.Background(), "sel:xyz")
	if !ok || v != "candidate-1" {
		t.Errorf("reloaded Get() = (%q, %v), want (candidate-1, true)", v, ok)
	}
}

func TestSearchAndSelectionKeysAreDistinctNamespaces(t *testing.T) {
	if SearchKey("abc") == SelectionKey("abc") {
		t.Errorf("SearchKey and SelectionKey collide for the same persistence id")
	}
}
