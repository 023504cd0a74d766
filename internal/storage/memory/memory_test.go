package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"revtrack/internal/storage"
)

func TestStoreSaveLoad(t *testing.T) {
	s := New()
	ctx := context.Background()

	b, err := s.Load(ctx, storage.Calls)
	if err != nil || b != nil {
		t.Fatalf("expected empty collection, got %q, %v", b, err)
	}

	payload := []byte(`[{"id":"c1"}]`)
	if err := s.Save(ctx, storage.Snapshot{Collection: storage.Calls, Payload: payload}); err != nil {
		t.Fatalf("save: %v", err)
	}
	payload[0] = 'x' // caller mutation must not leak into the store

	b, err = s.Load(ctx, storage.Calls)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if string(b) != `[{"id":"c1"}]` {
		t.Fatalf("unexpected payload %q", b)
	}
}

func TestStoreClosed(t *testing.T) {
	s := New()
	_ = s.Close()
	if _, err := s.Load(context.Background(), storage.Goals); err != storage.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
	if err := s.Save(context.Background()); err != storage.ErrClosed {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}

func TestNewFromDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "goals.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}
	s, err := NewFromDir(dir)
	if err != nil {
		t.Fatalf("NewFromDir: %v", err)
	}
	b, _ := s.Load(context.Background(), storage.Goals)
	if string(b) != "[]" {
		t.Fatalf("expected seeded goals, got %q", b)
	}
	b, _ = s.Load(context.Background(), storage.RevenueEntries)
	if b != nil {
		t.Fatalf("expected no entries, got %q", b)
	}
}
