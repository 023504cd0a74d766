package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "data", "revtrack.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepositoryLoadMissing(t *testing.T) {
	repo := newTestRepo(t)
	b, err := repo.Load(context.Background(), RevenueEntries)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if b != nil {
		t.Fatalf("expected nil payload, got %q", b)
	}
}

func TestSQLiteRepositorySaveIsUpsert(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	err := repo.Save(ctx,
		Snapshot{Collection: Calls, Payload: []byte(`[{"id":"c1"}]`)},
		Snapshot{Collection: RevenueEntries, Payload: []byte(`[{"id":"revenue-c1"}]`)},
	)
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := repo.Save(ctx, Snapshot{Collection: Calls, Payload: []byte(`[]`)}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	calls, _ := repo.Load(ctx, Calls)
	entries, _ := repo.Load(ctx, RevenueEntries)
	if string(calls) != "[]" {
		t.Fatalf("calls not overwritten: %q", calls)
	}
	if string(entries) != `[{"id":"revenue-c1"}]` {
		t.Fatalf("entries changed: %q", entries)
	}

	at, err := repo.UpdatedAt(ctx, Calls)
	if err != nil {
		t.Fatalf("updated at: %v", err)
	}
	if time.Since(at) > time.Minute {
		t.Fatalf("unexpected updated_at %v", at)
	}
}

func TestSQLiteRepositorySaveRollsBackOnCancel(t *testing.T) {
	repo := newTestRepo(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := repo.Save(ctx, Snapshot{Collection: Goals, Payload: []byte(`[{"id":"g1"}]`)})
	if err == nil {
		t.Fatal("expected error on cancelled context")
	}
	b, _ := repo.Load(context.Background(), Goals)
	if b != nil {
		t.Fatalf("expected nothing saved, got %q", b)
	}
}

func TestSQLiteRepositoryPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "revtrack.db")
	repo, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := repo.Save(context.Background(), Snapshot{Collection: Forms, Payload: []byte(`[1]`)}); err != nil {
		t.Fatal(err)
	}
	repo.Close()

	again, err := NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer again.Close()
	b, _ := again.Load(context.Background(), Forms)
	if string(b) != "[1]" {
		t.Fatalf("expected persisted payload, got %q", b)
	}
}
