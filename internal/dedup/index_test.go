package dedup

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestMemoryIndexAdmitAndDuplicate(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(24 * time.Hour)
	now := time.Now()

	fp := Compute("some story", "https://example.com/1")

	dup, err := idx.IsDuplicate(ctx, fp, now)
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if dup {
		t.Error("unseen fingerprint reported as duplicate")
	}

	if err := idx.Admit(ctx, fp, now); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	dup, err = idx.IsDuplicate(ctx, fp, now)
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if !dup {
		t.Error("admitted fingerprint not reported as duplicate")
	}
}

func TestMemoryIndexFirstSeenExpiry(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(24 * time.Hour)

	t0 := time.Now()
	fp := Compute("recurring story", "https://example.com/r")

	if err := idx.Admit(ctx, fp, t0); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	// Re-admitting later must NOT refresh first_seen
	if err := idx.Admit(ctx, fp, t0.Add(12*time.Hour)); err != nil {
		t.Fatalf("re-Admit failed: %v", err)
	}

	// Just past the window measured from the FIRST sighting
	later := t0.Add(24*time.Hour + time.Minute)
	dup, err := idx.IsDuplicate(ctx, fp, later)
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if dup {
		t.Error("fingerprint still suppressed after max age from first sighting")
	}

	removed, err := idx.EvictExpired(ctx, later)
	if err != nil {
		t.Fatalf("EvictExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 eviction, got %d", removed)
	}
	if idx.Len() != 0 {
		t.Errorf("expected empty index after eviction, got %d records", idx.Len())
	}
}

func TestMemoryIndexEvictKeepsFresh(t *testing.T) {
	ctx := context.Background()
	idx := NewMemoryIndex(24 * time.Hour)
	now := time.Now()

	old := Compute("old story", "https://example.com/old")
	fresh := Compute("fresh story", "https://example.com/fresh")

	idx.Admit(ctx, old, now.Add(-25*time.Hour))
	idx.Admit(ctx, fresh, now.Add(-1*time.Hour))

	removed, err := idx.EvictExpired(ctx, now)
	if err != nil {
		t.Fatalf("EvictExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 eviction, got %d", removed)
	}

	dup, _ := idx.IsDuplicate(ctx, fresh, now)
	if !dup {
		t.Error("fresh fingerprint evicted")
	}
}

func TestFileIndexRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "seen.json")
	now := time.Now()

	idx := NewFileIndex(path, 24*time.Hour)
	fp := Compute("durable story", "https://example.com/d")

	if err := idx.Admit(ctx, fp, now); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}
	if err := idx.Persist(ctx); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	// Reload from disk
	idx2 := NewFileIndex(path, 24*time.Hour)
	dup, err := idx2.IsDuplicate(ctx, fp, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if !dup {
		t.Error("persisted fingerprint lost across reload")
	}
}

func TestFileIndexCorruptFileFailsOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	if err := os.WriteFile(path, []byte("{truncated"), 0644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	idx := NewFileIndex(path, 24*time.Hour)
	if idx.Len() != 0 {
		t.Errorf("corrupt file should load as empty index, got %d records", idx.Len())
	}

	// Index must remain usable
	ctx := context.Background()
	now := time.Now()
	fp := Compute("post-corruption story", "https://example.com/p")
	if err := idx.Admit(ctx, fp, now); err != nil {
		t.Fatalf("Admit after corrupt load failed: %v", err)
	}
	if err := idx.Persist(ctx); err != nil {
		t.Fatalf("Persist after corrupt load failed: %v", err)
	}
}

func TestFileIndexSkipsBadTimestamps(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seen.json")
	content := `{"aaaa": "not-a-time", "bbbb": "2026-08-20T10:00:00Z"}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	idx := NewFileIndex(path, 24*time.Hour)
	if idx.Len() != 1 {
		t.Errorf("expected 1 surviving record, got %d", idx.Len())
	}
}

func TestFileIndexMissingFileIsEmpty(t *testing.T) {
	idx := NewFileIndex(filepath.Join(t.TempDir(), "absent.json"), 24*time.Hour)
	if idx.Len() != 0 {
		t.Errorf("missing file should load as empty index, got %d records", idx.Len())
	}
}

func TestSQLiteIndexAdmitAndExpiry(t *testing.T) {
	ctx := context.Background()
	idx, err := NewSQLiteIndex(":memory:", 24*time.Hour)
	if err != nil {
		t.Fatalf("NewSQLiteIndex failed: %v", err)
	}
	defer idx.Close()

	t0 := time.Now()
	fp := Compute("sqlite story", "https://example.com/s")

	if err := idx.Admit(ctx, fp, t0); err != nil {
		t.Fatalf("Admit failed: %v", err)
	}

	dup, err := idx.IsDuplicate(ctx, fp, t0.Add(time.Hour))
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if !dup {
		t.Error("admitted fingerprint not reported as duplicate")
	}

	// INSERT OR IGNORE keeps the original first_seen
	if err := idx.Admit(ctx, fp, t0.Add(20*time.Hour)); err != nil {
		t.Fatalf("re-Admit failed: %v", err)
	}

	later := t0.Add(24*time.Hour + time.Minute)
	dup, err = idx.IsDuplicate(ctx, fp, later)
	if err != nil {
		t.Fatalf("IsDuplicate failed: %v", err)
	}
	if dup {
		t.Error("fingerprint still suppressed after max age from first sighting")
	}

	removed, err := idx.EvictExpired(ctx, later)
	if err != nil {
		t.Fatalf("EvictExpired failed: %v", err)
	}
	if removed != 1 {
		t.Errorf("expected 1 eviction, got %d", removed)
	}
}
