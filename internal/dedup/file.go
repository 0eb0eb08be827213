package dedup

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mkowalski/newsreel/internal/logging"
)

// FileIndex is the default Index backend: a JSON object mapping fingerprint
// to RFC3339 first-seen timestamp. The file may be hand-edited; anything
// unreadable loads as an empty index (fail open) with a logged warning.
type FileIndex struct {
	mu     sync.RWMutex
	path   string
	maxAge time.Duration
	seen   map[Fingerprint]time.Time
	dirty  bool
}

var _ Index = (*FileIndex)(nil)

// NewFileIndex loads the index at path. It never fails: a missing file is a
// first run, a corrupt file starts empty.
func NewFileIndex(path string, maxAge time.Duration) *FileIndex {
	idx := &FileIndex{
		path:   path,
		maxAge: maxAge,
		seen:   make(map[Fingerprint]time.Time),
	}
	idx.load()
	return idx
}

func (f *FileIndex) load() {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if !os.IsNotExist(err) {
			logging.Warn("Seen index unreadable, starting empty", "path", f.path, "error", err)
		}
		return
	}

	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		logging.Warn("Seen index corrupt, starting empty", "path", f.path, "error", err)
		return
	}

	for fp, ts := range raw {
		t, err := time.Parse(time.RFC3339, ts)
		if err != nil {
			// Tolerate individual hand-edited entries
			logging.Warn("Dropping unparseable seen record", "fingerprint", fp, "value", ts)
			continue
		}
		f.seen[Fingerprint(fp)] = t
	}
}

func (f *FileIndex) IsDuplicate(ctx context.Context, fp Fingerprint, now time.Time) (bool, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	first, ok := f.seen[fp]
	if !ok {
		return false, nil
	}
	return now.Sub(first) <= f.maxAge, nil
}

func (f *FileIndex) Admit(ctx context.Context, fp Fingerprint, now time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.seen[fp]; ok {
		return nil
	}
	f.seen[fp] = now
	f.dirty = true
	return nil
}

func (f *FileIndex) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cutoff := now.Add(-f.maxAge)
	removed := 0
	for fp, first := range f.seen {
		if first.Before(cutoff) {
			delete(f.seen, fp)
			removed++
		}
	}
	if removed > 0 {
		f.dirty = true
	}
	return removed, nil
}

// Persist writes the full map atomically (temp file + rename), so a crash
// mid-write never leaves a truncated index behind.
func (f *FileIndex) Persist(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.dirty {
		return nil
	}

	raw := make(map[string]string, len(f.seen))
	for fp, first := range f.seen {
		raw[string(fp)] = first.UTC().Format(time.RFC3339)
	}

	data, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}

	if dir := filepath.Dir(f.path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}

	tmp := f.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return err
	}
	if err := os.Rename(tmp, f.path); err != nil {
		os.Remove(tmp)
		return err
	}

	f.dirty = false
	return nil
}

func (f *FileIndex) Close() error {
	return f.Persist(context.Background())
}

// Len returns the number of records currently held.
func (f *FileIndex) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.seen)
}
