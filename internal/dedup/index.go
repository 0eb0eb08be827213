package dedup

import (
	"context"
	"sync"
	"time"
)

// Index is the durable seen-fingerprint store. Implementations must be safe
// for concurrent readers; mutation follows single-writer discipline (one
// aggregation run at a time).
type Index interface {
	// IsDuplicate reports whether fp has an unexpired record.
	IsDuplicate(ctx context.Context, fp Fingerprint, now time.Time) (bool, error)

	// Admit records fp with first_seen_at = now. Admitting an existing
	// fingerprint is a no-op: expiry runs from first sighting.
	Admit(ctx context.Context, fp Fingerprint, now time.Time) error

	// EvictExpired removes records older than the index's age window and
	// returns how many were removed.
	EvictExpired(ctx context.Context, now time.Time) (int, error)

	// Persist flushes buffered state to durable storage. Backends that are
	// durable per operation treat this as a no-op.
	Persist(ctx context.Context) error

	Close() error
}

// MemoryIndex is a map-backed Index with no durability. It backs the
// "memory" dedup backend and is the in-memory half of the file backend's
// failure mode (corrupt state loads as an empty index).
type MemoryIndex struct {
	mu     sync.RWMutex
	maxAge time.Duration
	seen   map[Fingerprint]time.Time
}

var _ Index = (*MemoryIndex)(nil)

// NewMemoryIndex creates an empty in-memory index.
func NewMemoryIndex(maxAge time.Duration) *MemoryIndex {
	return &MemoryIndex{
		maxAge: maxAge,
		seen:   make(map[Fingerprint]time.Time),
	}
}

func (m *MemoryIndex) IsDuplicate(ctx context.Context, fp Fingerprint, now time.Time) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	first, ok := m.seen[fp]
	if !ok {
		return false, nil
	}
	return now.Sub(first) <= m.maxAge, nil
}

func (m *MemoryIndex) Admit(ctx context.Context, fp Fingerprint, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.seen[fp]; ok {
		return nil
	}
	m.seen[fp] = now
	return nil
}

func (m *MemoryIndex) EvictExpired(ctx context.Context, now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := now.Add(-m.maxAge)
	removed := 0
	for fp, first := range m.seen {
		if first.Before(cutoff) {
			delete(m.seen, fp)
			removed++
		}
	}
	return removed, nil
}

func (m *MemoryIndex) Persist(ctx context.Context) error { return nil }

func (m *MemoryIndex) Close() error { return nil }

// Len returns the number of records currently held.
func (m *MemoryIndex) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.seen)
}
