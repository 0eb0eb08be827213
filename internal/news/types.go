package news

import (
	"context"
	"time"
)

// SourceKind identifies the origin of a news item
type SourceKind string

const (
	KindRSS    SourceKind = "rss"
	KindReddit SourceKind = "reddit"
	KindSearch SourceKind = "search"
)

// Item represents a single discovered news event.
// This is the unified type that flows from every adapter into aggregation.
type Item struct {
	Kind       SourceKind
	SourceName string // "BBC World", "r/worldnews"
	Title      string
	Summary    string
	URL        string // Link to original
	Author     string
	Published  time.Time // Source-supplied; zero means unknown
	Fetched    time.Time
}

// Timestamp returns the item's effective time for freshness and ranking:
// the published time when the source supplied one, otherwise the fetch time.
func (i Item) Timestamp() time.Time {
	if !i.Published.IsZero() {
		return i.Published
	}
	return i.Fetched
}

// Source is the interface all news adapters implement.
// Fetch must skip malformed entries rather than failing the whole batch.
type Source interface {
	// Name returns human-readable source name
	Name() string

	// Kind returns the source kind
	Kind() SourceKind

	// Fetch retrieves latest items from this source
	Fetch(ctx context.Context) ([]Item, error)
}
