package news

import (
	"testing"
	"time"
)

func TestItemTimestamp(t *testing.T) {
	published := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	fetched := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	withPublished := Item{Published: published, Fetched: fetched}
	if !withPublished.Timestamp().Equal(published) {
		t.Errorf("expected published time, got %v", withPublished.Timestamp())
	}

	// Feeds that omit the published time fall back to when we saw the item
	withoutPublished := Item{Fetched: fetched}
	if !withoutPublished.Timestamp().Equal(fetched) {
		t.Errorf("expected fetched time, got %v", withoutPublished.Timestamp())
	}
}
