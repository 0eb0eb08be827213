package aggregate

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/mkowalski/newsreel/internal/dedup"
	"github.com/mkowalski/newsreel/internal/logging"
	"github.com/mkowalski/newsreel/internal/metrics"
	"github.com/mkowalski/newsreel/internal/news"
)

// Selection is the ordered story set chosen by one aggregation pass,
// newest first. Immutable once returned.
type Selection struct {
	Items     []news.Item
	CreatedAt time.Time

	// Pass counters, for run records and rendering.
	Fetched    int
	Blocked    int
	Stale      int
	Duplicates int
}

// Aggregator applies the freshness window, the fingerprint index, and the
// story budget to a fetched batch. Index failures degrade the pass (items
// treated as fresh) rather than abort it; only context cancellation stops
// a pass early.
type Aggregator struct {
	index      dedup.Index
	filter     *news.Filter
	maxAge     time.Duration
	maxStories int
}

// New creates an Aggregator. The filter may be nil to disable keyword and
// pattern blocking; empty-title and empty-URL items are dropped regardless.
func New(index dedup.Index, filter *news.Filter, maxAge time.Duration, maxStories int) *Aggregator {
	if maxAge <= 0 {
		maxAge = 24 * time.Hour
	}
	if maxStories <= 0 {
		maxStories = 10
	}
	return &Aggregator{
		index:      index,
		filter:     filter,
		maxAge:     maxAge,
		maxStories: maxStories,
	}
}

// Aggregate runs one admission pass over raw at the given instant: blocked
// and stale items are dropped, expired fingerprints evicted, duplicates
// suppressed, and the survivors ranked newest first and truncated to the
// story budget. Every selected item's fingerprint is committed to the index
// before the Selection is returned, so re-running the same batch yields an
// empty selection. Returns an error only when ctx is cancelled mid-pass.
func (a *Aggregator) Aggregate(ctx context.Context, raw []news.Item, now time.Time) (Selection, error) {
	start := time.Now()

	fresh := make([]news.Item, 0, len(raw))
	stale := 0
	blocked := 0
	for _, item := range raw {
		if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.URL) == "" {
			blocked++
			continue
		}
		if a.filter != nil && a.filter.ShouldBlock(item) {
			blocked++
			continue
		}
		if now.Sub(item.Timestamp()) > a.maxAge {
			stale++
			continue
		}
		fresh = append(fresh, item)
	}
	metrics.StaleDropped.Add(float64(stale))

	evicted, err := a.index.EvictExpired(ctx, now)
	if err != nil {
		logging.Warn("Fingerprint eviction failed", "error", err)
	} else if evicted > 0 {
		logging.Debug("Expired fingerprints evicted", "count", evicted)
		metrics.FingerprintsEvicted.Add(float64(evicted))
	}

	admitted := make([]news.Item, 0, len(fresh))
	dupes := 0
	for _, item := range fresh {
		if err := ctx.Err(); err != nil {
			return Selection{}, err
		}

		fp := dedup.Compute(item.Title, item.URL)
		dup, err := a.index.IsDuplicate(ctx, fp, now)
		if err != nil {
			// Degraded pass: an unreadable index must not drop news
			logging.Warn("Duplicate lookup failed, treating item as new", "url", item.URL, "error", err)
		}
		if dup {
			dupes++
			metrics.DuplicatesSkipped.Inc()
			continue
		}
		if err := a.index.Admit(ctx, fp, now); err != nil {
			logging.Warn("Fingerprint admission failed", "url", item.URL, "error", err)
		}
		metrics.StoriesAdmitted.Inc()
		admitted = append(admitted, item)
	}

	// Newest first; stable so equal timestamps keep batch order
	sort.SliceStable(admitted, func(i, j int) bool {
		return admitted[i].Timestamp().After(admitted[j].Timestamp())
	})
	if len(admitted) > a.maxStories {
		admitted = admitted[:a.maxStories]
	}

	// Admissions must reach durable storage before the selection is final
	if err := a.index.Persist(ctx); err != nil {
		logging.Error("Fingerprint index persist failed", "error", err)
	}

	metrics.AggregationSeconds.Observe(time.Since(start).Seconds())
	logging.Info("Aggregation complete",
		"fetched", len(raw),
		"blocked", blocked,
		"stale", stale,
		"duplicates", dupes,
		"selected", len(admitted),
	)

	return Selection{
		Items:      admitted,
		CreatedAt:  now,
		Fetched:    len(raw),
		Blocked:    blocked,
		Stale:      stale,
		Duplicates: dupes,
	}, nil
}
