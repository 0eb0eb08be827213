// Package aggregate merges fetched news items, suppresses duplicates through
// the fingerprint index, and selects the bounded story set for one run.
package aggregate

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mkowalski/newsreel/internal/logging"
	"github.com/mkowalski/newsreel/internal/metrics"
	"github.com/mkowalski/newsreel/internal/news"
)

const (
	defaultFetchTimeout  = 30 * time.Second
	defaultMaxConcurrent = 5
)

// Coordinator fans fetches out across all configured sources.
// Uses context cancellation as the ONLY stop mechanism.
type Coordinator struct {
	sources       []news.Source // IMMUTABLE: set at construction, never modified
	timeout       time.Duration
	maxConcurrent int
}

// NewCoordinator creates a Coordinator over the given sources.
func NewCoordinator(sources []news.Source, timeout time.Duration, maxConcurrent int) *Coordinator {
	// Copy sources slice to ensure immutability
	sourcesCopy := make([]news.Source, len(sources))
	copy(sourcesCopy, sources)

	if timeout <= 0 {
		timeout = defaultFetchTimeout
	}
	if maxConcurrent <= 0 {
		maxConcurrent = defaultMaxConcurrent
	}

	return &Coordinator{
		sources:       sourcesCopy,
		timeout:       timeout,
		maxConcurrent: maxConcurrent,
	}
}

// FetchAll fetches every source in parallel and returns the combined batch.
// Each fetch has its own timeout. A failing source is logged and skipped and
// never aborts the run. The result is an unordered batch: callers must take
// recency from item timestamps, not arrival order.
func (c *Coordinator) FetchAll(ctx context.Context) []news.Item {
	var (
		mu  sync.Mutex
		all []news.Item
	)

	var g errgroup.Group
	g.SetLimit(c.maxConcurrent)

	for _, src := range c.sources {
		g.Go(func() error {
			// Early exit if context cancelled
			if ctx.Err() != nil {
				return nil
			}

			fetchCtx, cancel := context.WithTimeout(ctx, c.timeout)
			defer cancel()

			items, err := src.Fetch(fetchCtx)
			if err != nil {
				logging.Warn("Source fetch failed", "source", src.Name(), "error", err)
				metrics.SourceFetches.WithLabelValues(src.Name(), "error").Inc()
				return nil // never fail the group - errors reported per-source
			}

			logging.Debug("Source fetched", "source", src.Name(), "items", len(items))
			metrics.SourceFetches.WithLabelValues(src.Name(), "ok").Inc()
			metrics.ItemsFetched.Add(float64(len(items)))

			mu.Lock()
			all = append(all, items...)
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait() // All goroutines return nil, but explicit discard for clarity

	return all
}
