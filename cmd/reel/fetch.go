package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkowalski/newsreel/internal/aggregate"
	"github.com/mkowalski/newsreel/internal/logging"
	"github.com/mkowalski/newsreel/internal/news"
)

// runFetch aggregates without generating: fetch, select, save the
// selection for a later 'reel script'. The selected fingerprints are
// admitted, so a repeat fetch yields nothing until the stories expire.
func runFetch() {
	fs := flag.NewFlagSet("fetch", flag.ExitOnError)
	cfg := setup(fs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index := openIndex(ctx, cfg)
	defer index.Close()

	coord := aggregate.NewCoordinator(
		buildSources(cfg),
		time.Duration(cfg.News.FetchTimeout)*time.Second,
		cfg.News.MaxConcurrentFetches,
	)
	agg := aggregate.New(index, news.DefaultFilter(), cfg.News.MaxAge(), cfg.News.MaxStories)

	raw := coord.FetchAll(ctx)
	sel, err := agg.Aggregate(ctx, raw, time.Now())
	if err != nil {
		logging.Fatal("Aggregation failed", "error", err)
	}

	fmt.Print(renderSelection(sel))

	if len(sel.Items) == 0 {
		return
	}

	path := selectionPath(cfg)
	ensureDir(path)
	art := selectionArtifact{
		CreatedAt:  sel.CreatedAt,
		Fetched:    sel.Fetched,
		Duplicates: sel.Duplicates,
		Items:      sel.Items,
	}
	if err := saveSelection(path, art); err != nil {
		logging.Fatal("Selection save failed", "path", path, "error", err)
	}
	fmt.Printf("\nSelection saved to %s — run 'reel script' to generate.\n", path)
}
