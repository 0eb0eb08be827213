package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkowalski/newsreel/internal/logging"
)

// runScript generates a script from the selection 'reel fetch' saved and
// consumes the artifact on success.
func runScript() {
	fs := flag.NewFlagSet("script", flag.ExitOnError)
	cfg := setup(fs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	path := selectionPath(cfg)
	art, err := loadSelection(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Fatal("No saved selection, run 'reel fetch' first", "path", path)
		}
		logging.Fatal("Selection load failed", "path", path, "error", err)
	}
	if len(art.Items) == 0 {
		logging.Fatal("Saved selection is empty, run 'reel fetch' first", "path", path)
	}
	if age := time.Since(art.CreatedAt); age > cfg.News.MaxAge() {
		logging.Warn("Saved selection is older than the freshness window",
			"age", age.Round(time.Minute))
	}

	p := newScriptPipeline(cfg)
	defer p.Close()

	rec, id, err := p.generate(ctx, art.Items, runCounts{
		startedAt:  time.Now(),
		fetched:    art.Fetched,
		duplicates: art.Duplicates,
	})
	if err != nil {
		logging.Fatal("Generation failed", "error", err)
	}

	fmt.Print(renderScript(rec, cfg.Script.WordsPerMinute))

	// Consume the artifact so a repeat 'reel script' cannot double-narrate
	if err := os.Remove(path); err != nil {
		logging.Warn("Selection artifact not removed", "path", path, "error", err)
	}
	logging.Info("Script saved", "script_id", id, "words", rec.WordCount)
}
