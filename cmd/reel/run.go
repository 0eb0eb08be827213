package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mkowalski/newsreel/internal/logging"
	"github.com/mkowalski/newsreel/internal/metrics"
	"github.com/mkowalski/newsreel/internal/script"
)

func runRun() {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	cfg := setup(fs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	p := newPipeline(ctx, cfg)
	defer p.Close()

	rec, id, err := p.cycle(ctx)
	switch {
	case errors.Is(err, script.ErrEmptySelection):
		fmt.Println("Nothing new to narrate.")
	case err != nil:
		logging.Fatal("Run failed", "error", err)
	default:
		fmt.Print(renderScript(rec, cfg.Script.WordsPerMinute))
		logging.Info("Run complete", "script_id", id, "words", rec.WordCount, "degraded", rec.Degraded)
	}
}

func runWatch() {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	logDir := fs.String("logdir", "", "Write logs to a dated file under this directory")
	cfg := setup(fs)

	if *logDir != "" {
		if err := logging.InitFile(*logDir, cfg.Providers.DebugMode); err != nil {
			logging.Fatal("Log file init failed", "dir", *logDir, "error", err)
		}
		defer logging.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Metrics.Enabled {
		go metrics.Serve(cfg.Metrics.ListenAddr)
	}

	p := newPipeline(ctx, cfg)
	defer p.Close()

	interval := cfg.News.Interval()
	logging.Info("Watch started",
		"interval", interval,
		"sources", len(cfg.News.RSSFeeds)+len(cfg.News.RedditSubreddits),
		"provider", cfg.Providers.Primary,
	)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		rec, id, err := p.cycle(ctx)
		switch {
		case errors.Is(err, context.Canceled):
			logging.Info("Watch stopped")
			return
		case errors.Is(err, script.ErrEmptySelection):
			logging.Info("Cycle found nothing new")
		case err != nil:
			logging.Error("Cycle failed", "error", err)
		default:
			logging.Info("Cycle complete", "script_id", id, "words", rec.WordCount, "degraded", rec.Degraded)
		}

		select {
		case <-ctx.Done():
			logging.Info("Watch stopped")
			return
		case <-ticker.C:
		}
	}
}
