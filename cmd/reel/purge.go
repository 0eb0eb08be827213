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

// runPurge evicts expired fingerprints so forgotten stories can run
// again, and optionally prunes the stored script history.
func runPurge() {
	fs := flag.NewFlagSet("purge", flag.ExitOnError)
	keep := fs.Int("keep-scripts", -1, "Keep only the newest N stored scripts (negative disables)")
	cfg := setup(fs)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	index := openIndex(ctx, cfg)
	evicted, err := index.EvictExpired(ctx, time.Now())
	if err != nil {
		logging.Error("Eviction failed", "error", err)
	} else {
		if err := index.Persist(ctx); err != nil {
			logging.Error("Index persist failed", "error", err)
		}
		fmt.Printf("Evicted %d expired fingerprints.\n", evicted)
	}
	index.Close()

	if *keep < 0 {
		return
	}

	st := openStore(cfg)
	defer st.Close()

	removed, err := st.PruneScripts(*keep)
	if err != nil {
		logging.Fatal("Script prune failed", "error", err)
	}
	fmt.Printf("Pruned %d stored scripts, kept the newest %d.\n", removed, *keep)
}
