package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/mkowalski/newsreel/internal/logging"
)

// runSearch queries the full-text index over stored scripts.
func runSearch() {
	fs := flag.NewFlagSet("search", flag.ExitOnError)
	limit := fs.Int("limit", 10, "Maximum results")
	full := fs.Bool("full", false, "Print the full text of the best match")
	cfg := setup(fs)

	query := strings.TrimSpace(strings.Join(fs.Args(), " "))
	if query == "" {
		fmt.Fprintln(os.Stderr, "usage: reel search [flags] <query>")
		os.Exit(1)
	}

	st := openStore(cfg)
	defer st.Close()

	results, err := st.SearchScripts(query, *limit)
	if err != nil {
		logging.Fatal("Search failed", "query", query, "error", err)
	}
	if len(results) == 0 {
		fmt.Println("No scripts match.")
		return
	}

	fmt.Println(headerStyle.Render(fmt.Sprintf("%d scripts match %q", len(results), query)))
	for _, s := range results {
		fmt.Println(renderScriptRow(s))
	}

	if *full {
		fmt.Println()
		fmt.Print(renderScript(results[0].Record, cfg.Script.WordsPerMinute))
	}
}
