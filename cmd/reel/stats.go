package main

import (
	"flag"
	"fmt"
	"time"

	"github.com/mkowalski/newsreel/internal/llm"
	"github.com/mkowalski/newsreel/internal/logging"
)

func runStats() {
	fs := flag.NewFlagSet("stats", flag.ExitOnError)
	runsN := fs.Int("runs", 5, "Recent runs to list (0 disables)")
	cfg := setup(fs)

	st := openStore(cfg)
	defer st.Close()

	stats, err := st.GetStats()
	if err != nil {
		logging.Fatal("Stats query failed", "error", err)
	}

	fmt.Println(headerStyle.Render("Store"))
	fmt.Printf("Scripts:           %d\n", stats.Scripts)
	fmt.Printf("Degraded:          %d\n", stats.Degraded)
	if stats.Scripts > 0 {
		fmt.Printf("Avg word count:    %.0f\n", stats.AvgWordCount)
		fmt.Printf("Last generated:    %s\n", stats.LastGenerated.Format(time.RFC3339))
	}
	fmt.Printf("Runs:              %d\n", stats.Runs)
	fmt.Printf("Failed runs:       %d\n", stats.Failed)

	fmt.Println()
	fmt.Println(headerStyle.Render("Providers"))
	available := map[string]bool{}
	for _, name := range llm.AvailableProviders() {
		available[name] = true
	}
	for _, name := range llm.KnownProviders() {
		state := "not configured"
		if available[name] {
			state = "ready"
		}
		role := ""
		if name == cfg.Providers.Primary {
			role = " (primary)"
		} else if name == cfg.Providers.Fallback && cfg.Providers.FallbackEnabled {
			role = " (fallback)"
		}
		fmt.Printf("  %-10s %s%s\n", name, state, role)
	}

	if *runsN <= 0 || stats.Runs == 0 {
		return
	}

	runs, err := st.RecentRuns(*runsN)
	if err != nil {
		logging.Fatal("Run query failed", "error", err)
	}

	fmt.Println()
	fmt.Println(headerStyle.Render("Recent runs"))
	for _, r := range runs {
		line := fmt.Sprintf("  %s  %-7s fetched %3d  selected %2d  dupes %3d",
			r.StartedAt.Format("2006-01-02 15:04"), r.Status, r.Fetched, r.Selected, r.Duplicates)
		if r.Error != "" {
			line += "  " + sourceStyle.Render(truncate(r.Error, 60))
		}
		fmt.Println(line)
	}
}
