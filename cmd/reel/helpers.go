package main

import (
	"context"
	"flag"
	"os"
	"path/filepath"

	"github.com/mkowalski/newsreel/internal/config"
	"github.com/mkowalski/newsreel/internal/dedup"
	"github.com/mkowalski/newsreel/internal/llm"
	"github.com/mkowalski/newsreel/internal/logging"
	"github.com/mkowalski/newsreel/internal/news"
	"github.com/mkowalski/newsreel/internal/news/reddit"
	"github.com/mkowalski/newsreel/internal/news/rss"
	"github.com/mkowalski/newsreel/internal/store"
)

// setup parses flags, initializes logging, and loads the config. Every
// subcommand starts here; register command-specific flags on fs before
// calling.
func setup(fs *flag.FlagSet) config.Config {
	cfgPath := fs.String("config", "newsreel.yaml", "Path to the YAML config file")
	debug := fs.Bool("debug", false, "Verbose logging; keep raw provider responses")
	fs.Parse(os.Args[1:])

	logging.Init(*debug)

	cfg, err := config.Load(*cfgPath)
	if err != nil {
		logging.Fatal("Config load failed", "path", *cfgPath, "error", err)
	}
	if *debug {
		cfg.Providers.DebugMode = true
	}
	return cfg
}

// ensureDir creates the parent directory of a file path.
func ensureDir(path string) {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		logging.Fatal("Cannot create directory", "dir", dir, "error", err)
	}
}

// openIndex builds the fingerprint index named by dedup.backend, or fatals.
func openIndex(ctx context.Context, cfg config.Config) dedup.Index {
	maxAge := cfg.News.MaxAge()

	switch cfg.Dedup.Backend {
	case "file":
		ensureDir(cfg.Dedup.HashFile)
		return dedup.NewFileIndex(cfg.Dedup.HashFile, maxAge)
	case "sqlite":
		ensureDir(cfg.Dedup.SQLitePath)
		idx, err := dedup.NewSQLiteIndex(cfg.Dedup.SQLitePath, maxAge)
		if err != nil {
			logging.Fatal("Cannot open SQLite index", "path", cfg.Dedup.SQLitePath, "error", err)
		}
		return idx
	case "redis":
		idx, err := dedup.NewRedisIndex(ctx, cfg.Dedup.RedisAddr, cfg.Dedup.RedisDB, maxAge)
		if err != nil {
			logging.Fatal("Cannot reach Redis", "addr", cfg.Dedup.RedisAddr, "error", err)
		}
		return idx
	case "memory":
		return dedup.NewMemoryIndex(maxAge)
	default:
		logging.Fatal("Unknown dedup backend", "backend", cfg.Dedup.Backend)
		return nil
	}
}

// openStore opens the script store, or fatals.
func openStore(cfg config.Config) *store.Store {
	ensureDir(cfg.Store.Path)
	st, err := store.Open(cfg.Store.Path)
	if err != nil {
		logging.Fatal("Cannot open store", "path", cfg.Store.Path, "error", err)
	}
	return st
}

// buildSources turns the config's feed and subreddit lists into adapters.
func buildSources(cfg config.Config) []news.Source {
	var sources []news.Source
	for _, feed := range cfg.News.RSSFeeds {
		sources = append(sources, rss.New(feed.Name, feed.URL, cfg.News.MaxResults))
	}
	for _, sub := range cfg.News.RedditSubreddits {
		sources = append(sources, reddit.New(sub, cfg.News.RedditLimit))
	}
	return sources
}

// buildProviders resolves the configured provider names. The fallback is
// nil when disabled. Assigning only non-nil concrete values keeps the
// interface itself nil in the disabled case.
func buildProviders(cfg config.Config) (primary, fallback llm.Provider) {
	p := llm.NewProviderByName(cfg.Providers.Primary)
	if p == nil {
		logging.Fatal("Unknown provider", "name", cfg.Providers.Primary, "known", llm.KnownProviders())
	}
	primary = p

	if cfg.Providers.FallbackEnabled && cfg.Providers.Fallback != "" {
		f := llm.NewProviderByName(cfg.Providers.Fallback)
		if f == nil {
			logging.Fatal("Unknown fallback provider", "name", cfg.Providers.Fallback, "known", llm.KnownProviders())
		}
		fallback = f
	}
	return primary, fallback
}

// selectionPath is where 'reel fetch' leaves the selection for 'reel script'.
func selectionPath(cfg config.Config) string {
	return filepath.Join(filepath.Dir(cfg.Store.Path), "selection.json")
}

// truncate shortens a string to max runes, appending "..." if truncated.
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-3]) + "..."
}
