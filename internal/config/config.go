// Package config loads the newsreel configuration.
//
// Configuration lives in a single YAML file; every value has a default so a
// missing file still yields a runnable pipeline. API keys are never read from
// the file - providers resolve them from the environment.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/mkowalski/newsreel/internal/logging"
)

type Config struct {
	Language string `yaml:"language"`
	Country  string `yaml:"country"`

	News      NewsConfig      `yaml:"news"`
	Dedup     DedupConfig     `yaml:"dedup"`
	Script    ScriptConfig    `yaml:"script"`
	Providers ProvidersConfig `yaml:"providers"`
	Store     StoreConfig     `yaml:"store"`
	Metrics   MetricsConfig   `yaml:"metrics"`
}

// NewsConfig controls source fetching and story selection.
type NewsConfig struct {
	// UpdateInterval is the watch-mode cycle length in seconds.
	UpdateInterval int `yaml:"update_interval"`

	// MaxResults caps how many items a single source may contribute.
	MaxResults int `yaml:"max_results"`

	// MaxAgeHours bounds both item freshness and fingerprint lifetime.
	MaxAgeHours int `yaml:"max_age_hours"`

	// MaxStories is the selection budget per run.
	MaxStories int `yaml:"max_stories"`

	RSSFeeds         []Feed   `yaml:"rss_feeds"`
	RedditSubreddits []string `yaml:"reddit_subreddits"`
	RedditLimit      int      `yaml:"reddit_limit"`

	// FetchTimeout is the per-source fetch timeout in seconds.
	FetchTimeout int `yaml:"fetch_timeout"`

	// MaxConcurrentFetches limits parallel source fetches.
	MaxConcurrentFetches int `yaml:"max_concurrent_fetches"`
}

// Feed is a named RSS/Atom feed.
type Feed struct {
	Name string `yaml:"name"`
	URL  string `yaml:"url"`
}

// DedupConfig selects and parameterizes the fingerprint index backend.
type DedupConfig struct {
	// Backend is one of: file, sqlite, redis, memory.
	Backend string `yaml:"backend"`

	// HashFile is the file backend's JSON path.
	HashFile string `yaml:"hash_file"`

	// SQLitePath is the sqlite backend's database path.
	SQLitePath string `yaml:"sqlite_path"`

	RedisAddr string `yaml:"redis_addr"`
	RedisDB   int    `yaml:"redis_db"`
}

// ScriptConfig controls narration length, pacing, and tone.
type ScriptConfig struct {
	BrandName string `yaml:"brand_name"`

	// Durations are in seconds.
	MinDuration    int `yaml:"min_duration"`
	TargetDuration int `yaml:"target_duration"`
	MaxDuration    int `yaml:"max_duration"`

	WordsPerMinute int `yaml:"words_per_minute"`
	MinWordCount   int `yaml:"min_word_count"`
	MaxWordCount   int `yaml:"max_word_count"`

	EngagementHooks    int `yaml:"engagement_hooks"`
	JokesPerScript     int `yaml:"jokes_per_script"`
	NewsItemsPerScript int `yaml:"news_items_per_script"`

	// Tone weights, each 0-1.
	Professionalism float64 `yaml:"professionalism"`
	Engagement      float64 `yaml:"engagement"`
	Humor           float64 `yaml:"humor"`
}

// ProvidersConfig controls the generation call chain.
type ProvidersConfig struct {
	// Primary and Fallback name providers: deepseek, gemini, openai, claude, ollama.
	Primary  string `yaml:"primary"`
	Fallback string `yaml:"fallback"`

	FallbackEnabled bool `yaml:"fallback_enabled"`
	Streaming       bool `yaml:"streaming"`

	MaxRetries int `yaml:"max_retries"`

	// RequestTimeout is the per-attempt timeout in seconds.
	RequestTimeout int `yaml:"request_timeout"`

	Temperature float64 `yaml:"temperature"`
	TopP        float64 `yaml:"top_p"`
	TopK        int     `yaml:"top_k"`
	MaxTokens   int     `yaml:"max_tokens"`

	// DebugMode keeps raw provider responses on attempt records.
	DebugMode bool `yaml:"debug_mode"`
}

type StoreConfig struct {
	Path       string `yaml:"path"`
	ScriptsDir string `yaml:"scripts_dir"`
}

type MetricsConfig struct {
	Enabled    bool   `yaml:"enabled"`
	ListenAddr string `yaml:"listen_addr"`
}

// Default returns sensible defaults for every option.
func Default() Config {
	return Config{
		Language: "en",
		Country:  "us",
		News: NewsConfig{
			UpdateInterval: 3600,
			MaxResults:     25,
			MaxAgeHours:    24,
			MaxStories:     5,
			RSSFeeds: []Feed{
				{Name: "BBC World", URL: "https://feeds.bbci.co.uk/news/world/rss.xml"},
				{Name: "CNN Top", URL: "http://rss.cnn.com/rss/cnn_topstories.rss"},
			},
			RedditSubreddits:     []string{"worldnews"},
			RedditLimit:          25,
			FetchTimeout:         30,
			MaxConcurrentFetches: 5,
		},
		Dedup: DedupConfig{
			Backend:    "file",
			HashFile:   "data/seen_hashes.json",
			SQLitePath: "data/seen.db",
			RedisAddr:  "localhost:6379",
		},
		Script: ScriptConfig{
			BrandName:          "Newsreel",
			MinDuration:        180,
			TargetDuration:     240,
			MaxDuration:        300,
			WordsPerMinute:     150,
			MinWordCount:       450,
			MaxWordCount:       750,
			EngagementHooks:    3,
			JokesPerScript:     2,
			NewsItemsPerScript: 3,
			Professionalism:    0.7,
			Engagement:         0.8,
			Humor:              0.4,
		},
		Providers: ProvidersConfig{
			Primary:         "deepseek",
			Fallback:        "gemini",
			FallbackEnabled: true,
			Streaming:       false,
			MaxRetries:      3,
			RequestTimeout:  120,
			Temperature:     0.7,
			TopP:            0.9,
			TopK:            40,
			MaxTokens:       4096,
		},
		Store: StoreConfig{
			Path:       "data/newsreel.db",
			ScriptsDir: "data/scripts",
		},
		Metrics: MetricsConfig{
			Enabled:    false,
			ListenAddr: ":9190",
		},
	}
}

// Load reads a YAML config file and merges it over defaults.
// If the file does not exist, defaults are returned without error.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.Info("No config file found, using defaults", "path", path)
			return cfg, nil
		}
		return cfg, err
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate rejects configurations the pipeline cannot run with.
func (c Config) Validate() error {
	if c.News.MaxStories < 1 {
		return fmt.Errorf("news.max_stories must be >= 1, got %d", c.News.MaxStories)
	}
	if c.News.MaxAgeHours < 1 {
		return fmt.Errorf("news.max_age_hours must be >= 1, got %d", c.News.MaxAgeHours)
	}
	if c.Script.WordsPerMinute <= 0 {
		return fmt.Errorf("script.words_per_minute must be positive, got %d", c.Script.WordsPerMinute)
	}
	if c.Script.MinWordCount > c.Script.MaxWordCount {
		return fmt.Errorf("script.min_word_count %d exceeds max_word_count %d",
			c.Script.MinWordCount, c.Script.MaxWordCount)
	}
	if c.Script.MinDuration > c.Script.MaxDuration {
		return fmt.Errorf("script.min_duration %d exceeds max_duration %d",
			c.Script.MinDuration, c.Script.MaxDuration)
	}
	if c.Providers.MaxRetries < 1 {
		return fmt.Errorf("providers.max_retries must be >= 1, got %d", c.Providers.MaxRetries)
	}
	if c.Providers.RequestTimeout < 1 {
		return fmt.Errorf("providers.request_timeout must be >= 1, got %d", c.Providers.RequestTimeout)
	}
	switch c.Dedup.Backend {
	case "file", "sqlite", "redis", "memory":
	default:
		return fmt.Errorf("dedup.backend must be file, sqlite, redis, or memory, got %q", c.Dedup.Backend)
	}
	return nil
}

// MaxAge returns the freshness window as a duration.
func (c NewsConfig) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeHours) * time.Hour
}

// Interval returns the watch-mode cycle length as a duration.
func (c NewsConfig) Interval() time.Duration {
	return time.Duration(c.UpdateInterval) * time.Second
}

// Timeout returns the per-attempt request timeout as a duration.
func (c ProvidersConfig) Timeout() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Second
}
