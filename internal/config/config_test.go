package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	def := Default()
	if cfg.News.MaxStories != def.News.MaxStories {
		t.Errorf("expected default max_stories %d, got %d", def.News.MaxStories, cfg.News.MaxStories)
	}
	if cfg.Providers.Primary != "deepseek" {
		t.Errorf("expected default primary provider deepseek, got %q", cfg.Providers.Primary)
	}
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
language: de
news:
  max_stories: 3
  max_age_hours: 12
script:
  words_per_minute: 140
providers:
  fallback_enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Language != "de" {
		t.Errorf("expected language de, got %q", cfg.Language)
	}
	if cfg.News.MaxStories != 3 {
		t.Errorf("expected max_stories 3, got %d", cfg.News.MaxStories)
	}
	if cfg.News.MaxAgeHours != 12 {
		t.Errorf("expected max_age_hours 12, got %d", cfg.News.MaxAgeHours)
	}
	if cfg.Script.WordsPerMinute != 140 {
		t.Errorf("expected words_per_minute 140, got %d", cfg.Script.WordsPerMinute)
	}
	if cfg.Providers.FallbackEnabled {
		t.Error("expected fallback_enabled false")
	}
	// Untouched values keep defaults
	if cfg.Providers.MaxRetries != 3 {
		t.Errorf("expected default max_retries 3, got %d", cfg.Providers.MaxRetries)
	}
}

func TestLoadRejectsInvalidYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte("news: [not a map"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("expected error for invalid YAML, got nil")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero max_stories", func(c *Config) { c.News.MaxStories = 0 }},
		{"zero max_age_hours", func(c *Config) { c.News.MaxAgeHours = 0 }},
		{"zero words_per_minute", func(c *Config) { c.Script.WordsPerMinute = 0 }},
		{"inverted word bounds", func(c *Config) { c.Script.MinWordCount = 800; c.Script.MaxWordCount = 400 }},
		{"inverted durations", func(c *Config) { c.Script.MinDuration = 400; c.Script.MaxDuration = 200 }},
		{"zero max_retries", func(c *Config) { c.Providers.MaxRetries = 0 }},
		{"zero request_timeout", func(c *Config) { c.Providers.RequestTimeout = 0 }},
		{"unknown dedup backend", func(c *Config) { c.Dedup.Backend = "dynamo" }},
	}

	for _, tc := range cases {
		cfg := Default()
		tc.mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error, got nil", tc.name)
		}
	}

	if err := Default().Validate(); err != nil {
		t.Errorf("defaults should validate, got %v", err)
	}
}
