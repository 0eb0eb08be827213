package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/mkowalski/newsreel/internal/llm"
	"github.com/mkowalski/newsreel/internal/news"
	"github.com/mkowalski/newsreel/internal/script"
)

// selectionArtifact is the handoff between 'reel fetch' and 'reel script'.
type selectionArtifact struct {
	CreatedAt  time.Time   `json:"created_at"`
	Fetched    int         `json:"fetched"`
	Duplicates int         `json:"duplicates"`
	Items      []news.Item `json:"items"`
}

func saveSelection(path string, art selectionArtifact) error {
	data, err := json.MarshalIndent(art, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func loadSelection(path string) (selectionArtifact, error) {
	var art selectionArtifact
	data, err := os.ReadFile(path)
	if err != nil {
		return art, err
	}
	if err := json.Unmarshal(data, &art); err != nil {
		return art, fmt.Errorf("parse %s: %w", path, err)
	}
	return art, nil
}

// writeScriptJSON drops the finished script as a JSON artifact next to the
// database, one file per script. Returns the written path.
func writeScriptJSON(dir string, id int64, rec script.Record) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	name := fmt.Sprintf("script_%s_%d.json", rec.GeneratedAt.UTC().Format("20060102_150405"), id)
	path := filepath.Join(dir, name)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}

// attemptDump is the serializable form of one generation attempt.
type attemptDump struct {
	Provider string `json:"provider"`
	Number   int    `json:"number"`
	Duration string `json:"duration"`
	Error    string `json:"error,omitempty"`
	Soft     bool   `json:"soft,omitempty"`
	Raw      string `json:"raw,omitempty"`
}

// writeDebugAttempts saves the per-attempt record of one generation,
// including raw provider responses when debug mode kept them. Best-effort.
func writeDebugAttempts(dir string, attempts []llm.Attempt) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	dumps := make([]attemptDump, len(attempts))
	for i, a := range attempts {
		d := attemptDump{
			Provider: a.Provider,
			Number:   a.Number,
			Duration: a.Duration.Round(time.Millisecond).String(),
			Soft:     a.Soft,
			Raw:      a.Raw,
		}
		if a.Err != nil {
			d.Error = a.Err.Error()
		}
		dumps[i] = d
	}

	path := filepath.Join(dir, fmt.Sprintf("attempts_%s.json", time.Now().UTC().Format("20060102_150405")))
	data, err := json.MarshalIndent(dumps, "", "  ")
	if err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
