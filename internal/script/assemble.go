package script

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkowalski/newsreel/internal/config"
	"github.com/mkowalski/newsreel/internal/llm"
	"github.com/mkowalski/newsreel/internal/news"
)

// SectionText is one named block of the finished script.
type SectionText struct {
	Name string `json:"name"`
	Text string `json:"text"`
}

// Record is the finished script plus its generation metadata. Immutable
// once assembled; persistence is the caller's concern.
type Record struct {
	Brand        string
	Language     string
	Country      string
	Provider     string
	Model        string
	GeneratedAt  time.Time
	WordCount    int
	Degraded     bool
	AttemptCount int
	Sections     []SectionText
	Stories      []string // selected story titles, selection order
}

// Assemble is a pure transform from a successful generation to a Record:
// sections cleaned and ordered per the plan, word count computed, metadata
// stamped. No network or storage side effects.
func Assemble(res llm.Result, plan Plan, items []news.Item, cfg config.Config, now time.Time) (Record, error) {
	sections, _, err := ParseSections(res.Response.Content)
	if err != nil {
		return Record{}, fmt.Errorf("assemble: %w", err)
	}

	out := make([]SectionText, 0, len(plan.Sections))
	words := 0
	for _, name := range plan.Sections {
		text := CleanForNarration(sections[name])
		words += CountWords(text)
		out = append(out, SectionText{Name: name, Text: text})
	}

	titles := make([]string, len(items))
	for i, it := range items {
		titles[i] = it.Title
	}

	return Record{
		Brand:        cfg.Script.BrandName,
		Language:     cfg.Language,
		Country:      cfg.Country,
		Provider:     res.Provider,
		Model:        res.Response.Model,
		GeneratedAt:  now,
		WordCount:    words,
		Degraded:     res.Degraded,
		AttemptCount: res.AttemptCount(),
		Sections:     out,
		Stories:      titles,
	}, nil
}

// Text renders the sections in schema order as plain narration text.
func (r Record) Text() string {
	parts := make([]string, 0, len(r.Sections))
	for _, s := range r.Sections {
		parts = append(parts, s.Text)
	}
	return strings.Join(parts, "\n\n")
}

// DurationEstimate is the spoken length at the given reading pace.
func (r Record) DurationEstimate(wordsPerMinute int) time.Duration {
	if wordsPerMinute <= 0 {
		return 0
	}
	seconds := float64(r.WordCount) / float64(wordsPerMinute) * 60
	return time.Duration(seconds * float64(time.Second))
}
