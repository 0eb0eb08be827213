package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/mkowalski/newsreel/internal/aggregate"
	"github.com/mkowalski/newsreel/internal/script"
	"github.com/mkowalski/newsreel/internal/store"
)

// renderSelection prints one aggregation pass: the chosen stories plus the
// counters for everything that did not make it.
func renderSelection(sel aggregate.Selection) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("Selected %d stories", len(sel.Items))))
	b.WriteString("\n")
	b.WriteString(sourceStyle.Render(fmt.Sprintf(
		"fetched %d · blocked %d · stale %d · duplicates %d",
		sel.Fetched, sel.Blocked, sel.Stale, sel.Duplicates)))
	b.WriteString("\n\n")

	for i, item := range sel.Items {
		age := sel.CreatedAt.Sub(item.Timestamp()).Round(time.Minute)
		b.WriteString(fmt.Sprintf("%2d. %s\n", i+1, truncate(item.Title, 90)))
		b.WriteString("    " + sourceStyle.Render(fmt.Sprintf("%s · %s ago · %s",
			item.SourceName, age, truncate(item.URL, 70))))
		b.WriteString("\n")
	}
	return b.String()
}

// renderScript prints a finished script with section markers and provenance.
func renderScript(rec script.Record, wpm int) string {
	var b strings.Builder

	b.WriteString(headerStyle.Render(fmt.Sprintf("%s script", rec.Brand)))
	b.WriteString("\n")

	meta := fmt.Sprintf("%s · %s · %d words · ~%s · attempt %d",
		rec.Provider, rec.Model, rec.WordCount,
		rec.DurationEstimate(wpm).Round(time.Second), rec.AttemptCount)
	b.WriteString(sourceStyle.Render(meta))
	b.WriteString("\n")
	if rec.Degraded {
		b.WriteString(degradedStyle.Render("degraded: outside word bounds, closest candidate kept"))
		b.WriteString("\n")
	}
	b.WriteString("\n")

	for _, sec := range rec.Sections {
		b.WriteString(sectionStyle.Render(strings.ToUpper(sec.Name)))
		b.WriteString("\n")
		b.WriteString(sec.Text)
		b.WriteString("\n\n")
	}
	return b.String()
}

// renderScriptRow prints one search or history row.
func renderScriptRow(s store.StoredScript) string {
	stories := ""
	if len(s.Stories) > 0 {
		stories = truncate(strings.Join(s.Stories, "; "), 80)
	}
	return fmt.Sprintf("%4d  %s  %-9s %4d words  %s",
		s.ID,
		s.GeneratedAt.Format("2006-01-02 15:04"),
		s.Provider,
		s.WordCount,
		sourceStyle.Render(stories))
}
