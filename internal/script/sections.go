// Package script turns a story selection into a generation request and the
// model's answer into a finished narration script.
package script

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// The schema is fixed: a cold open, a headline sweep, one block per main
// story, and a sign-off. Markers are uppercase on their own line.
func SectionNames(mainStories int) []string {
	names := []string{"hook", "headlines"}
	for i := 1; i <= mainStories; i++ {
		names = append(names, fmt.Sprintf("main_story_%d", i))
	}
	return append(names, "outro")
}

var (
	sectionMarkerRe = regexp.MustCompile(`(?m)^\s*\[([A-Z][A-Z0-9_]*)\]\s*$`)
	thinkBlockRe    = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

// StripReasoning removes chain-of-thought blocks some models emit ahead of
// the actual answer. An unterminated block swallows everything after it.
func StripReasoning(s string) string {
	s = thinkBlockRe.ReplaceAllString(s, "")
	if idx := strings.Index(s, "<think>"); idx >= 0 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}

// ParseSections splits model output on [SECTION] marker lines. Names come
// back lowercased, with encounter order preserved. Text before the first
// marker is discarded; on a repeated marker the first occurrence wins.
func ParseSections(raw string) (map[string]string, []string, error) {
	raw = StripReasoning(raw)

	locs := sectionMarkerRe.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return nil, nil, errors.New("no section markers found")
	}

	sections := make(map[string]string, len(locs))
	var order []string
	for i, loc := range locs {
		name := strings.ToLower(raw[loc[2]:loc[3]])
		if _, seen := sections[name]; seen {
			continue
		}

		start := loc[1]
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}

		sections[name] = strings.TrimSpace(raw[start:end])
		order = append(order, name)
	}
	return sections, order, nil
}
