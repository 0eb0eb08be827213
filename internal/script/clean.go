package script

import (
	"regexp"
	"strings"
)

// Narration text goes straight to a TTS voice; typographic markup gets read
// aloud as garbage.
var (
	boldRe         = regexp.MustCompile(`\*\*([^*]+)\*\*`)
	italicRe       = regexp.MustCompile(`\*([^*]+)\*`)
	underscoreRe   = regexp.MustCompile(`__([^_]+)__`)
	codeSpanRe     = regexp.MustCompile("`([^`]*)`")
	headingRe      = regexp.MustCompile(`(?m)^#{1,6}\s*`)
	bulletRe       = regexp.MustCompile(`(?m)^\s*[-*•]\s+`)
	stageCueRe     = regexp.MustCompile(`(?i)[(\[](?:pause|beat|laughs?|chuckles?|music[^)\]]*|sfx[^)\]]*)[)\]]`)
	multiSpaceRe   = regexp.MustCompile(`[ \t]{2,}`)
	multiNewlineRe = regexp.MustCompile(`\n{3,}`)
)

// CleanForNarration strips markdown artifacts and stage cues from model
// output, leaving plain speakable text.
func CleanForNarration(s string) string {
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = underscoreRe.ReplaceAllString(s, "$1")
	s = codeSpanRe.ReplaceAllString(s, "$1")
	s = headingRe.ReplaceAllString(s, "")
	s = bulletRe.ReplaceAllString(s, "")
	s = stageCueRe.ReplaceAllString(s, "")
	s = multiSpaceRe.ReplaceAllString(s, " ")
	s = multiNewlineRe.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}

// CountWords counts whitespace-separated words.
func CountWords(s string) int {
	return len(strings.Fields(s))
}
