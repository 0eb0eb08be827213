package script

import "testing"

func TestCleanForNarration(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"bold", "tonight's **big** story", "tonight's big story"},
		{"italic and underscore", "*quietly* and __firmly__", "quietly and firmly"},
		{"inline code", "type `reel run` to start", "type reel run to start"},
		{"heading", "## The Hook\nGood evening", "The Hook\nGood evening"},
		{"bullets", "- first point\n- second point", "first point\nsecond point"},
		{"stage cues", "And then (pause) it happened (laughs) live", "And then it happened live"},
		{"bracket cues", "Welcome back [music fades] everyone", "Welcome back everyone"},
		{"double spaces", "too  many   spaces", "too many spaces"},
		{"blank line runs", "first\n\n\n\nsecond", "first\n\nsecond"},
		{"surrounding whitespace", "  trimmed  ", "trimmed"},
		{"already clean", "Nothing to fix here.", "Nothing to fix here."},
	}

	for _, tt := range tests {
		if got := CleanForNarration(tt.input); got != tt.expected {
			t.Errorf("%s: CleanForNarration(%q) = %q, want %q", tt.name, tt.input, got, tt.expected)
		}
	}
}

func TestCountWords(t *testing.T) {
	tests := []struct {
		input    string
		expected int
	}{
		{"", 0},
		{"   ", 0},
		{"one", 1},
		{"one two three", 3},
		{"spread\nacross\nlines", 3},
	}

	for _, tt := range tests {
		if got := CountWords(tt.input); got != tt.expected {
			t.Errorf("CountWords(%q) = %d, want %d", tt.input, got, tt.expected)
		}
	}
}
