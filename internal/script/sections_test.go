package script

import (
	"strings"
	"testing"
)

const sampleScript = `[HOOK]
Big stories tonight on Newsreel

[HEADLINES]
First the markets then the storm then a win for science tonight

[MAIN_STORY_1]
Markets rallied after the announcement and closed at a record high

[OUTRO]
That is all from Newsreel tonight`

func TestParseSectionsWellFormed(t *testing.T) {
	sections, order, err := ParseSections(sampleScript)
	if err != nil {
		t.Fatalf("ParseSections failed: %v", err)
	}

	wantOrder := []string{"hook", "headlines", "main_story_1", "outro"}
	if len(order) != len(wantOrder) {
		t.Fatalf("expected %d sections, got %d: %v", len(wantOrder), len(order), order)
	}
	for i, name := range wantOrder {
		if order[i] != name {
			t.Errorf("position %d: expected %q, got %q", i, name, order[i])
		}
	}

	if got := sections["hook"]; got != "Big stories tonight on Newsreel" {
		t.Errorf("unexpected hook text %q", got)
	}
	if got := sections["outro"]; got != "That is all from Newsreel tonight" {
		t.Errorf("unexpected outro text %q", got)
	}
}

func TestParseSectionsIgnoresPreamble(t *testing.T) {
	doc := "Sure! Here is your script:\n\n" + sampleScript
	sections, _, err := ParseSections(doc)
	if err != nil {
		t.Fatalf("ParseSections failed: %v", err)
	}
	if strings.Contains(sections["hook"], "Sure!") {
		t.Errorf("preamble leaked into hook: %q", sections["hook"])
	}
}

func TestParseSectionsDuplicateMarkerFirstWins(t *testing.T) {
	doc := "[HOOK]\nfirst version\n[HOOK]\nsecond version\n[OUTRO]\nbye"
	sections, order, err := ParseSections(doc)
	if err != nil {
		t.Fatalf("ParseSections failed: %v", err)
	}
	if sections["hook"] != "first version" {
		t.Errorf("expected first occurrence to win, got %q", sections["hook"])
	}
	if len(order) != 2 {
		t.Errorf("expected 2 distinct sections, got %v", order)
	}
}

func TestParseSectionsNoMarkers(t *testing.T) {
	if _, _, err := ParseSections("just prose with no structure at all"); err == nil {
		t.Error("expected error for unmarked content")
	}
}

func TestStripReasoning(t *testing.T) {
	withBlock := "<think>planning the script here</think>\n[HOOK]\ntext"
	if got := StripReasoning(withBlock); strings.Contains(got, "planning") {
		t.Errorf("think block survived: %q", got)
	}

	unterminated := "[HOOK]\ntext\n<think>never closed"
	if got := StripReasoning(unterminated); strings.Contains(got, "never closed") {
		t.Errorf("unterminated think block survived: %q", got)
	}

	plain := "[HOOK]\ntext"
	if got := StripReasoning(plain); got != plain {
		t.Errorf("plain content altered: %q", got)
	}
}

func TestParseSectionsInsideReasoning(t *testing.T) {
	doc := "<think>I should write [HOOK] first</think>\n" + sampleScript
	sections, _, err := ParseSections(doc)
	if err != nil {
		t.Fatalf("ParseSections failed: %v", err)
	}
	if sections["hook"] != "Big stories tonight on Newsreel" {
		t.Errorf("unexpected hook after reasoning strip: %q", sections["hook"])
	}
}

func TestSectionNames(t *testing.T) {
	got := SectionNames(2)
	want := []string{"hook", "headlines", "main_story_1", "main_story_2", "outro"}
	if len(got) != len(want) {
		t.Fatalf("expected %d names, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("position %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}
