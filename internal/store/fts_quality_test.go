package store

import (
	"testing"
	"time"

	"github.com/mkowalski/newsreel/internal/script"
)

// Corpus of realistic generated scripts, one clear topic each. Tests
// assert that queries surface the topically relevant script and not the
// others.
func ftsScriptCorpus() []script.Record {
	base := time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC)
	mk := func(offset time.Duration, narration string, stories []string) script.Record {
		rec := testRecord(base.Add(offset), false)
		rec.Sections = []script.SectionText{
			{Name: "hook", Text: narration},
			{Name: "outro", Text: "That was Newsreel, see you tomorrow."},
		}
		rec.Stories = stories
		return rec
	}
	return []script.Record{
		mk(0,
			"The championship game went to overtime tonight, and the quarterback threw four touchdowns to seal the title.",
			[]string{"Quarterback seals championship in overtime"}),
		mk(time.Hour,
			"A new language model was released today with stronger reasoning, and developers are already testing its code generation.",
			[]string{"New language model tops reasoning benchmarks"}),
		mk(2*time.Hour,
			"The central bank held interest rates steady this afternoon, citing stubborn inflation in its statement.",
			[]string{"Central bank holds rates amid inflation worries"}),
		mk(3*time.Hour,
			"A late season storm is moving up the coast tonight, and forecasters warn of flooding through the weekend.",
			[]string{"Coastal storm brings flood warnings"}),
	}
}

func TestSearchScriptsRelevance(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	ids := make(map[string]int64)
	labels := []string{"sports", "ai", "finance", "weather"}
	for i, rec := range ftsScriptCorpus() {
		id, err := s.SaveScript(rec)
		if err != nil {
			t.Fatalf("SaveScript %d failed: %v", i, err)
		}
		ids[labels[i]] = id
	}

	tests := []struct {
		query string
		want  string
	}{
		{"touchdown", "sports"},
		{"quarterback championship", "sports"},
		{"language model", "ai"},
		{"reasoning", "ai"},
		{"interest rates", "finance"},
		{"inflation", "finance"},
		{"storm flooding", "weather"},
		{"forecasters", "weather"},
	}

	for _, tt := range tests {
		results, err := s.SearchScripts(tt.query, 10)
		if err != nil {
			t.Fatalf("SearchScripts(%q) failed: %v", tt.query, err)
		}
		if len(results) == 0 {
			t.Errorf("query %q returned nothing, want %s script", tt.query, tt.want)
			continue
		}
		if results[0].ID != ids[tt.want] {
			t.Errorf("query %q ranked script %d first, want %s script %d",
				tt.query, results[0].ID, tt.want, ids[tt.want])
		}
	}
}

func TestSearchScriptsStemming(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	for _, rec := range ftsScriptCorpus() {
		if _, err := s.SaveScript(rec); err != nil {
			t.Fatalf("SaveScript failed: %v", err)
		}
	}

	// Porter stemming: "flooded" should reach the script that says "flooding"
	results, err := s.SearchScripts("flooded", 10)
	if err != nil {
		t.Fatalf("SearchScripts failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected stemmed query to match 1 script, got %d", len(results))
	}
}

func TestSearchScriptsMatchesStoryTitles(t *testing.T) {
	s, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer s.Close()

	for _, rec := range ftsScriptCorpus() {
		if _, err := s.SaveScript(rec); err != nil {
			t.Fatalf("SaveScript failed: %v", err)
		}
	}

	// "benchmarks" appears only in a story title, not the narration
	results, err := s.SearchScripts("benchmarks", 10)
	if err != nil {
		t.Fatalf("SearchScripts failed: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected story title match, got %d results", len(results))
	}
}
