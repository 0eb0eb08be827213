package script

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mkowalski/newsreel/internal/config"
	"github.com/mkowalski/newsreel/internal/llm"
	"github.com/mkowalski/newsreel/internal/news"
)

func TestTargetWordsClamping(t *testing.T) {
	tests := []struct {
		name     string
		duration int
		wpm      int
		min      int
		max      int
		expected int
	}{
		{"nominal", 240, 150, 450, 750, 600},
		{"short duration clamps up", 60, 150, 450, 750, 450},
		{"huge duration clamps down", 100000, 150, 450, 750, 750},
		{"zero duration clamps up", 0, 150, 450, 750, 450},
		{"tiny pace clamps up", 240, 1, 450, 750, 450},
		{"extreme pace clamps down", 240, 100000, 450, 750, 750},
		{"exact lower bound", 180, 150, 450, 750, 450},
	}

	for _, tt := range tests {
		if got := TargetWords(tt.duration, tt.wpm, tt.min, tt.max); got != tt.expected {
			t.Errorf("%s: TargetWords = %d, want %d", tt.name, got, tt.expected)
		}
	}
}

func selectionOf(n int) []news.Item {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	items := make([]news.Item, n)
	titles := []string{
		"Markets rally on rate decision",
		"Storm system heads for the coast",
		"Probe returns asteroid samples",
		"Parliament passes budget",
		"Striking dock workers reach deal",
	}
	for i := 0; i < n; i++ {
		items[i] = news.Item{
			Kind:       news.KindRSS,
			SourceName: "Wire",
			Title:      titles[i%len(titles)],
			Summary:    "Summary of the story.",
			URL:        "https://example.com/" + titles[i%len(titles)][:6],
			Published:  now.Add(-time.Duration(i) * time.Hour),
		}
	}
	return items
}

func TestBuildRequest(t *testing.T) {
	cfg := config.Default()
	b := NewBuilder(cfg)

	req, plan, err := b.Build(selectionOf(5))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}

	// Five stories but only news_items_per_script main blocks
	if plan.MainStories != cfg.Script.NewsItemsPerScript {
		t.Errorf("expected %d main stories, got %d", cfg.Script.NewsItemsPerScript, plan.MainStories)
	}
	wantSections := []string{"hook", "headlines", "main_story_1", "main_story_2", "main_story_3", "outro"}
	if len(plan.Sections) != len(wantSections) {
		t.Fatalf("expected %d sections, got %v", len(wantSections), plan.Sections)
	}
	for i, name := range wantSections {
		if plan.Sections[i] != name {
			t.Errorf("section %d: expected %q, got %q", i, name, plan.Sections[i])
		}
	}

	if plan.TargetWords != 600 {
		t.Errorf("expected target of 600 words, got %d", plan.TargetWords)
	}

	if !strings.Contains(req.UserPrompt, "[MAIN_STORY_3]") {
		t.Error("prompt missing main story marker")
	}
	if strings.Contains(req.UserPrompt, "[MAIN_STORY_4]") {
		t.Error("prompt has more main stories than allowed")
	}
	// Every selected story appears in the briefing, main block or not
	if !strings.Contains(req.UserPrompt, "Striking dock workers reach deal") {
		t.Error("fifth story missing from prompt")
	}
	if !strings.Contains(req.UserPrompt, "3 engagement hooks") {
		t.Error("engagement hook count missing from prompt")
	}
	if !strings.Contains(req.UserPrompt, "2 light jokes") {
		t.Error("joke count missing from prompt")
	}
	if !strings.Contains(req.UserPrompt, "450 to 750 words") {
		t.Error("word bounds missing from prompt")
	}

	if !strings.Contains(req.SystemPrompt, "Newsreel") {
		t.Error("brand missing from system prompt")
	}
	if !strings.Contains(req.SystemPrompt, "professionalism 0.7") {
		t.Error("tone weights missing from system prompt")
	}

	if req.Temperature != cfg.Providers.Temperature {
		t.Errorf("temperature not propagated: %v", req.Temperature)
	}
	if req.TopP != cfg.Providers.TopP || req.TopK != cfg.Providers.TopK {
		t.Error("sampling params not propagated")
	}
	if req.MaxTokens != cfg.Providers.MaxTokens {
		t.Errorf("max tokens not propagated: %d", req.MaxTokens)
	}
}

func TestBuildRequestDeterministic(t *testing.T) {
	b := NewBuilder(config.Default())
	items := selectionOf(3)

	first, _, err := b.Build(items)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	second, _, err := b.Build(items)
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if first.UserPrompt != second.UserPrompt || first.SystemPrompt != second.SystemPrompt {
		t.Error("identical inputs produced different prompts")
	}
}

func TestBuildRequestFewerItemsThanCap(t *testing.T) {
	b := NewBuilder(config.Default())
	_, plan, err := b.Build(selectionOf(2))
	if err != nil {
		t.Fatalf("Build failed: %v", err)
	}
	if plan.MainStories != 2 {
		t.Errorf("expected 2 main stories, got %d", plan.MainStories)
	}
}

func TestBuildRequestEmptySelection(t *testing.T) {
	b := NewBuilder(config.Default())
	if _, _, err := b.Build(nil); !errors.Is(err, ErrEmptySelection) {
		t.Errorf("expected ErrEmptySelection, got %v", err)
	}
}

func testPlan() Plan {
	return Plan{
		Brand:       "Newsreel",
		Sections:    SectionNames(1),
		MainStories: 1,
		TargetWords: 30,
		MinWords:    20,
		MaxWords:    40,
	}
}

func TestValidateResponseAccepts(t *testing.T) {
	if err := testPlan().ValidateResponse(llm.Response{Content: sampleScript}); err != nil {
		t.Errorf("expected valid response, got %v", err)
	}
}

func TestValidateResponseTooShort(t *testing.T) {
	plan := testPlan()
	plan.MinWords = 50
	plan.MaxWords = 80
	plan.TargetWords = 60

	err := plan.ValidateResponse(llm.Response{Content: sampleScript})
	if !errors.Is(err, llm.ErrContentOutOfBounds) {
		t.Fatalf("expected soft bounds error, got %v", err)
	}

	var be *llm.BoundsError
	if !errors.As(err, &be) {
		t.Fatalf("expected BoundsError, got %T", err)
	}
	if be.Words != 34 {
		t.Errorf("expected 34 counted words, got %d", be.Words)
	}
	if be.Distance() != 26 {
		t.Errorf("expected distance 26, got %d", be.Distance())
	}
}

func TestValidateResponseTooLong(t *testing.T) {
	plan := testPlan()
	plan.MinWords = 10
	plan.MaxWords = 30
	plan.TargetWords = 20

	if err := plan.ValidateResponse(llm.Response{Content: sampleScript}); !errors.Is(err, llm.ErrContentOutOfBounds) {
		t.Errorf("expected soft bounds error, got %v", err)
	}
}

func TestValidateResponseMissingSection(t *testing.T) {
	doc := "[HOOK]\nBig stories tonight on Newsreel\n[HEADLINES]\nAll the news from Newsreel today"
	err := testPlan().ValidateResponse(llm.Response{Content: doc})
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Errorf("expected malformed response, got %v", err)
	}
}

func TestValidateResponseBrandTooRare(t *testing.T) {
	doc := strings.Replace(sampleScript, "That is all from Newsreel tonight", "That is all for tonight folks", 1)
	err := testPlan().ValidateResponse(llm.Response{Content: doc})
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Errorf("expected malformed response for single brand mention, got %v", err)
	}
}

func TestValidateResponseUnstructured(t *testing.T) {
	err := testPlan().ValidateResponse(llm.Response{Content: "a wall of text with no markers"})
	if !errors.Is(err, llm.ErrMalformedResponse) {
		t.Errorf("expected malformed response, got %v", err)
	}
}

func TestValidateResponseStripsReasoning(t *testing.T) {
	doc := "<think>let me draft this</think>\n" + sampleScript
	if err := testPlan().ValidateResponse(llm.Response{Content: doc}); err != nil {
		t.Errorf("expected valid response after reasoning strip, got %v", err)
	}
}
