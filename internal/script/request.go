package script

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mkowalski/newsreel/internal/config"
	"github.com/mkowalski/newsreel/internal/llm"
	"github.com/mkowalski/newsreel/internal/news"
)

// ErrEmptySelection means there is nothing to narrate this cycle. Callers
// treat it as "no news", not as a failure.
var ErrEmptySelection = errors.New("empty story selection")

// Plan captures what the model was asked for. Validation and assembly both
// read it, so an accepted response always matches the request that produced
// it.
type Plan struct {
	Brand       string
	Sections    []string // fixed schema order
	MainStories int
	TargetWords int
	MinWords    int
	MaxWords    int
}

// Builder renders generation requests from a story selection. Building is
// deterministic: identical selection and config produce an identical
// request, with sampling temperature the only source of output variation.
type Builder struct {
	cfg config.Config
}

func NewBuilder(cfg config.Config) *Builder {
	return &Builder{cfg: cfg}
}

// TargetWords converts a spoken duration at a reading pace into a word
// budget, clamped to [minWords, maxWords].
func TargetWords(durationSec, wordsPerMinute, minWords, maxWords int) int {
	words := durationSec * wordsPerMinute / 60
	if words < minWords {
		words = minWords
	}
	if words > maxWords {
		words = maxWords
	}
	return words
}

// Build produces the provider request and its plan for one selection.
// All selected items appear in the headline sweep; only the first
// news_items_per_script get a main-story block.
func (b *Builder) Build(items []news.Item) (llm.Request, Plan, error) {
	if len(items) == 0 {
		return llm.Request{}, Plan{}, ErrEmptySelection
	}

	sc := b.cfg.Script
	mainCount := len(items)
	if sc.NewsItemsPerScript > 0 && mainCount > sc.NewsItemsPerScript {
		mainCount = sc.NewsItemsPerScript
	}

	plan := Plan{
		Brand:       sc.BrandName,
		Sections:    SectionNames(mainCount),
		MainStories: mainCount,
		TargetWords: TargetWords(sc.TargetDuration, sc.WordsPerMinute, sc.MinWordCount, sc.MaxWordCount),
		MinWords:    sc.MinWordCount,
		MaxWords:    sc.MaxWordCount,
	}

	req := llm.Request{
		SystemPrompt: b.systemPrompt(),
		UserPrompt:   b.userPrompt(items, plan),
		MaxTokens:    b.cfg.Providers.MaxTokens,
		Temperature:  b.cfg.Providers.Temperature,
		TopP:         b.cfg.Providers.TopP,
		TopK:         b.cfg.Providers.TopK,
	}
	return req, plan, nil
}

func (b *Builder) systemPrompt() string {
	sc := b.cfg.Script
	var sb strings.Builder

	fmt.Fprintf(&sb, "You write spoken news scripts for %s, a %s-language news program for listeners in %s.\n",
		sc.BrandName, b.cfg.Language, strings.ToUpper(b.cfg.Country))
	fmt.Fprintf(&sb, "Tone weights on a 0-1 scale: professionalism %.1f, engagement %.1f, humor %.1f. The higher weights lead the delivery.\n",
		sc.Professionalism, sc.Engagement, sc.Humor)
	sb.WriteString("The script is read aloud by a text-to-speech voice: plain sentences only, no markdown, no emoji, no stage directions. Spell out numbers and abbreviations a voice would stumble on.\n")
	fmt.Fprintf(&sb, "Mention %s by name at least twice, once near the start and once near the end.", sc.BrandName)

	return sb.String()
}

func (b *Builder) userPrompt(items []news.Item, plan Plan) string {
	sc := b.cfg.Script
	var sb strings.Builder

	fmt.Fprintf(&sb, "Write today's %s script, about %d words total. Hard bounds: %d to %d words.\n\n",
		sc.BrandName, plan.TargetWords, plan.MinWords, plan.MaxWords)

	sb.WriteString("Stories, newest first:\n")
	for i, item := range items {
		fmt.Fprintf(&sb, "%d. %s (%s)\n", i+1, item.Title, item.SourceName)
		if item.Summary != "" {
			fmt.Fprintf(&sb, "   %s\n", item.Summary)
		}
	}

	sb.WriteString("\nEmit exactly these sections, each opened by its marker alone on a line:\n")
	for _, name := range plan.Sections {
		fmt.Fprintf(&sb, "[%s]\n", strings.ToUpper(name))
	}

	fmt.Fprintf(&sb, "\n[HOOK] is a cold open of one or two sentences. [HEADLINES] sweeps all %d stories in a breath each. ", len(items))
	fmt.Fprintf(&sb, "Each [MAIN_STORY_n] covers story n in depth, in the order listed. [OUTRO] signs off.\n")
	fmt.Fprintf(&sb, "Work exactly %d engagement hooks and %d light jokes into the script.\n",
		sc.EngagementHooks, sc.JokesPerScript)

	return sb.String()
}

// ValidateResponse is the orchestrator's acceptance check: structure and
// brand presence first, then the word envelope. An out-of-bounds word count
// comes back as a soft BoundsError carrying the distance to target;
// everything else is a malformed response.
func (p Plan) ValidateResponse(resp llm.Response) error {
	sections, _, err := ParseSections(resp.Content)
	if err != nil {
		return fmt.Errorf("%w: %v", llm.ErrMalformedResponse, err)
	}

	for _, name := range p.Sections {
		if strings.TrimSpace(sections[name]) == "" {
			return fmt.Errorf("%w: missing section %s", llm.ErrMalformedResponse, name)
		}
	}

	if p.Brand != "" && p.brandMentions(sections) < 2 {
		return fmt.Errorf("%w: brand %q mentioned fewer than twice", llm.ErrMalformedResponse, p.Brand)
	}

	words := 0
	for _, name := range p.Sections {
		words += CountWords(CleanForNarration(sections[name]))
	}
	if words < p.MinWords || words > p.MaxWords {
		return &llm.BoundsError{Words: words, Min: p.MinWords, Max: p.MaxWords, Target: p.TargetWords}
	}

	return nil
}

func (p Plan) brandMentions(sections map[string]string) int {
	brand := strings.ToLower(p.Brand)
	count := 0
	for _, name := range p.Sections {
		count += strings.Count(strings.ToLower(sections[name]), brand)
	}
	return count
}
