// Package rss fetches news items from RSS/Atom feeds.
package rss

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/mkowalski/newsreel/internal/httpclient"
	"github.com/mkowalski/newsreel/internal/news"
)

const userAgent = "newsreel/1.0 (+https://github.com/mkowalski/newsreel)"

var whitespaceRe = regexp.MustCompile(`\s+`)

// Source fetches items from a single RSS/Atom feed
type Source struct {
	name     string
	url      string
	maxItems int
	parser   *gofeed.Parser
	client   *http.Client
}

// New creates a new RSS source. maxItems <= 0 means no cap.
func New(name, url string, maxItems int) *Source {
	return &Source{
		name:     name,
		url:      url,
		maxItems: maxItems,
		parser:   gofeed.NewParser(),
		client:   httpclient.Default(),
	}
}

func (s *Source) Name() string {
	return s.name
}

func (s *Source) Kind() news.SourceKind {
	return news.KindRSS
}

// Fetch retrieves and converts the feed. Entries missing a title or link are
// skipped; a single bad entry never fails the batch.
func (s *Source) Fetch(ctx context.Context) ([]news.Item, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	now := time.Now()
	items := make([]news.Item, 0, len(feed.Items))

	for _, entry := range feed.Items {
		if entry.Title == "" || entry.Link == "" {
			continue
		}
		items = append(items, convertEntry(entry, s.name, now))
		if s.maxItems > 0 && len(items) >= s.maxItems {
			break
		}
	}

	return items, nil
}

// convertEntry converts a gofeed.Item to a news.Item.
func convertEntry(entry *gofeed.Item, sourceName string, fetchTime time.Time) news.Item {
	// Published time left zero when the feed supplies none; the aggregator
	// falls back to the fetch time for freshness.
	var published time.Time
	if entry.PublishedParsed != nil {
		published = *entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = *entry.UpdatedParsed
	}

	author := ""
	if entry.Author != nil {
		author = entry.Author.Name
	}

	// Prefer Description, fall back to a Content snippet. Feed summaries are
	// routinely HTML; narration prompts need plain text.
	summary := entry.Description
	if summary == "" && entry.Content != "" {
		summary = entry.Content
	}
	summary = truncate(htmlToText(summary), 500)

	return news.Item{
		Kind:       news.KindRSS,
		SourceName: sourceName,
		Title:      strings.TrimSpace(entry.Title),
		Summary:    summary,
		URL:        entry.Link,
		Author:     author,
		Published:  published,
		Fetched:    fetchTime,
	}
}

// htmlToText strips markup from a feed summary, collapsing whitespace.
func htmlToText(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
	if err != nil {
		return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(doc.Text(), " "))
}

// truncate shortens a string to maxLen runes, adding "..." if truncated.
// Uses rune-aware slicing to avoid breaking UTF-8 characters.
func truncate(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
