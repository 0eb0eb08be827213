// Package reddit fetches news items from subreddit listings.
package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/mkowalski/newsreel/internal/httpclient"
	"github.com/mkowalski/newsreel/internal/news"
)

const userAgent = "newsreel/1.0 (+https://github.com/mkowalski/newsreel)"

const defaultBaseURL = "https://www.reddit.com"

// listing mirrors the subset of Reddit's listing JSON we consume.
type listing struct {
	Data struct {
		Children []struct {
			Data post `json:"data"`
		} `json:"children"`
	} `json:"data"`
}

type post struct {
	Title      string  `json:"title"`
	Selftext   string  `json:"selftext"`
	URL        string  `json:"url"`
	Permalink  string  `json:"permalink"`
	Author     string  `json:"author"`
	CreatedUTC float64 `json:"created_utc"`
	Stickied   bool    `json:"stickied"`
}

// Source fetches hot posts from a single subreddit
type Source struct {
	subreddit string
	limit     int
	baseURL   string
	client    *http.Client
}

// New creates a new subreddit source. limit <= 0 defaults to 25.
func New(subreddit string, limit int) *Source {
	if limit <= 0 {
		limit = 25
	}
	return &Source{
		subreddit: subreddit,
		limit:     limit,
		baseURL:   defaultBaseURL,
		client:    httpclient.Default(),
	}
}

func (s *Source) Name() string {
	return "r/" + s.subreddit
}

func (s *Source) Kind() news.SourceKind {
	return news.KindReddit
}

// Fetch retrieves the subreddit's hot listing. Stickied posts (mod
// announcements, megathreads) and entries without titles are skipped.
func (s *Source) Fetch(ctx context.Context) ([]news.Item, error) {
	url := fmt.Sprintf("%s/r/%s/hot.json?limit=%d&raw_json=1", s.baseURL, s.subreddit, s.limit)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	// Reddit throttles the default Go user agent aggressively
	req.Header.Set("User-Agent", userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch subreddit: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	var l listing
	if err := json.NewDecoder(resp.Body).Decode(&l); err != nil {
		return nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	now := time.Now()
	items := make([]news.Item, 0, len(l.Data.Children))

	for _, child := range l.Data.Children {
		p := child.Data
		if p.Title == "" || p.Stickied {
			continue
		}

		// Self posts link back to Reddit; external posts keep their URL
		url := p.URL
		if url == "" && p.Permalink != "" {
			url = s.baseURL + p.Permalink
		}
		if url == "" {
			continue
		}

		summary := truncate(p.Selftext, 500)

		items = append(items, news.Item{
			Kind:       news.KindReddit,
			SourceName: s.Name(),
			Title:      p.Title,
			Summary:    summary,
			URL:        url,
			Author:     p.Author,
			Published:  time.Unix(int64(p.CreatedUTC), 0),
			Fetched:    now,
		})
	}

	return items, nil
}

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
