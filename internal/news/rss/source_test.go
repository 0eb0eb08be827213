package rss

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mkowalski/newsreel/internal/news"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>Example Feed</title>
<item>
  <title>First headline</title>
  <link>https://example.com/first</link>
  <description><![CDATA[<p>Rich <b>HTML</b>   summary</p>]]></description>
  <author>alice@example.com (Alice)</author>
  <pubDate>Mon, 02 Jun 2025 10:00:00 GMT</pubDate>
</item>
<item>
  <title></title>
  <link>https://example.com/untitled</link>
</item>
<item>
  <title>Second headline</title>
  <link>https://example.com/second</link>
</item>
</channel>
</rss>`

func TestFetchParsesFeed(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	src := New("Example", server.URL, 0)
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	// The untitled entry is skipped, not fatal
	if len(items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(items))
	}

	first := items[0]
	if first.Title != "First headline" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.URL != "https://example.com/first" {
		t.Errorf("unexpected url %q", first.URL)
	}
	if first.Kind != news.KindRSS || first.SourceName != "Example" {
		t.Errorf("provenance lost: %s / %s", first.Kind, first.SourceName)
	}
	if first.Summary != "Rich HTML summary" {
		t.Errorf("HTML not stripped from summary: %q", first.Summary)
	}
	if first.Published.IsZero() {
		t.Error("expected parsed pubDate")
	}

	// No pubDate: Published stays zero so Timestamp falls back to Fetched
	second := items[1]
	if !second.Published.IsZero() {
		t.Errorf("expected zero published, got %v", second.Published)
	}
	if second.Fetched.IsZero() {
		t.Error("expected fetch time set")
	}
	if !second.Timestamp().Equal(second.Fetched) {
		t.Error("Timestamp should fall back to fetch time")
	}

	if !strings.HasPrefix(gotUA, "newsreel/") {
		t.Errorf("expected newsreel user agent, got %q", gotUA)
	}
}

func TestFetchCapsItems(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(sampleFeed))
	}))
	defer server.Close()

	src := New("Example", server.URL, 1)
	items, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("expected cap of 1, got %d items", len(items))
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	src := New("Example", server.URL, 0)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected error on HTTP 500")
	}
}

func TestFetchMalformedFeed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("this is not a feed"))
	}))
	defer server.Close()

	src := New("Example", server.URL, 0)
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestHTMLToText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"<p>Plain <b>bold</b></p>", "Plain bold"},
		{"no markup at all", "no markup at all"},
		{"  spaced\n\nout  ", "spaced out"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := htmlToText(tt.in); got != tt.want {
			t.Errorf("htmlToText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
