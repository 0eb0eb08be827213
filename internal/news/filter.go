package news

import (
	"regexp"
	"strings"
)

// Filter drops items that should never reach narration: sponsored posts,
// shopping/deals placements, and items with unusable titles.
type Filter struct {
	// URL patterns to block
	BlockURLPatterns []*regexp.Regexp

	// Title patterns to block
	BlockTitlePatterns []*regexp.Regexp

	// Keywords in title/summary that indicate ads
	BlockKeywords []string
}

// DefaultFilter returns a filter configured to block common ad patterns
func DefaultFilter() *Filter {
	f := &Filter{
		BlockKeywords: []string{
			"sponsored",
			"advertisement",
			"paid content",
			"paid post",
			"partner content",
			"branded content",
			"promoted",
			"presented by",
			"brought to you by",
			"[ad]",
			"[sponsored]",
		},
	}

	f.BlockURLPatterns = compilePatterns([]string{
		`/sponsored/`,
		`/native/`,
		`/branded-content/`,
		`/partner/`,
		`/advertisement/`,
		`/paid-post/`,
		`/deals/`,
		`/shopping/`,
		`/coupons/`,
		`utm_source=paid`,
	})

	f.BlockTitlePatterns = compilePatterns([]string{
		`(?i)^sponsored:`,
		`(?i)^ad:`,
		`(?i)\[sponsored\]`,
		`(?i)\[ad\]`,
		`(?i)paid post:`,
		`(?i)partner content:`,
		`(?i)^promo:`,
	})

	return f
}

func compilePatterns(patterns []string) []*regexp.Regexp {
	result := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		if re, err := regexp.Compile(p); err == nil {
			result = append(result, re)
		}
	}
	return result
}

// ShouldBlock returns true if the item should be filtered out
func (f *Filter) ShouldBlock(item Item) bool {
	// Items without a title or URL cannot be fingerprinted or narrated
	if strings.TrimSpace(item.Title) == "" || strings.TrimSpace(item.URL) == "" {
		return true
	}

	for _, re := range f.BlockURLPatterns {
		if re.MatchString(item.URL) {
			return true
		}
	}

	for _, re := range f.BlockTitlePatterns {
		if re.MatchString(item.Title) {
			return true
		}
	}

	titleLower := strings.ToLower(item.Title)
	summaryLower := strings.ToLower(item.Summary)
	for _, kw := range f.BlockKeywords {
		if strings.Contains(titleLower, kw) || strings.Contains(summaryLower, kw) {
			return true
		}
	}

	return false
}

// FilterItems returns items with blocked content removed
func (f *Filter) FilterItems(items []Item) []Item {
	result := make([]Item, 0, len(items))
	for _, item := range items {
		if !f.ShouldBlock(item) {
			result = append(result, item)
		}
	}
	return result
}
