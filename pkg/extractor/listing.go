package extractor

import "regexp"

var (
	detailLinkPattern = regexp.MustCompile(`/ad-library/detail/(\d+)`)

	// The pagination fragment returns the continuation token in one of
	// several shapes depending on how deep the walk has gone.
	nextTokenPatterns = []*regexp.Regexp{
		regexp.MustCompile(`"paginationToken"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`data-pagination-token="([^"]+)"`),
		regexp.MustCompile(`paginationToken["']?\s*[:=]\s*["']([^"']+)`),
	}
)

// ListingAdIDs scans a listing page body for detail links and returns
// the ad identifiers in first-seen order, deduplicated within the page.
func ListingAdIDs(body string) []string {
	matches := detailLinkPattern.FindAllStringSubmatch(body, -1)

	ids := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	for _, m := range matches {
		id := m[1]
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids
}

// NextToken extracts the continuation token from a listing page body,
// trying each known shape in order. Returns "" when no token is present.
func NextToken(body string) string {
	for _, p := range nextTokenPatterns {
		if m := p.FindStringSubmatch(body); m != nil {
			return m[1]
		}
	}
	return ""
}

// AdIDFromURL extracts the ad identifier from a detail link or URL
func AdIDFromURL(link string) string {
	if m := detailLinkPattern.FindStringSubmatch(link); m != nil {
		return m[1]
	}
	return ""
}
