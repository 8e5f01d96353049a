package assets

import (
	"net/url"
	"regexp"
	"strconv"

	"adlibscraper/pkg/models"
)

// Video CDN URLs embed the encoding profile in the path, so the same
// logical video shows up under several distinct URLs. These patterns
// strip the rendition segments before building an identity key.
var (
	videoProfileSegment = regexp.MustCompile(`/mp4-\d+p-\d+fp-[^/]+/`)
	videoShortSegment   = regexp.MustCompile(`/mp4-\d+p/`)
	videoInlineMarker   = regexp.MustCompile(`-\d+p-`)
	resolutionMarker    = regexp.MustCompile(`(\d+)p`)
)

// Identity normalizes a raw asset URL to a stable key. URLs that differ
// only in query string, fragment, or (for videos) encoding profile map
// to the same identity. Unparsable URLs fail closed: the raw URL is its
// own identity so one bad asset never aborts the pipeline.
func Identity(rawURL string, kind models.AssetKind) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return rawURL
	}

	path := u.Path
	if kind == models.AssetKindVideo {
		path = videoProfileSegment.ReplaceAllString(path, "/")
		path = videoShortSegment.ReplaceAllString(path, "/")
		path = videoInlineMarker.ReplaceAllString(path, "-")
	}

	return u.Scheme + "://" + u.Host + path
}

// Resolution returns the numeric resolution marker embedded in the URL
// path, or 0 when none is present.
func Resolution(rawURL string) int {
	best := 0
	for _, m := range resolutionMarker.FindAllStringSubmatch(rawURL, -1) {
		if n, err := strconv.Atoi(m[1]); err == nil && n > best {
			best = n
		}
	}
	return best
}

// BestOf picks the URL with the largest embedded resolution marker.
// Ties and markerless URLs keep first-seen order. Empty input returns "".
func BestOf(urls []string) string {
	if len(urls) == 0 {
		return ""
	}

	best := urls[0]
	bestRes := Resolution(best)
	for _, u := range urls[1:] {
		if res := Resolution(u); res > bestRes {
			best = u
			bestRes = res
		}
	}
	return best
}

// GroupByIdentity buckets video URLs by identity, preserving first-seen
// order of both groups and members.
func GroupByIdentity(urls []string, kind models.AssetKind) ([]string, map[string][]string) {
	order := make([]string, 0, len(urls))
	groups := make(map[string][]string, len(urls))

	for _, u := range urls {
		id := Identity(u, kind)
		if _, ok := groups[id]; !ok {
			order = append(order, id)
		}
		groups[id] = append(groups[id], u)
	}

	return order, groups
}
