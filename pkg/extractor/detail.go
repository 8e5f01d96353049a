package extractor

import (
	"encoding/json"
	"html"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"adlibscraper/pkg/assets"
	"adlibscraper/pkg/models"
)

const maxCallToActions = 3

var (
	advertiserSelectors = []string{
		"h1",
		"h2",
		`a[href*="/company/"]`,
		`[data-test-id="advertiser-name"]`,
		".advertiser-name",
		`span[class*="advertiser"]`,
	}

	contentSelectors = []string{
		".commentary__content",
		"p.commentary__content",
		".ad-content",
		".ad-text",
		`[class*="commentary"]`,
		`[class*="content"]`,
		"p",
	}

	ctaSelectors = []string{
		`button[data-tracking-control-name*="cta"]`,
		`a[class*="cta"]`,
		"button",
		`a[class*="button"]`,
	}

	logoSelectors = []string{
		`img[alt*="logo" i]`,
		`img[alt*="advertiser" i]`,
		`a[href*="company"] img`,
		".advertiser-logo img",
		`img[data-delayed-url*="logo" i]`,
		`img[src*="logo" i]`,
	}

	adTypePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(Video Ad|Image Ad|Carousel Ad|Single Image Ad|Sponsored Content)`),
		regexp.MustCompile(`(?i)Ad Type[:\s]+(\w+)`),
	}

	paidForByPattern = regexp.MustCompile(`(?i)Paid for by[:\s]+(.+?)(?:\n|$)`)
)

// Labels that look like call to action text but are page chrome
var ctaSkipText = map[string]bool{
	"see more":     true,
	"…see more":    true,
	"view details": true,
	"sign in":      true,
}

// ExtractDetail parses a detail page body into an AdRecord. Every field
// runs an ordered cascade of strategies and is simply left empty when
// all of them miss; a missing field never fails the record.
func ExtractDetail(adID, detailURL, body string) (models.AdRecord, error) {
	record := models.AdRecord{
		ID:        adID,
		DetailURL: detailURL,
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		record.Error = "unparsable page body"
		return record, err
	}

	pageText := doc.Text()

	record.Advertiser = extractAdvertiser(doc)
	record.Text = JoinTexts(CleanTexts(collectTextCandidates(doc)))
	record.CallToActions = extractCallToActions(doc)
	record.PaidForBy = extractPaidForBy(pageText)

	record.Assets.LogoURL = extractLogo(doc)
	record.Assets.ImageURLs = extractImages(doc)
	record.Assets.VideoURLs = extractVideos(doc)
	record.Assets.PosterURLs = extractPosters(doc)

	record.AdType = extractAdType(pageText, record.Assets)

	return record, nil
}

func extractAdvertiser(doc *goquery.Document) string {
	for _, selector := range advertiserSelectors {
		text := strings.TrimSpace(doc.Find(selector).First().Text())
		if text == "" || len(text) >= 100 {
			continue
		}
		lower := strings.ToLower(text)
		if lower == "ad details" || lower == "ad detail" {
			continue
		}
		return text
	}
	return ""
}

func collectTextCandidates(doc *goquery.Document) []string {
	var candidates []string
	for _, selector := range contentSelectors {
		doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= 10 {
				return false
			}
			if text := strings.TrimSpace(s.Text()); text != "" {
				candidates = append(candidates, text)
			}
			return true
		})
	}
	return candidates
}

func extractCallToActions(doc *goquery.Document) []models.CallToAction {
	var ctas []models.CallToAction
	seen := make(map[string]bool)
	for _, selector := range ctaSelectors {
		doc.Find(selector).EachWithBreak(func(i int, s *goquery.Selection) bool {
			if i >= 5 || len(ctas) >= maxCallToActions {
				return false
			}
			text := strings.TrimSpace(s.Text())
			if text == "" || len(text) >= 100 || ctaSkipText[strings.ToLower(text)] || seen[text] {
				return true
			}
			seen[text] = true
			href, _ := s.Attr("href")
			ctas = append(ctas, models.CallToAction{Text: text, URL: href})
			return true
		})
		if len(ctas) >= maxCallToActions {
			break
		}
	}
	return ctas
}

func extractPaidForBy(pageText string) string {
	if m := paidForByPattern.FindStringSubmatch(pageText); m != nil {
		return strings.TrimSpace(m[1])
	}
	return ""
}

func extractAdType(pageText string, assets models.AssetBundle) string {
	for _, p := range adTypePatterns {
		if m := p.FindStringSubmatch(pageText); m != nil {
			return m[1]
		}
	}

	// No explicit marker, infer from asset shape
	switch {
	case len(assets.VideoURLs) > 0:
		return "Video Ad"
	case len(assets.ImageURLs) > 1:
		return "Carousel Ad"
	case len(assets.ImageURLs) == 1:
		return "Image Ad"
	}
	return ""
}

func extractLogo(doc *goquery.Document) string {
	for _, selector := range logoSelectors {
		if src := imageSource(doc.Find(selector).First()); src != "" {
			return src
		}
	}

	// Fallback: any image inside an advertiser company link
	var logo string
	doc.Find(`a[href*="/company/"] img`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		logo = imageSource(s)
		return logo == ""
	})
	return logo
}

func extractImages(doc *goquery.Document) []string {
	var urls []string
	seen := make(map[string]bool)

	doc.Find("img").Each(func(_ int, s *goquery.Selection) {
		src := imageSource(s)
		if src == "" || strings.Contains(strings.ToLower(src), "logo") {
			return
		}
		// Signed URL variants of one image collapse to one entry
		id := assets.Identity(src, models.AssetKindImage)
		if seen[id] {
			return
		}
		seen[id] = true
		urls = append(urls, src)
	})
	return urls
}

func extractVideos(doc *goquery.Document) []string {
	var urls []string
	seen := make(map[string]bool)
	add := func(src string) {
		if src != "" && strings.HasPrefix(src, "http") && !seen[src] {
			seen[src] = true
			urls = append(urls, src)
		}
	}

	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		if src, ok := s.Attr("src"); ok {
			add(html.UnescapeString(src))
		} else if src, ok := s.Attr("data-src"); ok {
			add(html.UnescapeString(src))
		}
	})

	// Player markup carries all renditions in a JSON data attribute
	doc.Find("[data-sources]").Each(func(_ int, s *goquery.Selection) {
		raw, _ := s.Attr("data-sources")
		for _, src := range decodeDataSources(raw) {
			add(src)
		}
	})

	return urls
}

func extractPosters(doc *goquery.Document) []string {
	var urls []string
	seen := make(map[string]bool)

	doc.Find("video").Each(func(_ int, s *goquery.Selection) {
		poster, ok := s.Attr("data-poster-url")
		if !ok {
			poster, _ = s.Attr("poster")
		}
		poster = html.UnescapeString(poster)
		if poster == "" || !strings.HasPrefix(poster, "http") {
			return
		}
		id := assets.Identity(poster, models.AssetKindPoster)
		if seen[id] {
			return
		}
		seen[id] = true
		urls = append(urls, poster)
	})
	return urls
}

// imageSource reads an image URL from the attribute cascade used by the
// ad library markup (eager, lazy, and delayed variants)
func imageSource(s *goquery.Selection) string {
	for _, attr := range []string{"src", "data-src", "data-delayed-url"} {
		if src, ok := s.Attr(attr); ok {
			src = html.UnescapeString(src)
			if strings.HasPrefix(src, "http") {
				return src
			}
		}
	}
	return ""
}

// decodeDataSources parses the rendition list out of a data-sources
// attribute value. Malformed payloads yield nothing.
func decodeDataSources(raw string) []string {
	decoded := html.UnescapeString(raw)

	var sources []struct {
		Src string `json:"src"`
	}
	if err := json.Unmarshal([]byte(decoded), &sources); err != nil {
		return nil
	}

	var urls []string
	for _, s := range sources {
		if s.Src != "" {
			urls = append(urls, s.Src)
		}
	}
	return urls
}
