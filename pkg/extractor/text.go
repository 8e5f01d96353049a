package extractor

import "strings"

const (
	minTextLength = 10
	maxTextLength = 2000
	maxTextBlocks = 5
)

// Legal and navigation phrases that show up on every page
var boilerplatePhrases = []string{
	"cookie",
	"privacy",
	"policy",
	"about",
	"linkedin corporation",
	"please note",
	"terms of service",
	"ad details",
	"view details",
	"see more",
	"…see more",
	"sign in",
	"sign up",
	"join now",
}

// isBoilerplate reports whether a text block matches the denylist
func isBoilerplate(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range boilerplatePhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

// CleanTexts filters candidate text blocks: drops boilerplate, blocks
// outside the length window, exact repeats, and near-duplicates where
// one kept block contains or is contained by another. At most
// maxTextBlocks survive, in first-seen order.
func CleanTexts(candidates []string) []string {
	seen := make(map[string]bool, len(candidates))
	filtered := make([]string, 0, len(candidates))

	for _, text := range candidates {
		if len(text) <= minTextLength || len(text) >= maxTextLength {
			continue
		}
		if seen[text] || isBoilerplate(text) {
			continue
		}
		seen[text] = true
		filtered = append(filtered, text)
	}

	unique := make([]string, 0, len(filtered))
	for _, text := range filtered {
		duplicate := false
		for _, kept := range unique {
			if strings.Contains(kept, text) || strings.Contains(text, kept) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			unique = append(unique, text)
		}
	}

	if len(unique) > maxTextBlocks {
		unique = unique[:maxTextBlocks]
	}
	return unique
}

// JoinTexts renders cleaned text blocks as paragraphs
func JoinTexts(blocks []string) string {
	return strings.Join(blocks, "\n\n")
}
