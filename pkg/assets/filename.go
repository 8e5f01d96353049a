package assets

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"adlibscraper/pkg/models"
)

const maxTailLength = 50

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// CDN path parts that carry no naming information
var genericPathParts = map[string]bool{
	"dms":      true,
	"image":    true,
	"v2":       true,
	"playlist": true,
	"vid":      true,
}

// Filename builds a deterministic local name for an asset:
// <adID>_<sanitizedTail>_<index><ext>. When the URL path yields no
// usable tail, a short hash of the URL stands in for it.
func Filename(adID string, kind models.AssetKind, rawURL string, index int, contentType string) string {
	tail := sanitizedTail(rawURL)
	if tail == "" {
		tail = fmt.Sprintf("%s_%s", kind, urlHash(rawURL))
	}
	return fmt.Sprintf("%s_%s_%d%s", adID, tail, index, Extension(rawURL, contentType))
}

// sanitizedTail extracts the last meaningful path segment of the URL
func sanitizedTail(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}

	parts := strings.Split(strings.Trim(u.Path, "/"), "/")
	for i := len(parts) - 1; i >= 0; i-- {
		part := parts[i]
		if part == "" || genericPathParts[strings.ToLower(part)] {
			continue
		}
		// Drop a file extension before sanitizing
		if dot := strings.LastIndex(part, "."); dot > 0 {
			part = part[:dot]
		}
		tail := unsafeChars.ReplaceAllString(part, "_")
		tail = strings.Trim(tail, "_")
		if tail == "" {
			continue
		}
		if len(tail) > maxTailLength {
			tail = tail[:maxTailLength]
		}
		return tail
	}
	return ""
}

// urlHash returns a short stable hash of the URL for fallback names
func urlHash(rawURL string) string {
	sum := md5.Sum([]byte(rawURL))
	return hex.EncodeToString(sum[:])[:8]
}

// Extension picks a file extension from the URL path, then the response
// content type, then URL keywords, defaulting to .bin.
func Extension(rawURL, contentType string) string {
	lower := strings.ToLower(rawURL)
	if u, err := url.Parse(rawURL); err == nil {
		lowerPath := strings.ToLower(u.Path)
		for _, ext := range []string{".jpg", ".jpeg", ".png", ".gif", ".webp", ".mp4", ".webm", ".mov"} {
			if strings.HasSuffix(lowerPath, ext) {
				return ext
			}
		}
	}

	switch {
	case strings.Contains(contentType, "image/jpeg"):
		return ".jpg"
	case strings.Contains(contentType, "image/png"):
		return ".png"
	case strings.Contains(contentType, "image/gif"):
		return ".gif"
	case strings.Contains(contentType, "image/webp"):
		return ".webp"
	case strings.Contains(contentType, "video/mp4"):
		return ".mp4"
	case strings.Contains(contentType, "video/webm"):
		return ".webm"
	case strings.Contains(contentType, "video/quicktime"):
		return ".mov"
	}

	switch {
	case strings.Contains(lower, "mp4"), strings.Contains(lower, "video"):
		return ".mp4"
	case strings.Contains(lower, "jpg"), strings.Contains(lower, "jpeg"), strings.Contains(lower, "image"):
		return ".jpg"
	case strings.Contains(lower, "png"):
		return ".png"
	}

	return ".bin"
}
