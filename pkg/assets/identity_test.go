package assets

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"adlibscraper/pkg/models"
)

func TestIdentity(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		kind     models.AssetKind
		expected string
	}{
		{
			name:     "query string ignored",
			rawURL:   "https://cdn.example.com/image/abc123.jpg?e=1234&v=beta",
			kind:     models.AssetKindImage,
			expected: "https://cdn.example.com/image/abc123.jpg",
		},
		{
			name:     "fragment ignored",
			rawURL:   "https://cdn.example.com/image/abc123.jpg#section",
			kind:     models.AssetKindImage,
			expected: "https://cdn.example.com/image/abc123.jpg",
		},
		{
			name:     "video full profile segment stripped",
			rawURL:   "https://cdn.example.com/vid/mp4-720p-30fp-crf28/abc123.mp4",
			kind:     models.AssetKindVideo,
			expected: "https://cdn.example.com/vid/abc123.mp4",
		},
		{
			name:     "video short profile segment stripped",
			rawURL:   "https://cdn.example.com/vid/mp4-360p/abc123.mp4",
			kind:     models.AssetKindVideo,
			expected: "https://cdn.example.com/vid/abc123.mp4",
		},
		{
			name:     "video inline marker stripped",
			rawURL:   "https://cdn.example.com/vid/abc-720p-main.mp4",
			kind:     models.AssetKindVideo,
			expected: "https://cdn.example.com/vid/abc-main.mp4",
		},
		{
			name:     "image keeps rendition-like segments",
			rawURL:   "https://cdn.example.com/img/mp4-720p/abc.jpg",
			kind:     models.AssetKindImage,
			expected: "https://cdn.example.com/img/mp4-720p/abc.jpg",
		},
		{
			name:     "schemeless URL falls back to raw",
			rawURL:   "cdn.example.com/abc.jpg",
			kind:     models.AssetKindImage,
			expected: "cdn.example.com/abc.jpg",
		},
		{
			name:     "malformed URL falls back to raw",
			rawURL:   "ht tp://%zz",
			kind:     models.AssetKindVideo,
			expected: "ht tp://%zz",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Identity(tt.rawURL, tt.kind))
		})
	}
}

func TestIdentityEquivalence(t *testing.T) {
	// Rendition variants of one video collapse to a single identity
	a := Identity("https://cdn.example.com/vid/mp4-360p-30fp-crf28/abc.mp4?e=1", models.AssetKindVideo)
	b := Identity("https://cdn.example.com/vid/mp4-720p-30fp-crf28/abc.mp4?e=2", models.AssetKindVideo)
	assert.Equal(t, a, b)

	// Different videos stay distinct
	c := Identity("https://cdn.example.com/vid/mp4-720p-30fp-crf28/def.mp4", models.AssetKindVideo)
	assert.NotEqual(t, a, c)
}

func TestResolution(t *testing.T) {
	tests := []struct {
		name     string
		rawURL   string
		expected int
	}{
		{"no marker", "https://cdn.example.com/abc.mp4", 0},
		{"single marker", "https://cdn.example.com/mp4-720p/abc.mp4", 720},
		{"picks largest marker", "https://cdn.example.com/mp4-360p/abc-1080p.mp4", 1080},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Resolution(tt.rawURL))
		})
	}
}

func TestBestOf(t *testing.T) {
	t.Run("empty input", func(t *testing.T) {
		assert.Equal(t, "", BestOf(nil))
	})

	t.Run("picks highest resolution", func(t *testing.T) {
		urls := []string{
			"https://cdn.example.com/mp4-360p/abc.mp4",
			"https://cdn.example.com/mp4-720p/abc.mp4",
			"https://cdn.example.com/mp4-480p/abc.mp4",
		}
		assert.Equal(t, urls[1], BestOf(urls))
	})

	t.Run("first seen wins ties", func(t *testing.T) {
		urls := []string{
			"https://a.example.com/mp4-720p/abc.mp4",
			"https://b.example.com/mp4-720p/abc.mp4",
		}
		assert.Equal(t, urls[0], BestOf(urls))
	})

	t.Run("markerless URLs keep order", func(t *testing.T) {
		urls := []string{
			"https://cdn.example.com/first.mp4",
			"https://cdn.example.com/second.mp4",
		}
		assert.Equal(t, urls[0], BestOf(urls))
	})
}

func TestGroupByIdentity(t *testing.T) {
	urls := []string{
		"https://cdn.example.com/vid/mp4-360p/abc.mp4",
		"https://cdn.example.com/vid/mp4-720p/abc.mp4",
		"https://cdn.example.com/vid/mp4-720p/def.mp4",
	}

	order, groups := GroupByIdentity(urls, models.AssetKindVideo)

	assert.Len(t, order, 2)
	assert.Equal(t, "https://cdn.example.com/vid/abc.mp4", order[0])
	assert.Equal(t, "https://cdn.example.com/vid/def.mp4", order[1])
	assert.Len(t, groups[order[0]], 2)
	assert.Len(t, groups[order[1]], 1)

	// One download per group at the best rendition
	assert.Equal(t, urls[1], BestOf(groups[order[0]]))
}

func TestSeenCache(t *testing.T) {
	cache := NewSeenCache()

	_, ok := cache.Lookup(models.AssetKindImage, "id1")
	assert.False(t, ok)

	cache.Register(models.AssetKindImage, "id1", "/tmp/a.jpg")
	path, ok := cache.Lookup(models.AssetKindImage, "id1")
	assert.True(t, ok)
	assert.Equal(t, "/tmp/a.jpg", path)

	// Kinds are independent namespaces
	_, ok = cache.Lookup(models.AssetKindVideo, "id1")
	assert.False(t, ok)

	cache.Register(models.AssetKindVideo, "id1", "/tmp/a.mp4")
	assert.Equal(t, 1, cache.Len(models.AssetKindImage))
	assert.Equal(t, 1, cache.Len(models.AssetKindVideo))
	assert.Equal(t, 2, cache.Size())
}
