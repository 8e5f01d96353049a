package extractor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"adlibscraper/pkg/models"
)

const sampleDetailPage = `<!DOCTYPE html>
<html>
<body>
  <h1>Acme Analytics</h1>
  <p class="commentary__content">Turn raw events into revenue insights with our pipeline platform.</p>
  <p>Trusted by two thousand data teams around the world.</p>
  <div>Ad Type: Video Ad</div>
  <div>Paid for by: Acme Analytics GmbH</div>
  <a href="/company/acme-analytics">
    <img src="https://cdn.example.com/company/acme-logo.png" alt="Acme logo">
  </a>
  <img data-delayed-url="https://cdn.example.com/creatives/hero-banner.jpg" alt="creative">
  <video data-poster-url="https://cdn.example.com/posters/frame.jpg"
         data-sources="[{&quot;src&quot;:&quot;https://cdn.example.com/vid/mp4-360p/promo.mp4&quot;},{&quot;src&quot;:&quot;https://cdn.example.com/vid/mp4-720p/promo.mp4&quot;}]"></video>
  <button data-tracking-control-name="ad-cta">Learn more</button>
  <button>See more</button>
</body>
</html>`

func TestExtractDetail(t *testing.T) {
	record, err := ExtractDetail("12345", "https://www.linkedin.com/ad-library/detail/12345", sampleDetailPage)
	require.NoError(t, err)

	assert.Equal(t, "12345", record.ID)
	assert.Equal(t, "https://www.linkedin.com/ad-library/detail/12345", record.DetailURL)
	assert.Equal(t, "Acme Analytics", record.Advertiser)
	assert.Equal(t, "Video Ad", record.AdType)
	assert.Equal(t, "Acme Analytics GmbH", record.PaidForBy)

	assert.Contains(t, record.Text, "revenue insights")
	assert.Contains(t, record.Text, "two thousand data teams")

	require.Len(t, record.CallToActions, 1)
	assert.Equal(t, "Learn more", record.CallToActions[0].Text)

	assert.Equal(t, "https://cdn.example.com/company/acme-logo.png", record.Assets.LogoURL)
	assert.Contains(t, record.Assets.ImageURLs, "https://cdn.example.com/creatives/hero-banner.jpg")
	assert.Equal(t, []string{
		"https://cdn.example.com/vid/mp4-360p/promo.mp4",
		"https://cdn.example.com/vid/mp4-720p/promo.mp4",
	}, record.Assets.VideoURLs)
	assert.Equal(t, []string{"https://cdn.example.com/posters/frame.jpg"}, record.Assets.PosterURLs)
}

func TestExtractDetailSparsePage(t *testing.T) {
	record, err := ExtractDetail("9", "https://www.linkedin.com/ad-library/detail/9", "<html><body></body></html>")
	require.NoError(t, err)

	assert.Equal(t, "9", record.ID)
	assert.Empty(t, record.Advertiser)
	assert.Empty(t, record.Text)
	assert.Empty(t, record.AdType)
	assert.Empty(t, record.CallToActions)
	assert.False(t, record.Assets.HasAssets())
}

func TestExtractDetailAdTypeInference(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{
			name:     "single image infers image ad",
			body:     `<html><body><img src="https://cdn.example.com/one.jpg"></body></html>`,
			expected: "Image Ad",
		},
		{
			name: "multiple images infer carousel",
			body: `<html><body>
			  <img src="https://cdn.example.com/one.jpg">
			  <img src="https://cdn.example.com/two.jpg">
			</body></html>`,
			expected: "Carousel Ad",
		},
		{
			name:     "video wins over images",
			body:     `<html><body><img src="https://cdn.example.com/one.jpg"><video src="https://cdn.example.com/v.mp4"></video></body></html>`,
			expected: "Video Ad",
		},
		{
			name:     "explicit marker wins over shape",
			body:     `<html><body><div>Sponsored Content</div><img src="https://cdn.example.com/one.jpg"></body></html>`,
			expected: "Sponsored Content",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := ExtractDetail("1", "https://www.linkedin.com/ad-library/detail/1", tt.body)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, record.AdType)
		})
	}
}

func TestExtractImagesSkipsLogos(t *testing.T) {
	body := `<html><body>
	  <img src="https://cdn.example.com/company/brand-logo.png">
	  <img src="https://cdn.example.com/creatives/banner.jpg">
	</body></html>`

	record, err := ExtractDetail("1", "https://www.linkedin.com/ad-library/detail/1", body)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.example.com/creatives/banner.jpg"}, record.Assets.ImageURLs)
}

func TestExtractImagesCollapsesSignedVariants(t *testing.T) {
	body := `<html><body>
	  <img src="https://cdn.example.com/creatives/photo.jpg?e=111">
	  <img src="https://cdn.example.com/creatives/photo.jpg?e=222">
	  <img src="https://cdn.example.com/creatives/other.jpg?e=111">
	</body></html>`

	record, err := ExtractDetail("1", "https://www.linkedin.com/ad-library/detail/1", body)
	require.NoError(t, err)

	// Signing params vary per render; the logical image appears once
	assert.Equal(t, []string{
		"https://cdn.example.com/creatives/photo.jpg?e=111",
		"https://cdn.example.com/creatives/other.jpg?e=111",
	}, record.Assets.ImageURLs)
	assert.Equal(t, "Carousel Ad", record.AdType)
}

func TestExtractPostersCollapsesSignedVariants(t *testing.T) {
	body := `<html><body>
	  <video src="https://cdn.example.com/vid/mp4-720p/a.mp4" poster="https://cdn.example.com/posters/frame.jpg?t=1"></video>
	  <video src="https://cdn.example.com/vid/mp4-360p/b.mp4" poster="https://cdn.example.com/posters/frame.jpg?t=2"></video>
	</body></html>`

	record, err := ExtractDetail("1", "https://www.linkedin.com/ad-library/detail/1", body)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://cdn.example.com/posters/frame.jpg?t=1"}, record.Assets.PosterURLs)
}

func TestDecodeDataSources(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		expected []string
	}{
		{
			name:     "escaped json",
			raw:      `[{&quot;src&quot;:&quot;https://cdn.example.com/a.mp4&quot;}]`,
			expected: []string{"https://cdn.example.com/a.mp4"},
		},
		{
			name:     "plain json",
			raw:      `[{"src":"https://cdn.example.com/a.mp4"},{"src":""}]`,
			expected: []string{"https://cdn.example.com/a.mp4"},
		},
		{
			name:     "malformed payload",
			raw:      `{not json`,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decodeDataSources(tt.raw))
		})
	}
}

func TestExtractDetailAssetBundleHelpers(t *testing.T) {
	var bundle models.AssetBundle
	assert.False(t, bundle.HasAssets())

	bundle.VideoURLs = []string{"https://cdn.example.com/v.mp4"}
	assert.True(t, bundle.HasAssets())
}
