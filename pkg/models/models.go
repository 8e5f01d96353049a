package models

// AssetKind classifies a remote asset within an ad
type AssetKind string

const (
	AssetKindLogo   AssetKind = "logo"
	AssetKindImage  AssetKind = "image"
	AssetKindVideo  AssetKind = "video"
	AssetKindPoster AssetKind = "poster"
)

// CallToAction is a clickable prompt extracted from an ad detail page
type CallToAction struct {
	Text string `json:"text"`
	URL  string `json:"url,omitempty"`
}

// AssetBundle holds the remote asset URLs discovered on a detail page
type AssetBundle struct {
	LogoURL    string   `json:"logo_url,omitempty"`
	ImageURLs  []string `json:"image_urls,omitempty"`
	VideoURLs  []string `json:"video_urls,omitempty"`
	PosterURLs []string `json:"poster_urls,omitempty"`
}

// AssetPaths holds the local filesystem paths of downloaded assets.
// A slot is empty when the download failed or was skipped.
type AssetPaths struct {
	LogoPath    string   `json:"logo_path,omitempty"`
	ImagePaths  []string `json:"image_paths,omitempty"`
	VideoPaths  []string `json:"video_paths,omitempty"`
	PosterPaths []string `json:"poster_paths,omitempty"`
}

// AdRecord is one fully extracted ad from the transparency library
type AdRecord struct {
	ID            string         `json:"ad_id"`
	DetailURL     string         `json:"detail_url"`
	Advertiser    string         `json:"advertiser,omitempty"`
	AdType        string         `json:"ad_type,omitempty"`
	Text          string         `json:"ad_text,omitempty"`
	CallToActions []CallToAction `json:"call_to_actions,omitempty"`
	PaidForBy     string         `json:"paid_for_by,omitempty"`
	Assets        AssetBundle    `json:"assets"`
	LocalPaths    AssetPaths     `json:"local_paths,omitempty"`
	Error         string         `json:"error,omitempty"`
}

// HasAssets reports whether any remote asset was found for the ad
func (b AssetBundle) HasAssets() bool {
	return b.LogoURL != "" || len(b.ImageURLs) > 0 || len(b.VideoURLs) > 0 || len(b.PosterURLs) > 0
}

// AssetCount returns the total number of remote assets in the bundle
func (b AssetBundle) AssetCount() int {
	n := len(b.ImageURLs) + len(b.VideoURLs) + len(b.PosterURLs)
	if b.LogoURL != "" {
		n++
	}
	return n
}

// ScrapeResult summarizes one completed advertiser run
type ScrapeResult struct {
	Advertiser     string     `json:"advertiser"`
	Requested      int        `json:"requested"`
	Collected      int        `json:"collected"`
	PagesFetched   int        `json:"pages_fetched"`
	DetailFailures int        `json:"detail_failures"`
	Records        []AdRecord `json:"records"`
}
