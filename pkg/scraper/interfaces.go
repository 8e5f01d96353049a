package scraper

import (
	"context"

	"adlibscraper/pkg/models"
	"adlibscraper/pkg/walker"
)

// ListingWalker pages through an advertiser's listing and returns ad
// IDs in first-seen order. *walker.Walker satisfies it.
type ListingWalker interface {
	Walk(ctx context.Context, advertiser string, target int) (*walker.Result, error)
}

// DetailFetcher fetches one ad's detail page body. *adlib.Client
// satisfies it.
type DetailFetcher interface {
	FetchDetail(adID string) (string, error)
}

// Materializer downloads an ad's assets and returns their local paths.
// *downloader.Fetcher satisfies it.
type Materializer interface {
	Materialize(adID string, bundle models.AssetBundle) models.AssetPaths
}
