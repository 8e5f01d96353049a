package downloader

import (
	"bytes"

	"adlibscraper/pkg/assets"
	"adlibscraper/pkg/logger"
	"adlibscraper/pkg/models"
	"adlibscraper/pkg/ratelimit"
	"adlibscraper/pkg/storage"
)

// AssetClient is the transport surface the fetcher needs. *adlib.Client
// satisfies it; tests substitute a fake.
type AssetClient interface {
	Head(url string) error
	DownloadAsset(url string) (data []byte, contentType string, err error)
}

// Fetcher materializes an ad's remote assets as local files, consulting
// the seen-assets cache before every download so each identity is
// fetched at most once per run.
type Fetcher struct {
	client        AssetClient
	store         *storage.Manager
	cache         *assets.SeenCache
	limiter       ratelimit.Limiter
	assetsPerItem int
	logger        logger.Logger
}

// candidate is one download slot resolved from a remote URL
type candidate struct {
	kind models.AssetKind
	url  string
}

// New creates a fetcher. assetsPerItem limits the non-logo assets
// downloaded per ad, in videos > images > posters priority; 0 means all.
func New(client AssetClient, store *storage.Manager, cache *assets.SeenCache, limiter ratelimit.Limiter, assetsPerItem int, log logger.Logger) *Fetcher {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Fetcher{
		client:        client,
		store:         store,
		cache:         cache,
		limiter:       limiter,
		assetsPerItem: assetsPerItem,
		logger:        log,
	}
}

// Materialize downloads the assets of one ad record and returns their
// local paths. A failed download leaves its slot empty and never stops
// the sibling assets.
func (f *Fetcher) Materialize(adID string, bundle models.AssetBundle) models.AssetPaths {
	var paths models.AssetPaths

	if bundle.LogoURL != "" {
		if path := f.fetchOne(adID, models.AssetKindLogo, bundle.LogoURL, 0); path != "" {
			paths.LogoPath = path
		}
	}

	counters := map[models.AssetKind]int{}
	collected := map[string]bool{}
	for _, c := range f.selectCandidates(bundle) {
		idx := counters[c.kind]
		counters[c.kind]++

		path := f.fetchOne(adID, c.kind, c.url, idx)
		if path == "" {
			continue
		}
		// URL variants sharing an identity resolve to one cached path;
		// the record lists it once
		if collected[path] {
			continue
		}
		collected[path] = true
		switch c.kind {
		case models.AssetKindVideo:
			paths.VideoPaths = append(paths.VideoPaths, path)
		case models.AssetKindImage:
			paths.ImagePaths = append(paths.ImagePaths, path)
		case models.AssetKindPoster:
			paths.PosterPaths = append(paths.PosterPaths, path)
		}
	}

	return paths
}

// selectCandidates orders the bundle's non-logo assets for download.
// Videos are grouped by identity first with one best rendition per
// group, so quality variants of the same video never download twice.
func (f *Fetcher) selectCandidates(bundle models.AssetBundle) []candidate {
	var candidates []candidate

	order, groups := assets.GroupByIdentity(bundle.VideoURLs, models.AssetKindVideo)
	for _, id := range order {
		candidates = append(candidates, candidate{
			kind: models.AssetKindVideo,
			url:  assets.BestOf(groups[id]),
		})
	}
	for _, u := range bundle.ImageURLs {
		candidates = append(candidates, candidate{kind: models.AssetKindImage, url: u})
	}
	for _, u := range bundle.PosterURLs {
		candidates = append(candidates, candidate{kind: models.AssetKindPoster, url: u})
	}

	if f.assetsPerItem > 0 && len(candidates) > f.assetsPerItem {
		candidates = candidates[:f.assetsPerItem]
	}
	return candidates
}

// fetchOne resolves a single URL to a local path, via the cache when
// the identity was already downloaded this run
func (f *Fetcher) fetchOne(adID string, kind models.AssetKind, url string, index int) string {
	identity := assets.Identity(url, kind)

	if path, ok := f.cache.Lookup(kind, identity); ok {
		f.logger.DebugWithFields("asset already materialized", map[string]interface{}{
			"ad_id": adID,
			"kind":  string(kind),
			"path":  path,
		})
		return path
	}

	if f.limiter != nil {
		f.limiter.Wait()
	}

	// Pre-flight before pulling a potentially large body
	if err := f.client.Head(url); err != nil {
		logger.LogDownload(adID, string(kind), url, false, err)
		return ""
	}

	data, contentType, err := f.client.DownloadAsset(url)
	if err != nil {
		logger.LogDownload(adID, string(kind), url, false, err)
		return ""
	}

	filename := assets.Filename(adID, kind, url, index, contentType)
	path, err := f.store.SaveAsset(adID, kind, filename, bytes.NewReader(data))
	if err != nil {
		logger.LogDownload(adID, string(kind), url, false, err)
		return ""
	}

	f.cache.Register(kind, identity, path)
	logger.LogDownload(adID, string(kind), url, true, nil)
	return path
}
