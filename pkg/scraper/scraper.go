package scraper

import (
	"context"
	"fmt"
	"time"

	"adlibscraper/pkg/adlib"
	"adlibscraper/pkg/assets"
	"adlibscraper/pkg/auth"
	"adlibscraper/pkg/config"
	errs "adlibscraper/pkg/errors"
	"adlibscraper/pkg/extractor"
	"adlibscraper/pkg/logger"
	"adlibscraper/pkg/models"
	"adlibscraper/pkg/ratelimit"
	"adlibscraper/pkg/storage"
	"adlibscraper/pkg/walker"

	"adlibscraper/internal/downloader"
)

// Scraper orchestrates one advertiser run: session prerequisites, the
// pagination walk, per-ad detail extraction, asset materialization, and
// batched persistence.
type Scraper struct {
	cfg     *config.Config
	client  *adlib.Client
	walker  ListingWalker
	fetcher Materializer
	details DetailFetcher
	results *storage.ResultsWriter
	interim *storage.ResultsWriter
	logger  logger.Logger
}

// New builds a scraper and its collaborators from configuration
func New(cfg *config.Config, log logger.Logger) (*Scraper, error) {
	if log == nil {
		log = logger.GetLogger()
	}

	client := adlib.NewClient(&cfg.AdLibrary, cfg.Retry, cfg.Download.RequestTimeout, log)
	client.SetLimiter(ratelimit.NewSlidingWindow(cfg.RateLimit.RequestsPerMinute, time.Minute))

	store, err := storage.NewManager(cfg.Output.AssetsDirectory)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize asset storage: %w", err)
	}

	cache := assets.NewSeenCache()

	s := &Scraper{
		cfg:     cfg,
		client:  client,
		walker:  walker.New(client, cfg.Scrape.RequestDelay, log).WithPageCeiling(cfg.Scrape.PageLimit),
		details: client,
		results: storage.NewResultsWriter(cfg.Output.ResultsFile),
		logger:  log,
	}

	if cfg.Scrape.SaveIntermediate && cfg.Output.IntermediateFile != "" {
		s.interim = storage.NewResultsWriter(cfg.Output.IntermediateFile)
	}

	if cfg.Download.Enabled {
		burst := cfg.RateLimit.BurstSize
		if burst <= 0 {
			burst = 1
		}
		limiter := ratelimit.NewTokenBucket(burst, downloadRefillPeriod(&cfg.RateLimit))
		s.fetcher = downloader.New(client, store, cache, limiter, cfg.Download.AssetsPerItem, log)
	}

	return s, nil
}

// downloadRefillPeriod sizes the download token bucket so a burst of
// BurstSize assets still averages out to RequestsPerMinute.
func downloadRefillPeriod(cfg *config.RateLimitConfig) time.Duration {
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 1
	}
	burst := cfg.BurstSize
	if burst <= 0 {
		burst = 1
	}
	return time.Duration(burst) * time.Minute / time.Duration(rpm)
}

// Run scrapes one advertiser end to end. Prerequisite failure aborts
// before any network activity; per-ad failures produce partial records
// and the loop continues; the collection is always persisted at the
// end, even when incomplete.
func (s *Scraper) Run(ctx context.Context, advertiser string) (*models.ScrapeResult, error) {
	advertiser = adlib.SanitizeAdvertiser(advertiser)
	if advertiser == "" {
		return nil, fmt.Errorf("advertiser name is required")
	}

	if err := s.ensureSession(); err != nil {
		return nil, err
	}

	target := s.cfg.Scrape.MaxResults
	s.logger.InfoWithFields("starting scrape", map[string]interface{}{
		"advertiser": advertiser,
		"target":     target,
		"download":   s.cfg.Download.Enabled,
	})

	walkResult, err := s.walker.Walk(ctx, advertiser, target)
	if err != nil {
		return nil, fmt.Errorf("pagination walk failed: %w", err)
	}

	result := &models.ScrapeResult{
		Advertiser:   advertiser,
		Requested:    target,
		PagesFetched: walkResult.Pages,
	}

	records := make([]models.AdRecord, 0, len(walkResult.AdIDs))
	for i, adID := range walkResult.AdIDs {
		if err := ctx.Err(); err != nil {
			s.logger.Warn("scrape cancelled, persisting partial results")
			break
		}

		if i > 0 && s.cfg.Scrape.RequestDelay > 0 {
			time.Sleep(s.cfg.Scrape.RequestDelay)
		}

		record := s.scrapeAd(adID)
		if record.Error != "" {
			result.DetailFailures++
		}
		records = append(records, record)

		logger.LogScrapeProgress(advertiser, len(records), len(walkResult.AdIDs))

		if batch := s.cfg.Scrape.SaveBatchSize; batch > 0 && len(records)%batch == 0 {
			s.persistBatch(records)
		}
	}

	result.Collected = len(records)
	result.Records = records

	if err := s.results.Write(records); err != nil {
		// The in-memory collection stays authoritative for this run
		s.logger.ErrorWithFields("failed to persist results", map[string]interface{}{
			"path":  s.results.Path(),
			"error": err.Error(),
		})
	} else {
		s.logger.InfoWithFields("results persisted", map[string]interface{}{
			"path":    s.results.Path(),
			"records": len(records),
		})
	}

	return result, nil
}

// scrapeAd fetches and extracts one ad. Failures yield a partial record
// carrying an error marker instead of stopping the run.
func (s *Scraper) scrapeAd(adID string) models.AdRecord {
	detailURL := adlib.GetDetailURL(adID)

	body, err := s.details.FetchDetail(adID)
	if err != nil {
		s.logger.WarnWithFields("detail fetch failed", map[string]interface{}{
			"ad_id": adID,
			"error": err.Error(),
		})
		return models.AdRecord{
			ID:        adID,
			DetailURL: detailURL,
			Error:     err.Error(),
		}
	}

	record, err := extractor.ExtractDetail(adID, detailURL, body)
	if err != nil {
		return record
	}

	if s.fetcher != nil && record.Assets.HasAssets() {
		record.LocalPaths = s.fetcher.Materialize(adID, record.Assets)
	}

	return record
}

// ensureSession loads cookies into the client if it has none yet.
// Missing prerequisites are fatal for the run.
func (s *Scraper) ensureSession() error {
	if s.client.HasSessionCookies() {
		return nil
	}

	manager, err := auth.NewManager(s.cfg.AdLibrary.CookieFile)
	if err != nil {
		return fmt.Errorf("failed to initialize session manager: %w", err)
	}

	session, err := manager.RetrieveDefault()
	if err != nil {
		return &errs.Error{
			Type:    errs.ErrorTypeAuth,
			Message: "no session cookies available, run 'adlibscraper auth login' first",
			Code:    0,
		}
	}

	s.client.SetCookies(session.Cookies())
	s.logger.InfoWithFields("session loaded", map[string]interface{}{
		"session": session.Name,
	})
	return nil
}

// persistBatch writes an intermediate snapshot of the collection.
// Failures are logged and never stop the loop.
func (s *Scraper) persistBatch(records []models.AdRecord) {
	writer := s.interim
	if writer == nil {
		writer = s.results
	}

	if err := writer.Write(records); err != nil {
		s.logger.WarnWithFields("intermediate save failed", map[string]interface{}{
			"path":  writer.Path(),
			"error": err.Error(),
		})
		return
	}

	s.logger.DebugWithFields("intermediate save completed", map[string]interface{}{
		"path":    writer.Path(),
		"records": len(records),
	})
}
