package logger

// LogRequest logs HTTP request information
func LogRequest(method, url string, statusCode int, durationMs float64) {
	fields := map[string]interface{}{
		"method":      method,
		"url":         url,
		"status_code": statusCode,
		"duration_ms": durationMs,
	}

	if statusCode >= 200 && statusCode < 300 {
		GetLogger().DebugWithFields("HTTP request completed", fields)
	} else if statusCode >= 400 && statusCode < 500 {
		GetLogger().WarnWithFields("HTTP request client error", fields)
	} else if statusCode >= 500 {
		GetLogger().ErrorWithFields("HTTP request server error", fields)
	}
}

// LogDownload logs asset download operations
func LogDownload(adID, kind, url string, success bool, err error) {
	fields := map[string]interface{}{
		"ad_id":   adID,
		"kind":    kind,
		"url":     url,
		"success": success,
	}

	logger := GetLogger().WithFields(fields)

	if err != nil {
		logger.WithError(err).Error("Download failed")
	} else if success {
		logger.Debug("Download completed")
	} else {
		logger.Debug("Download skipped")
	}
}

// LogRateLimit logs rate limiting events
func LogRateLimit(endpoint string, retryAfter int) {
	GetLogger().WithFields(map[string]interface{}{
		"endpoint":    endpoint,
		"retry_after": retryAfter,
		"action":      "rate_limited",
	}).Warn("Rate limit reached, backing off")
}

// LogScrapeProgress logs pagination progress for one advertiser walk
func LogScrapeProgress(advertiser string, collected, target int) {
	percentage := 0.0
	if target > 0 {
		percentage = float64(collected) / float64(target) * 100
	}

	GetLogger().InfoWithFields("Scrape progress", map[string]interface{}{
		"advertiser": advertiser,
		"collected":  collected,
		"target":     target,
		"percent":    percentage,
	})
}
