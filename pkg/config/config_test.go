package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 100, cfg.Scrape.MaxResults)
	assert.Equal(t, 2*time.Second, cfg.Scrape.RequestDelay)
	assert.Equal(t, 100, cfg.Scrape.PageLimit)
	assert.Equal(t, 10, cfg.Scrape.SaveBatchSize)
	assert.Equal(t, 30, cfg.RateLimit.RequestsPerMinute)
	assert.Equal(t, "ad_details.json", cfg.Output.ResultsFile)
	assert.Equal(t, "downloaded_assets", cfg.Output.AssetsDirectory)
	assert.True(t, cfg.Download.Enabled)
	assert.Equal(t, 0, cfg.Download.AssetsPerItem)
	assert.Equal(t, "info", cfg.Logging.Level)

	assert.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("ADLIB_LI_AT", "AQEDenv")
	t.Setenv("ADLIB_JSESSIONID", "ajax:env")
	t.Setenv("ADLIB_PROXIES", "host1:8080,host2:8080")
	t.Setenv("ADLIB_MAX_RESULTS", "25")
	t.Setenv("ADLIB_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "AQEDenv", cfg.AdLibrary.LiAt)
	assert.Equal(t, "ajax:env", cfg.AdLibrary.JSessionID)
	assert.Equal(t, []string{"host1:8080", "host2:8080"}, cfg.AdLibrary.Proxies)
	assert.Equal(t, 25, cfg.Scrape.MaxResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ad_library:
  li_at: "AQEDfile"
scrape:
  max_results: 42
  request_delay: 5s
output:
  results_file: "custom.json"
logging:
  level: "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "AQEDfile", cfg.AdLibrary.LiAt)
	assert.Equal(t, 42, cfg.Scrape.MaxResults)
	assert.Equal(t, 5*time.Second, cfg.Scrape.RequestDelay)
	assert.Equal(t, "custom.json", cfg.Output.ResultsFile)
	assert.Equal(t, "warn", cfg.Logging.Level)

	// Untouched fields keep defaults
	assert.Equal(t, 100, cfg.Scrape.PageLimit)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		valid  bool
	}{
		{"defaults are valid", func(c *Config) {}, true},
		{"zero max results", func(c *Config) { c.Scrape.MaxResults = 0 }, false},
		{"zero page limit", func(c *Config) { c.Scrape.PageLimit = 0 }, false},
		{"negative request delay", func(c *Config) { c.Scrape.RequestDelay = -time.Second }, false},
		{"zero requests per minute", func(c *Config) { c.RateLimit.RequestsPerMinute = 0 }, false},
		{"negative assets per item", func(c *Config) { c.Download.AssetsPerItem = -1 }, false},
		{"empty results file", func(c *Config) { c.Output.ResultsFile = "" }, false},
		{"empty assets directory", func(c *Config) { c.Output.AssetsDirectory = "" }, false},
		{"bad log level", func(c *Config) { c.Logging.Level = "loud" }, false},
		{"zero assets per item allowed", func(c *Config) { c.Download.AssetsPerItem = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if tt.valid {
				assert.NoError(t, cfg.Validate())
			} else {
				assert.Error(t, cfg.Validate())
			}
		})
	}
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()

	cfg.MergeCommandLineFlags(map[string]interface{}{
		"max-results":     50,
		"request-delay":   500 * time.Millisecond,
		"page-limit":      10,
		"results-file":    "flags.json",
		"assets-dir":      "flag_assets",
		"download-assets": false,
		"assets-per-item": 2,
		"cookie-file":     "flags_cookies.json",
		"proxies":         []string{"p1:8080"},
		"log-level":       "debug",
	})

	assert.Equal(t, 50, cfg.Scrape.MaxResults)
	assert.Equal(t, 500*time.Millisecond, cfg.Scrape.RequestDelay)
	assert.Equal(t, 10, cfg.Scrape.PageLimit)
	assert.Equal(t, "flags.json", cfg.Output.ResultsFile)
	assert.Equal(t, "flag_assets", cfg.Output.AssetsDirectory)
	assert.False(t, cfg.Download.Enabled)
	assert.Equal(t, 2, cfg.Download.AssetsPerItem)
	assert.Equal(t, "flags_cookies.json", cfg.AdLibrary.CookieFile)
	assert.Equal(t, []string{"p1:8080"}, cfg.AdLibrary.Proxies)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadPrecedence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
scrape:
  max_results: 42
logging:
  level: "warn"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	// Env overrides file
	t.Setenv("ADLIB_MAX_RESULTS", "60")

	// Flags override env
	cfg, err := Load(path, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)

	assert.Equal(t, 60, cfg.Scrape.MaxResults)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved", "config.yaml")

	cfg := DefaultConfig()
	cfg.Scrape.MaxResults = 7
	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, 7, loaded.Scrape.MaxResults)
}
