package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration options for the ad library scraper
type Config struct {
	// Ad library session credentials and endpoints
	AdLibrary AdLibraryConfig `yaml:"ad_library" json:"ad_library"`

	// Scrape behaviour (pagination, targets, delays)
	Scrape ScrapeConfig `yaml:"scrape" json:"scrape"`

	// Rate limiting configuration
	RateLimit RateLimitConfig `yaml:"rate_limit" json:"rate_limit"`

	// Retry configuration
	Retry RetryConfig `yaml:"retry" json:"retry"`

	// Output settings
	Output OutputConfig `yaml:"output" json:"output"`

	// Asset download settings
	Download DownloadConfig `yaml:"download" json:"download"`

	// Logging configuration
	Logging LoggingConfig `yaml:"logging" json:"logging"`
}

// AdLibraryConfig holds session credentials for the ad library endpoints
type AdLibraryConfig struct {
	LiAt       string   `yaml:"li_at" json:"li_at"`
	JSessionID string   `yaml:"jsessionid" json:"jsessionid"`
	CSRFToken  string   `yaml:"csrf_token" json:"csrf_token"`
	CookieFile string   `yaml:"cookie_file" json:"cookie_file"`
	UserAgent  string   `yaml:"user_agent" json:"user_agent"`
	Proxies    []string `yaml:"proxies" json:"proxies"`
}

// ScrapeConfig holds pagination and accumulation settings
type ScrapeConfig struct {
	MaxResults       int           `yaml:"max_results" json:"max_results"`
	RequestDelay     time.Duration `yaml:"request_delay" json:"request_delay"`
	PageLimit        int           `yaml:"page_limit" json:"page_limit"`
	SaveBatchSize    int           `yaml:"save_batch_size" json:"save_batch_size"`
	SaveIntermediate bool          `yaml:"save_intermediate" json:"save_intermediate"`
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	RequestsPerMinute int `yaml:"requests_per_minute" json:"requests_per_minute"`
	BurstSize         int `yaml:"burst_size" json:"burst_size"`
}

// RetryConfig holds retry behaviour for transient transport failures
type RetryConfig struct {
	Enabled     bool          `yaml:"enabled" json:"enabled"`
	MaxAttempts int           `yaml:"max_attempts" json:"max_attempts"`
	BaseDelay   time.Duration `yaml:"base_delay" json:"base_delay"`
	MaxDelay    time.Duration `yaml:"max_delay" json:"max_delay"`
}

// OutputConfig holds result file and assets directory configuration
type OutputConfig struct {
	ResultsFile      string `yaml:"results_file" json:"results_file"`
	IntermediateFile string `yaml:"intermediate_file" json:"intermediate_file"`
	AssetsDirectory  string `yaml:"assets_directory" json:"assets_directory"`
}

// DownloadConfig holds asset download settings
type DownloadConfig struct {
	Enabled         bool          `yaml:"enabled" json:"enabled"`
	DownloadTimeout time.Duration `yaml:"download_timeout" json:"download_timeout"`
	RequestTimeout  time.Duration `yaml:"request_timeout" json:"request_timeout"`
	AssetsPerItem   int           `yaml:"assets_per_item" json:"assets_per_item"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `yaml:"level" json:"level"`
	File  string `yaml:"file" json:"file"`
}

// DefaultConfig returns a Config instance with sensible defaults
func DefaultConfig() *Config {
	return &Config{
		AdLibrary: AdLibraryConfig{
			CookieFile: "linkedin_cookies.json",
			UserAgent:  "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0.0.0 Safari/537.36",
		},
		Scrape: ScrapeConfig{
			MaxResults:    100,
			RequestDelay:  2 * time.Second,
			PageLimit:     100,
			SaveBatchSize: 10,
		},
		RateLimit: RateLimitConfig{
			RequestsPerMinute: 30,
			BurstSize:         5,
		},
		Retry: RetryConfig{
			Enabled:     true,
			MaxAttempts: 3,
			BaseDelay:   5 * time.Second,
			MaxDelay:    60 * time.Second,
		},
		Output: OutputConfig{
			ResultsFile:      "ad_details.json",
			IntermediateFile: "ad_listing.json",
			AssetsDirectory:  "downloaded_assets",
		},
		Download: DownloadConfig{
			Enabled:         true,
			DownloadTimeout: 30 * time.Second,
			RequestTimeout:  15 * time.Second,
			AssetsPerItem:   0, // 0 means all discovered assets
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadFromEnv loads configuration from environment variables
func (c *Config) LoadFromEnv() error {
	if liAt := os.Getenv("ADLIB_LI_AT"); liAt != "" {
		c.AdLibrary.LiAt = liAt
	}
	if jsession := os.Getenv("ADLIB_JSESSIONID"); jsession != "" {
		c.AdLibrary.JSessionID = jsession
	}
	if csrf := os.Getenv("ADLIB_CSRF_TOKEN"); csrf != "" {
		c.AdLibrary.CSRFToken = csrf
	}
	if cookieFile := os.Getenv("ADLIB_COOKIE_FILE"); cookieFile != "" {
		c.AdLibrary.CookieFile = cookieFile
	}
	if userAgent := os.Getenv("ADLIB_USER_AGENT"); userAgent != "" {
		c.AdLibrary.UserAgent = userAgent
	}
	if proxies := os.Getenv("ADLIB_PROXIES"); proxies != "" {
		c.AdLibrary.Proxies = strings.Split(proxies, ",")
	}

	if rpm := os.Getenv("ADLIB_REQUESTS_PER_MINUTE"); rpm != "" {
		var val int
		fmt.Sscanf(rpm, "%d", &val)
		if val > 0 {
			c.RateLimit.RequestsPerMinute = val
		}
	}
	if max := os.Getenv("ADLIB_MAX_RESULTS"); max != "" {
		var val int
		fmt.Sscanf(max, "%d", &val)
		if val > 0 {
			c.Scrape.MaxResults = val
		}
	}
	if assetsDir := os.Getenv("ADLIB_ASSETS_DIR"); assetsDir != "" {
		c.Output.AssetsDirectory = assetsDir
	}
	if logLevel := os.Getenv("ADLIB_LOG_LEVEL"); logLevel != "" {
		c.Logging.Level = logLevel
	}

	return nil
}

// LoadFromFile loads configuration from a YAML file
func (c *Config) LoadFromFile(path string) error {
	// If path is empty, try default locations
	if path == "" {
		path = c.findConfigFile()
		if path == "" {
			return nil // No config file found, not an error
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	return nil
}

// findConfigFile searches for config file in standard locations
func (c *Config) findConfigFile() string {
	locations := []string{
		".adlibscraper.yaml",
		".adlibscraper.yml",
		filepath.Join(os.Getenv("HOME"), ".config", "adlibscraper", "config.yaml"),
		filepath.Join(os.Getenv("HOME"), ".config", "adlibscraper", "config.yml"),
		filepath.Join(os.Getenv("HOME"), ".adlibscraper.yaml"),
	}

	for _, loc := range locations {
		if _, err := os.Stat(loc); err == nil {
			return loc
		}
	}

	return ""
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	var errs []error

	if c.Scrape.MaxResults <= 0 {
		errs = append(errs, errors.New("max results must be positive"))
	}
	if c.Scrape.PageLimit <= 0 {
		errs = append(errs, errors.New("page limit must be positive"))
	}
	if c.Scrape.SaveBatchSize <= 0 {
		errs = append(errs, errors.New("save batch size must be positive"))
	}
	if c.Scrape.RequestDelay < 0 {
		errs = append(errs, errors.New("request delay cannot be negative"))
	}

	if c.RateLimit.RequestsPerMinute <= 0 {
		errs = append(errs, errors.New("requests per minute must be positive"))
	}

	if c.Retry.MaxAttempts < 0 {
		errs = append(errs, errors.New("max retry attempts cannot be negative"))
	}

	if c.Download.DownloadTimeout <= 0 {
		errs = append(errs, errors.New("download timeout must be positive"))
	}
	if c.Download.RequestTimeout <= 0 {
		errs = append(errs, errors.New("request timeout must be positive"))
	}
	if c.Download.AssetsPerItem < 0 {
		errs = append(errs, errors.New("assets per item cannot be negative"))
	}

	if c.Output.ResultsFile == "" {
		errs = append(errs, errors.New("results file is required"))
	}
	if c.Output.AssetsDirectory == "" {
		errs = append(errs, errors.New("assets directory is required"))
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[strings.ToLower(c.Logging.Level)] {
		errs = append(errs, errors.New("invalid log level"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// MergeCommandLineFlags merges command line flags into the configuration
func (c *Config) MergeCommandLineFlags(flags map[string]interface{}) {
	if cookieFile, ok := flags["cookie-file"].(string); ok && cookieFile != "" {
		c.AdLibrary.CookieFile = cookieFile
	}
	if proxies, ok := flags["proxies"].([]string); ok && len(proxies) > 0 {
		c.AdLibrary.Proxies = proxies
	}
	if max, ok := flags["max-results"].(int); ok && max > 0 {
		c.Scrape.MaxResults = max
	}
	if delay, ok := flags["request-delay"].(time.Duration); ok && delay >= 0 {
		c.Scrape.RequestDelay = delay
	}
	if pageLimit, ok := flags["page-limit"].(int); ok && pageLimit > 0 {
		c.Scrape.PageLimit = pageLimit
	}
	if output, ok := flags["results-file"].(string); ok && output != "" {
		c.Output.ResultsFile = output
	}
	if assetsDir, ok := flags["assets-dir"].(string); ok && assetsDir != "" {
		c.Output.AssetsDirectory = assetsDir
	}
	if download, ok := flags["download-assets"].(bool); ok {
		c.Download.Enabled = download
	}
	if perItem, ok := flags["assets-per-item"].(int); ok && perItem >= 0 {
		c.Download.AssetsPerItem = perItem
	}
	if logLevel, ok := flags["log-level"].(string); ok && logLevel != "" {
		c.Logging.Level = logLevel
	}
}

// Load loads configuration from all sources with proper precedence
// Precedence order: Command line flags > Environment variables > .env file > Config file > Defaults
func Load(configPath string, flags map[string]interface{}) (*Config, error) {
	// Try to load .env files (don't fail if they don't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load(filepath.Join(os.Getenv("HOME"), ".adlibscraper.env"))

	config := DefaultConfig()

	if err := config.LoadFromFile(configPath); err != nil {
		return nil, fmt.Errorf("failed to load config file: %w", err)
	}

	if err := config.LoadFromEnv(); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	config.MergeCommandLineFlags(flags)

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}
