package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"adlibscraper/pkg/config"
	"adlibscraper/pkg/ui"
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration files",
	Long: `Manage Ad Library Scraper configuration files.

Configuration can be loaded from:
  - Command line flags (highest priority)
  - Environment variables (ADLIB_*)
  - Configuration file
  - Default values (lowest priority)`,
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create an example configuration file",
	Long: `Create an example configuration file with all available options.

The file will be created in the current directory as 'adlibscraper.yaml'
unless a different path is specified with the --config flag.`,
	Run: runConfigInit,
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long: `Show the current configuration including values from all sources.

Sensitive values like session cookies will be masked for security.`,
	Run: runConfigShow,
}

// configValidateCmd represents the config validate command
var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration file",
	Long: `Validate a configuration file for syntax errors and invalid values.

This command checks:
  - YAML syntax
  - Required fields
  - Value types and ranges
  - Path accessibility`,
	Run: runConfigValidate,
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configValidateCmd)
}

func runConfigInit(cmd *cobra.Command, args []string) {
	configPath := configFile
	if configPath == "" {
		configPath = "adlibscraper.yaml"
	}

	if _, err := os.Stat(configPath); err == nil {
		ui.PrintError("Configuration file already exists", configPath)
		fmt.Println("\nTo overwrite, first remove the existing file:")
		fmt.Printf("  rm %s\n", configPath)
		os.Exit(1)
	}

	exampleConfig := `# Ad Library Scraper Configuration File
#
# This file contains all available configuration options.
# You can also use environment variables prefixed with ADLIB_
# For example: ADLIB_LI_AT, ADLIB_JSESSIONID

# Session cookies for the ad library endpoints
ad_library:
  # li_at cookie from your browser (required unless stored via auth login)
  li_at: ""

  # JSESSIONID cookie, quoted ajax: token
  # The csrf-token header is derived from this value
  jsessionid: ""

  # Path to a browser-exported cookie file (optional)
  cookie_file: "linkedin_cookies.json"

  # User agent string (optional, leave empty for default)
  user_agent: ""

  # Proxy addresses rotated round-robin across requests
  proxies: []

# Scrape behaviour
scrape:
  # Maximum number of ads to collect
  max_results: 100

  # Delay between successive requests
  request_delay: 2s

  # Maximum number of listing pages to fetch
  page_limit: 100

  # Persist an intermediate snapshot every N records
  save_batch_size: 10

  # Write intermediate snapshots to a separate file
  save_intermediate: false

# Rate limiting configuration
rate_limit:
  # Requests per minute for asset downloads
  requests_per_minute: 30

  # Burst size
  burst_size: 5

# Retry configuration
retry:
  enabled: true
  max_attempts: 3
  base_delay: 5s
  max_delay: 60s

# Output settings
output:
  # File for the collected ad records
  results_file: "ad_details.json"

  # File for intermediate snapshots
  intermediate_file: "ad_listing.json"

  # Directory for downloaded creatives
  assets_directory: "downloaded_assets"

# Asset download settings
download:
  # Download ad creatives alongside the metadata
  enabled: true

  # Timeout for a single asset download
  download_timeout: 30s

  # Timeout for listing and detail requests
  request_timeout: 15s

  # Max non-logo assets per ad, 0 means all
  assets_per_item: 0

# Logging configuration
logging:
  # Log level: debug, info, warn, error
  level: "info"

  # Log file path (optional, empty logs to stderr only)
  file: ""
`

	if err := os.WriteFile(configPath, []byte(exampleConfig), 0644); err != nil {
		ui.PrintError("Failed to create configuration file", err.Error())
		os.Exit(1)
	}

	ui.PrintSuccess("Configuration file created: " + configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("1. Store your session cookies with 'adlibscraper auth login'")
	fmt.Println("2. Run 'adlibscraper config validate' to check the configuration")
	fmt.Println("3. Start scraping with 'adlibscraper scrape <advertiser>'")
}

func runConfigShow(cmd *cobra.Command, args []string) {
	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Create a sanitized copy for display
	displayCfg := *cfg
	displayCfg.AdLibrary.LiAt = maskValue(displayCfg.AdLibrary.LiAt)
	displayCfg.AdLibrary.JSessionID = maskValue(displayCfg.AdLibrary.JSessionID)
	displayCfg.AdLibrary.CSRFToken = maskValue(displayCfg.AdLibrary.CSRFToken)

	data, err := yaml.Marshal(&displayCfg)
	if err != nil {
		ui.PrintError("Failed to format configuration", err.Error())
		os.Exit(1)
	}

	ui.PrintHighlight("Current Configuration")
	fmt.Println()
	fmt.Print(string(data))

	fmt.Println("\nConfiguration sources (in order of priority):")
	fmt.Println("1. Command line flags")
	fmt.Println("2. Environment variables (ADLIB_*)")
	if configFile != "" {
		fmt.Printf("3. Configuration file: %s\n", configFile)
	} else {
		fmt.Println("3. Configuration file: (not specified)")
	}
	fmt.Println("4. Default values")
}

func runConfigValidate(cmd *cobra.Command, args []string) {
	if configFile == "" {
		possiblePaths := []string{
			"adlibscraper.yaml",
			"adlibscraper.yml",
			".adlibscraper.yaml",
			".adlibscraper.yml",
			filepath.Join(os.Getenv("HOME"), ".adlibscraper.yaml"),
			filepath.Join(os.Getenv("HOME"), ".config", "adlibscraper", "config.yaml"),
		}

		for _, path := range possiblePaths {
			if _, err := os.Stat(path); err == nil {
				configFile = path
				break
			}
		}

		if configFile == "" {
			ui.PrintError("No configuration file found", "Specify a file with --config flag")
			os.Exit(1)
		}
	}

	ui.PrintInfo("Validating configuration", configFile)

	cfg, err := config.Load(configFile, nil)
	if err != nil {
		ui.PrintError("Configuration validation failed", err.Error())
		os.Exit(1)
	}

	warnings := []string{}
	errors := []string{}

	if cfg.AdLibrary.LiAt == "" {
		warnings = append(warnings, "li_at cookie not configured, a stored session will be required")
	}

	if cfg.Output.AssetsDirectory != "" {
		if err := os.MkdirAll(cfg.Output.AssetsDirectory, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create assets directory: %v", err))
		}
	}

	if cfg.Logging.File != "" {
		dir := filepath.Dir(cfg.Logging.File)
		if err := os.MkdirAll(dir, 0755); err != nil {
			errors = append(errors, fmt.Sprintf("Cannot create log directory: %v", err))
		}
	}

	if cfg.RateLimit.RequestsPerMinute < 1 || cfg.RateLimit.RequestsPerMinute > 120 {
		errors = append(errors, "requests_per_minute must be between 1 and 120")
	}
	if cfg.Retry.MaxAttempts < 0 || cfg.Retry.MaxAttempts > 10 {
		errors = append(errors, "max_attempts must be between 0 and 10")
	}

	if len(errors) > 0 {
		ui.PrintError("Configuration has errors:", "")
		for _, err := range errors {
			fmt.Printf("  - %s\n", err)
		}
		os.Exit(1)
	}

	if len(warnings) > 0 {
		ui.PrintWarning("Configuration warnings:", "")
		for _, warn := range warnings {
			fmt.Printf("  - %s\n", warn)
		}
		fmt.Println()
	}

	ui.PrintSuccess("Configuration is valid")

	fmt.Println("\nConfiguration summary:")
	fmt.Printf("  Results file: %s\n", cfg.Output.ResultsFile)
	fmt.Printf("  Assets directory: %s\n", cfg.Output.AssetsDirectory)
	fmt.Printf("  Max results: %d\n", cfg.Scrape.MaxResults)
	fmt.Printf("  Rate limit: %d requests/minute\n", cfg.RateLimit.RequestsPerMinute)
	fmt.Printf("  Max retries: %d\n", cfg.Retry.MaxAttempts)
	fmt.Printf("  Log level: %s\n", cfg.Logging.Level)
}

// maskValue hides the middle of a sensitive value for display
func maskValue(s string) string {
	if s == "" {
		return ""
	}
	if len(s) > 8 {
		return s[:4] + "..." + s[len(s)-4:]
	}
	return "***"
}
