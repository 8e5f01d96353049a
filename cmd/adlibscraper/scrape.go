package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"adlibscraper/pkg/auth"
	"adlibscraper/pkg/config"
	"adlibscraper/pkg/logger"
	"adlibscraper/pkg/scraper"
	"adlibscraper/pkg/ui"
)

var (
	// Scrape command flags
	maxResults     int
	requestDelay   time.Duration
	pageLimit      int
	resultsFile    string
	assetsDir      string
	downloadAssets bool
	assetsPerItem  int
	cookieFile     string
	proxies        []string
	sessionName    string
)

// scrapeCmd represents the scrape command
var scrapeCmd = &cobra.Command{
	Use:   "scrape <advertiser>",
	Short: "Scrape an advertiser's ad library listing",
	Long: `Walk an advertiser's public ad library listing page by page, extract
the details of every ad found, and optionally download the creatives.

This command requires valid session cookies configured through:
  - Stored sessions (use 'adlibscraper auth login' to store)
  - A browser-exported cookie file (--cookie-file)
  - Environment variables (ADLIB_LI_AT and ADLIB_JSESSIONID)

Results are written as a JSON array. Creatives land in a per-ad
directory tree under the assets directory.`,
	Example: `  # Scrape with default settings
  adlibscraper scrape "Acme Corp"

  # Collect up to 50 ads, metadata only
  adlibscraper scrape "Acme Corp" --max-results 50 --download-assets=false

  # Use a browser cookie export and a custom output location
  adlibscraper scrape "Acme Corp" --cookie-file cookies.json --results-file acme.json

  # Limit downloads to two assets per ad through rotating proxies
  adlibscraper scrape "Acme Corp" --assets-per-item 2 --proxies host1:8080,host2:8080`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		runScrape(cmd, args)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(scrapeCmd)

	scrapeCmd.Flags().IntVarP(&maxResults, "max-results", "n", 100, "maximum number of ads to collect")
	scrapeCmd.Flags().DurationVar(&requestDelay, "request-delay", 2*time.Second, "delay between successive requests")
	scrapeCmd.Flags().IntVar(&pageLimit, "page-limit", 100, "maximum number of listing pages to fetch")
	scrapeCmd.Flags().StringVarP(&resultsFile, "results-file", "o", "", "output file for the collected records")
	scrapeCmd.Flags().StringVar(&assetsDir, "assets-dir", "", "directory for downloaded creatives")
	scrapeCmd.Flags().BoolVar(&downloadAssets, "download-assets", true, "download ad creatives")
	scrapeCmd.Flags().IntVar(&assetsPerItem, "assets-per-item", 0, "max non-logo assets per ad (0 = all)")
	scrapeCmd.Flags().StringVar(&cookieFile, "cookie-file", "", "browser-exported cookie file")
	scrapeCmd.Flags().StringSliceVar(&proxies, "proxies", nil, "proxy addresses for round-robin rotation")
	scrapeCmd.Flags().StringVarP(&sessionName, "session", "s", "", "use a specific stored session")
}

func runScrape(cmd *cobra.Command, args []string) {
	advertiser := strings.TrimSpace(args[0])

	ui.PrintInfo("Target Advertiser", advertiser)

	// Build flags map from command line
	flags := make(map[string]interface{})
	if cmd.Flags().Changed("max-results") {
		flags["max-results"] = maxResults
	}
	if cmd.Flags().Changed("request-delay") {
		flags["request-delay"] = requestDelay
	}
	if cmd.Flags().Changed("page-limit") {
		flags["page-limit"] = pageLimit
	}
	if resultsFile != "" {
		flags["results-file"] = resultsFile
	}
	if assetsDir != "" {
		flags["assets-dir"] = assetsDir
	}
	if cmd.Flags().Changed("download-assets") {
		flags["download-assets"] = downloadAssets
	}
	if cmd.Flags().Changed("assets-per-item") {
		flags["assets-per-item"] = assetsPerItem
	}
	if cookieFile != "" {
		flags["cookie-file"] = cookieFile
	}
	if len(proxies) > 0 {
		flags["proxies"] = proxies
	}
	if logLevel != "info" {
		flags["log-level"] = logLevel
	}

	// Load configuration
	cfg, err := config.Load(configFile, flags)
	if err != nil {
		ui.PrintError("Failed to load configuration", err.Error())
		os.Exit(1)
	}

	// Initialize logger
	logger.Initialize(&cfg.Logging)
	logger.WithField("version", version).Info("Ad Library Scraper starting")

	// Handle session cookies
	sessionManager, err := auth.NewManager(cfg.AdLibrary.CookieFile)
	if err != nil {
		ui.PrintError("Failed to initialize session manager", err.Error())
		os.Exit(1)
	}

	var session *auth.Session

	if sessionName != "" {
		session, err = sessionManager.Retrieve(sessionName)
		if err != nil {
			ui.PrintError("Session not found", sessionName)
			ui.PrintInfo("Available sessions", "Use 'adlibscraper auth list' to see stored sessions")
			os.Exit(1)
		}
	} else if cfg.AdLibrary.LiAt != "" {
		// Cookies from config/env take priority over stored sessions
		logger.Info("Using session cookies from configuration")
	} else {
		session, err = sessionManager.RetrieveDefault()
		if err != nil {
			logger.Error("No session cookies found")
			ui.PrintError("No session cookies found", "")
			fmt.Println("\nTo store a session securely, run:")
			fmt.Println("  adlibscraper auth login")
			fmt.Println("\nYou can also set environment variables:")
			fmt.Println("  export ADLIB_LI_AT=your_li_at_cookie")
			fmt.Println("  export ADLIB_JSESSIONID=your_jsessionid_cookie")
			os.Exit(1)
		}
	}

	if session != nil {
		cfg.AdLibrary.LiAt = session.LiAt
		cfg.AdLibrary.JSessionID = session.JSessionID
		if session.UserAgent != "" {
			cfg.AdLibrary.UserAgent = session.UserAgent
		}
		logger.WithField("session", session.Name).Info("Using stored session")
		ui.PrintInfo("Using session", session.Name)
	}

	if cfg.AdLibrary.LiAt == "" {
		logger.Error("Missing li_at session cookie")
		ui.PrintError("Missing li_at session cookie", "Run 'adlibscraper auth login' to store a session")
		os.Exit(1)
	}

	logger.WithField("advertiser", advertiser).Info("Starting scrape operation")

	// Cancel the run cleanly on Ctrl-C; collected records still persist
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	ui.PrintHighlight("[STARTING LISTING WALK]")

	s, err := scraper.New(cfg, logger.GetLogger())
	if err != nil {
		ui.PrintError("Failed to initialize scraper", err.Error())
		os.Exit(1)
	}

	result, err := s.Run(ctx, advertiser)
	if err != nil {
		logger.WithError(err).WithField("advertiser", advertiser).Error("Scrape failed")
		ui.PrintError("SCRAPE FAILED", err.Error())
		os.Exit(1)
	}

	logger.WithField("advertiser", advertiser).Info("Scrape completed")
	ui.PrintSuccess("[SCRAPE COMPLETED]")
	ui.PrintInfo("Ads collected", fmt.Sprintf("%d of %d requested", result.Collected, result.Requested))
	ui.PrintInfo("Pages fetched", fmt.Sprintf("%d", result.PagesFetched))
	if result.DetailFailures > 0 {
		ui.PrintWarning("Detail failures", fmt.Sprintf("%d", result.DetailFailures))
	}
	ui.PrintInfo("Results file", cfg.Output.ResultsFile)
}

// Make scrape the default command when the first argument is not a
// known subcommand
func init() {
	origRunE := rootCmd.RunE
	rootCmd.RunE = func(cmd *cobra.Command, args []string) error {
		if origRunE != nil {
			return origRunE(cmd, args)
		}
		if len(args) > 0 && !isKnownCommand(args[0]) {
			return scrapeCmd.RunE(scrapeCmd, args)
		}
		return cmd.Help()
	}

	rootCmd.Args = cobra.ArbitraryArgs
}

func isKnownCommand(arg string) bool {
	for _, cmd := range rootCmd.Commands() {
		if cmd.Name() == arg || cmd.HasAlias(arg) {
			return true
		}
	}
	return false
}
