package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/tooldex/tooldex/internal/ai"
	"github.com/tooldex/tooldex/internal/browse"
	"github.com/tooldex/tooldex/internal/config"
	"github.com/tooldex/tooldex/internal/crawl"
	"github.com/tooldex/tooldex/internal/fetch"
	"github.com/tooldex/tooldex/internal/observability"
	"github.com/tooldex/tooldex/internal/storage"
)

var (
	cfgFile        string
	verbose        bool
	listingURL     string
	outputPath     string
	csvPath        string
	checkpointPath string
	testMode       bool
	testLimit      int
	maxTools       int
	maxPages       int
	headless       bool
	withMongo      bool
)

func main() {
	// .env files feed the TOOLDEX_* environment overrides; the local file
	// wins because godotenv never overwrites variables already set.
	godotenv.Load(".env.local")
	godotenv.Load(".env")

	rootCmd := &cobra.Command{
		Use:   "tooldex",
		Short: "Tooldex — AI tool directory scraper",
		Long: `Tooldex builds a clean catalog of AI tools from a directory site.

Features:
  • Headless-browser rendering with stealth patches and load-more expansion
  • Per-field CSS extraction with XPath and text-section fallbacks
  • Weighted keyword classification with optional LLM fallback
  • Checkpoint-based pause/resume and per-tool retry with backoff
  • Logo discovery across page assets and the tool's own site
  • JSON, CSV, and MongoDB output
  • Prometheus metrics endpoint`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(crawlCmd())
	rootCmd.AddCommand(convertCmd())
	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(configCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// crawlCmd creates the "crawl" subcommand.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Scrape the configured tool directory",
		Long: `Scrape the configured directory site end to end: expand the listing,
render each tool page, and write assembled records to the output sinks.
An interrupted run leaves a checkpoint and resumes on the next invocation.`,
		RunE: runCrawl,
	}

	cmd.Flags().StringVar(&listingURL, "listing", "", "listing URL to crawl (default from config)")
	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "JSON output path (default from config)")
	cmd.Flags().StringVar(&csvPath, "csv", "", "also export records as CSV to this path")
	cmd.Flags().StringVar(&checkpointPath, "checkpoint", "", "checkpoint file path")
	cmd.Flags().BoolVarP(&testMode, "test", "t", false, "test mode: two listing pages, limited tools")
	cmd.Flags().IntVar(&testLimit, "limit", 0, "tool cap in test mode (default 10)")
	cmd.Flags().IntVar(&maxTools, "max-tools", 0, "stop after this many new tools (0 = unlimited)")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "load-more expansion cap (0 = unlimited)")
	cmd.Flags().BoolVar(&headless, "headless", true, "run the browser headless")
	cmd.Flags().BoolVar(&withMongo, "mongo", false, "also write records to MongoDB")

	return cmd
}

// runCrawl executes the crawl command.
func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyCLIOverrides(cmd, cfg)
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	logger := setupLogger(cfg)
	logger.Info("starting crawl",
		"listing", cfg.Site.ListingURL,
		"output", cfg.Storage.OutputPath,
		"checkpoint", cfg.Crawl.CheckpointPath,
		"test_mode", cfg.Crawl.TestMode,
	)

	crawler := crawl.New(cfg, logger)

	browser, err := browse.New(cfg.Browser, logger)
	if err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer browser.Close()
	crawler.SetRenderer(browser)

	client := fetch.New(cfg.Fetch, logger)
	defer client.Close()
	crawler.SetSiteFetcher(client)

	if model := ai.NewFromConfig(cfg.AI, logger); model != nil {
		crawler.SetModel(model)
		logger.Info("LLM fallback enabled", "provider", cfg.AI.Provider, "model", cfg.AI.Model)
	}

	primary, err := storage.NewJSONWriter(cfg.Storage.OutputPath, logger)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	crawler.SetPrimarySink(primary)

	var closers []storage.Sink
	if cfg.Storage.CSVPath != "" {
		cw, err := storage.NewCSVWriter(cfg.Storage.CSVPath, logger)
		if err != nil {
			return fmt.Errorf("create csv output: %w", err)
		}
		crawler.AddSink(cw)
	}
	if cfg.Storage.Mongo.Enabled {
		ms, err := storage.NewMongoSink(cfg.Storage.Mongo, logger)
		if err != nil {
			return fmt.Errorf("connect mongodb: %w", err)
		}
		closers = append(closers, ms)
		crawler.AddSink(ms)
	}
	defer func() {
		for _, s := range closers {
			if err := s.Close(); err != nil {
				logger.Warn("sink close failed", "sink", s.Name(), "error", err)
			}
		}
	}()

	if cfg.Metrics.Enabled {
		metrics := observability.NewMetrics(logger)
		if err := metrics.StartServer(cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
			logger.Warn("failed to start metrics server", "error", err)
		}
		crawler.SetMetrics(metrics)
	}

	// Handle graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down...", "signal", sig)
		cancel()
	}()

	start := time.Now()
	stats, err := crawler.Run(ctx)
	elapsed := time.Since(start)

	if errors.Is(err, crawl.ErrStopped) {
		fmt.Printf("\n⏸  Crawl interrupted after %s\n", elapsed.Round(time.Millisecond))
		fmt.Printf("   Tools:      %d new scraped, %d failed\n", stats.Scraped, stats.Failed)
		fmt.Printf("   Checkpoint: %s\n", cfg.Crawl.CheckpointPath)
		fmt.Println("   Rerun the same command to resume.")
		return nil
	}
	if err != nil {
		return fmt.Errorf("crawl: %w", err)
	}

	fmt.Printf("\n✅ Crawl complete in %s\n", elapsed.Round(time.Millisecond))
	fmt.Printf("   Tools:   %d total (%d new, %d resumed, %d failed, %d retries)\n",
		stats.Total, stats.Scraped, stats.Skipped, stats.Failed, stats.Retried)
	fmt.Printf("   Output:  %s\n", cfg.Storage.OutputPath)
	if cfg.Storage.CSVPath != "" {
		fmt.Printf("   CSV:     %s\n", cfg.Storage.CSVPath)
	}
	if cfg.Storage.Mongo.Enabled {
		fmt.Printf("   MongoDB: %s/%s\n", cfg.Storage.Mongo.Database, cfg.Storage.Mongo.Collection)
	}
	if len(stats.ByCategory) > 0 {
		fmt.Println("\n   Categories:")
		for _, name := range stats.Categories() {
			fmt.Printf("     %-30s %d\n", name, stats.ByCategory[name])
		}
	}

	return nil
}

// convertCmd creates the "convert" subcommand.
func convertCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "convert <tools.json> <tools.csv>",
		Short: "Convert a JSON record file to CSV",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger := setupLogger(cfg)
			if err := storage.Convert(args[0], args[1], logger); err != nil {
				return err
			}
			fmt.Printf("✅ Converted %s → %s\n", args[0], args[1])
			return nil
		},
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("Tooldex %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			fmt.Printf("Site:\n")
			fmt.Printf("  Base URL:          %s\n", cfg.Site.BaseURL)
			fmt.Printf("  Listing URL:       %s\n", cfg.Site.ListingURL)
			fmt.Printf("  Card Selector:     %s\n", cfg.Site.CardLink)
			fmt.Printf("  Load More:         %s\n", cfg.Site.LoadMore)
			fmt.Printf("\nCrawl:\n")
			fmt.Printf("  Checkpoint:        %s (every %d tools)\n", cfg.Crawl.CheckpointPath, cfg.Crawl.CheckpointEvery)
			fmt.Printf("  Tool Delay:        %s\n", cfg.Crawl.ToolDelay)
			fmt.Printf("  Max Retries:       %d\n", cfg.Crawl.MaxRetries)
			fmt.Printf("  Test Mode:         %v (limit %d)\n", cfg.Crawl.TestMode, cfg.Crawl.TestLimit)
			fmt.Printf("\nBrowser:\n")
			fmt.Printf("  Headless:          %v\n", cfg.Browser.Headless)
			fmt.Printf("  Stealth:           %v\n", cfg.Browser.Stealth)
			fmt.Printf("  Nav Timeout:       %s\n", cfg.Browser.NavTimeout)
			fmt.Printf("\nExtraction:\n")
			fmt.Printf("  Rules:             %d configured\n", len(cfg.Extract.Rules))
			fmt.Printf("  Min Keyword Score: %v\n", cfg.Classify.MinScore)
			fmt.Printf("\nAI Fallback:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.AI.Enabled)
			fmt.Printf("  Provider:          %s (%s)\n", cfg.AI.Provider, cfg.AI.Model)
			fmt.Printf("\nStorage:\n")
			fmt.Printf("  JSON Output:       %s\n", cfg.Storage.OutputPath)
			fmt.Printf("  CSV Output:        %s\n", cfg.Storage.CSVPath)
			fmt.Printf("  MongoDB:           %v\n", cfg.Storage.Mongo.Enabled)
			fmt.Printf("\nMetrics:\n")
			fmt.Printf("  Enabled:           %v\n", cfg.Metrics.Enabled)
			fmt.Printf("  Port:              %d\n", cfg.Metrics.Port)
			return nil
		},
	}
}

// setupLogger creates a structured logger from the logging section, with the
// --verbose flag forcing debug level.
func setupLogger(cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch cfg.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	out := os.Stderr
	if cfg.Logging.Output == "stdout" {
		out = os.Stdout
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}
	var handler slog.Handler
	if cfg.Logging.Format == "json" {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}
	return slog.New(handler)
}

// applyCLIOverrides applies command-line flag values to the config.
func applyCLIOverrides(cmd *cobra.Command, cfg *config.Config) {
	if listingURL != "" {
		cfg.Site.ListingURL = listingURL
	}
	if outputPath != "" {
		cfg.Storage.OutputPath = outputPath
	}
	if csvPath != "" {
		cfg.Storage.CSVPath = csvPath
	}
	if checkpointPath != "" {
		cfg.Crawl.CheckpointPath = checkpointPath
	}
	if testMode {
		cfg.Crawl.TestMode = true
	}
	if testLimit > 0 {
		cfg.Crawl.TestLimit = testLimit
	}
	if maxTools > 0 {
		cfg.Crawl.MaxTools = maxTools
	}
	if maxPages > 0 {
		cfg.Crawl.MaxPages = maxPages
	}
	if cmd.Flags().Changed("headless") {
		cfg.Browser.Headless = headless
	}
	if cmd.Flags().Changed("mongo") {
		cfg.Storage.Mongo.Enabled = withMongo
	}
}
