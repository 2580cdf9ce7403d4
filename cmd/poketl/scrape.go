package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Mvlo566/POKETL/internal/config"
	"github.com/Mvlo566/POKETL/internal/crawler"
	"github.com/Mvlo566/POKETL/internal/database"
	"github.com/Mvlo566/POKETL/internal/fetch"
	"github.com/Mvlo566/POKETL/internal/log"
	"github.com/Mvlo566/POKETL/internal/metrics"
	"github.com/Mvlo566/POKETL/internal/model"
	"github.com/Mvlo566/POKETL/internal/pipeline"
	"github.com/Mvlo566/POKETL/internal/report"
	"github.com/Mvlo566/POKETL/internal/store"
)

// NewScrapeCmd creates the scrape command.
func NewScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Crawl completed tournaments and write one JSON document each",
		Long: `Scrape walks the completed tournaments listing page by page. For every
tournament without a document in the output directory it fetches the
standings, each player's decklist and all pairings pages, then writes
<id>.json. Existing documents are never fetched again or rewritten.

A pairings page with an unknown layout stops the run unless
--isolate-layout-errors is set.

Examples:
  # Crawl into ./sample_output
  poketl scrape -o ./sample_output

  # Only the first two list pages, Markdown report to a file
  poketl scrape -p 2 -f markdown -r report.md

  # Slow down and export Prometheus metrics
  poketl scrape --rate 5 --metrics-file poketl.prom

Configuration file (.poketl) example:
  site:
    cookie: "session=abc123"
  listing:
    format: NOEX
  crawl:
    max_inflight: 20`,
		Args: cobra.NoArgs,
		RunE: runScrapeCmd,
	}

	cmd.Flags().StringP("output-dir", "o", "",
		"Directory receiving <id>.json documents (default: XDG data dir)")
	cmd.Flags().String("db-dir", "", "Directory of the crawl ledger (default: XDG data dir)")
	cmd.Flags().Bool("no-ledger", false, "Do not record the run in the crawl ledger")
	cmd.Flags().String("base-url", config.DefaultBaseURL, "Site to crawl")
	cmd.Flags().IntP("max-pages", "p", 0, "Stop after this many list pages (0 walks all)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout, "Timeout for each request")
	cmd.Flags().Int("max-connections", config.DefaultMaxConnections, "Maximum concurrent connections")
	cmd.Flags().Int("max-inflight", config.DefaultMaxInFlight, "Maximum concurrent fetches")
	cmd.Flags().Float64("rate", 0, "Maximum requests per second (0 disables pacing)")
	cmd.Flags().String("proxy", "", "SOCKS5 proxy address (host:port)")
	cmd.Flags().Bool("no-prefetch", false, "Do not prefetch the standings of a list page")
	cmd.Flags().Bool("isolate-layout-errors", false,
		"Record tournaments with an unknown pairings layout as failed and continue")
	cmd.Flags().StringP("format", "f", config.DefaultReportFormat, "Report format: text, markdown or json")
	cmd.Flags().StringP("report", "r", "", "Also write the report to this file; stdout keeps the text summary")
	cmd.Flags().String("metrics-file", "", "Write Prometheus metrics to this file at the end of the run")

	return cmd
}

func runScrapeCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := buildConfig(cmd)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runScrape(ctx, cfg, logger, cmd.OutOrStdout())
}

// loadConfig reads the configuration file named by --config, or the first
// .poketl found, and applies the global flags.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}
	cfg, _, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	if cfg.Verbose, err = cmd.Flags().GetBool("verbose"); err != nil {
		return nil, err
	}
	if cfg.JSONLogs, err = cmd.Flags().GetBool("json-logs"); err != nil {
		return nil, err
	}
	return cfg, nil
}

// buildConfig layers the scrape flags that were set explicitly over the
// configuration file, which is layered over the defaults.
func buildConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, err
	}

	flags := cmd.Flags()
	var errs []error
	str := func(name string, dst *string) {
		if flags.Changed(name) {
			v, err := flags.GetString(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	integer := func(name string, dst *int) {
		if flags.Changed(name) {
			v, err := flags.GetInt(name)
			errs = append(errs, err)
			*dst = v
		}
	}
	boolean := func(name string, dst *bool, invert bool) {
		if flags.Changed(name) {
			v, err := flags.GetBool(name)
			errs = append(errs, err)
			*dst = v != invert
		}
	}

	str("output-dir", &cfg.OutputDir)
	str("db-dir", &cfg.DBDir)
	boolean("no-ledger", &cfg.NoLedger, false)
	str("base-url", &cfg.BaseURL)
	integer("max-pages", &cfg.MaxPages)
	integer("max-connections", &cfg.MaxConnections)
	integer("max-inflight", &cfg.MaxInFlight)
	str("proxy", &cfg.SOCKS5Proxy)
	boolean("no-prefetch", &cfg.PrefetchStandings, true)
	boolean("isolate-layout-errors", &cfg.IsolateLayoutErrors, false)
	str("format", &cfg.ReportFormat)
	str("report", &cfg.ReportFile)
	str("metrics-file", &cfg.MetricsFile)

	if flags.Changed("timeout") {
		v, err := flags.GetDuration("timeout")
		errs = append(errs, err)
		cfg.Timeout = v
	}
	if flags.Changed("rate") {
		v, err := flags.GetFloat64("rate")
		errs = append(errs, err)
		cfg.RequestsPerSecond = v
	}

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// setupLogger writes logs to stderr so that progress lines and reports on
// stdout stay clean.
func setupLogger(cfg *config.Config) *slog.Logger {
	return log.NewLogger(os.Stderr, cfg.Verbose, cfg.JSONLogs)
}

// runScrape wires the crawl and prints progress to out.
func runScrape(ctx context.Context, cfg *config.Config, logger *slog.Logger, out io.Writer) error {
	collector := metrics.New()

	fetcher, err := fetch.New(cfg.FetchOptions(),
		fetch.WithLogger(logger),
		fetch.WithMetrics(collector),
	)
	if err != nil {
		return err
	}

	cardURL, err := regexp.Compile(cfg.CardURLPattern)
	if err != nil {
		return fmt.Errorf("%w: %w", config.ErrInvalidCardURLPattern, err)
	}

	docs := store.New(cfg.OutputDir, store.WithLogger(logger))

	opts := []pipeline.OrchestratorOption{
		pipeline.WithOrchestratorLogger(logger),
		pipeline.WithOrchestratorMetrics(collector),
		pipeline.WithProgress(out),
		pipeline.WithPrefetchStandings(cfg.PrefetchStandings),
		pipeline.WithIsolateLayoutErrors(cfg.IsolateLayoutErrors),
		pipeline.WithWalker(crawler.NewWalker(fetcher,
			crawler.WithMaxPages(cfg.MaxPages),
			crawler.WithWalkerLogger(logger),
			crawler.WithWalkerMetrics(collector),
		)),
		pipeline.WithStandingsExtractor(crawler.NewStandingsExtractor(fetcher,
			crawler.WithStandingsLogger(logger),
			crawler.WithDecklistParser(crawler.NewDecklistParser(
				crawler.WithCardURLPattern(cardURL),
				crawler.WithDecklistLogger(logger),
				crawler.WithDecklistMetrics(collector),
			)),
		)),
	}

	if !cfg.NoLedger {
		ledger, err := database.Open(cfg.DBDir, database.DefaultOptions())
		if err != nil {
			return fmt.Errorf("failed to open ledger: %w", err)
		}
		defer ledger.Close()
		logger.Debug("ledger opened", "path", ledger.Path())
		opts = append(opts, pipeline.WithLedger(ledger))
	}

	logger.Info("starting crawl",
		"base_url", cfg.BaseURL,
		"listing", cfg.FirstURL(),
		"output", cfg.OutputDir,
		"max_pages", cfg.MaxPages,
		"max_inflight", cfg.MaxInFlight,
	)

	summary, runErr := pipeline.NewOrchestrator(fetcher, docs, opts...).Run(ctx, cfg.FirstURL())

	if err := writeRunReport(cfg, summary, out); err != nil {
		logger.Error("failed to write report", "error", err)
	}
	if cfg.MetricsFile != "" {
		if err := collector.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Error("failed to write metrics", "path", cfg.MetricsFile, "error", err)
		}
	}

	if runErr != nil {
		return fmt.Errorf("crawl failed: %w", runErr)
	}
	return nil
}

// writeRunReport prints the report to stdout. With a report file, the file
// gets the configured format and stdout keeps the text summary.
func writeRunReport(cfg *config.Config, summary *model.RunSummary, stdout io.Writer) error {
	if cfg.ReportFile == "" {
		rw, err := report.NewWriter(cfg.ReportFormat, stdout)
		if err != nil {
			return err
		}
		_, err = rw.WriteRun(summary)
		return err
	}

	return withReportFile(cfg.ReportFile, func(f io.Writer) error {
		rw, err := report.NewWriter(cfg.ReportFormat, f)
		if err != nil {
			return err
		}
		_, err = report.NewMultiWriter(report.NewTextWriter(stdout), rw).WriteRun(summary)
		return err
	})
}

// withReportFile calls fn with the report file, created with owner-only
// permissions.
func withReportFile(path string, fn func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create report directory: %w", err)
		}
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600) //nolint:gosec // user-chosen report path
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
