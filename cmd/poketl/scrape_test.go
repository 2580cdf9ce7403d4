package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Mvlo566/POKETL/internal/config"
	"github.com/Mvlo566/POKETL/internal/crawler"
)

func TestNewScrapeCmd(t *testing.T) {
	t.Parallel()

	cmd := NewScrapeCmd()
	if cmd.Use != "scrape" {
		t.Errorf("unexpected use %q", cmd.Use)
	}

	shorthands := map[string]string{
		"output-dir": "o",
		"max-pages":  "p",
		"timeout":    "t",
		"format":     "f",
		"report":     "r",
	}
	for name, short := range shorthands {
		flag := cmd.Flags().Lookup(name)
		if flag == nil {
			t.Errorf("expected %s flag", name)
			continue
		}
		if flag.Shorthand != short {
			t.Errorf("flag %s: expected shorthand %q, got %q", name, short, flag.Shorthand)
		}
	}
	for _, name := range []string{"db-dir", "no-ledger", "base-url", "max-connections", "max-inflight",
		"rate", "proxy", "no-prefetch", "isolate-layout-errors", "metrics-file"} {
		if cmd.Flags().Lookup(name) == nil {
			t.Errorf("expected %s flag", name)
		}
	}
}

// scrapeConfig parses args with the scrape command of a fresh root, so the
// global flags resolve, and returns the built configuration.
func scrapeConfig(t *testing.T, args ...string) (*config.Config, error) {
	t.Helper()

	cmd, _, err := NewRootCmd().Find([]string{"scrape"})
	if err != nil {
		t.Fatal(err)
	}
	if err := cmd.ParseFlags(args); err != nil {
		t.Fatal(err)
	}
	return buildConfig(cmd)
}

func TestBuildConfig(t *testing.T) {
	t.Parallel()

	t.Run("missing explicit config file", func(t *testing.T) {
		t.Parallel()

		cfg, err := scrapeConfig(t, "-p", "3", "--config", filepath.Join(t.TempDir(), "none"))
		if err == nil {
			t.Fatal("expected error for a missing explicit config file")
		}
		if !errors.Is(err, config.ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
		if cfg != nil {
			t.Error("expected nil config on error")
		}
	})

	t.Run("flags override the config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "poketl.yaml")
		content := "crawl:\n  max_pages: 9\n  max_inflight: 3\noutput:\n  dir: from-file\n"
		if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
			t.Fatal(err)
		}

		cfg, err := scrapeConfig(t, "--config", path, "-p", "2", "--rate", "1.5",
			"--timeout", "5s", "--no-prefetch", "--isolate-layout-errors", "-f", "json")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.MaxPages != 2 {
			t.Errorf("flag should win: MaxPages = %d", cfg.MaxPages)
		}
		if cfg.MaxInFlight != 3 || cfg.OutputDir != "from-file" {
			t.Errorf("file values lost: %+v", cfg)
		}
		if cfg.RequestsPerSecond != 1.5 || cfg.Timeout != 5*time.Second {
			t.Errorf("unexpected pacing: %v %v", cfg.RequestsPerSecond, cfg.Timeout)
		}
		if cfg.PrefetchStandings || !cfg.IsolateLayoutErrors {
			t.Error("boolean flags not applied")
		}
		if cfg.ReportFormat != "json" {
			t.Errorf("unexpected format %q", cfg.ReportFormat)
		}
	})
}

func TestRunScrape(t *testing.T) {
	t.Parallel()

	testConfig := func(t *testing.T, baseURL string) *config.Config {
		t.Helper()
		cfg := config.NewConfig()
		cfg.BaseURL = baseURL
		cfg.OutputDir = filepath.Join(t.TempDir(), "out")
		cfg.DBDir = t.TempDir()
		cfg.MaxInFlight = 4
		return cfg
	}
	discard := slog.New(slog.NewTextHandler(io.Discard, nil))

	t.Run("layout error aborts after the first document", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		cfg := testConfig(t, srv.URL)

		var out bytes.Buffer
		err := runScrape(context.Background(), cfg, discard, &out)
		var layoutErr *crawler.LayoutError
		if !errors.As(err, &layoutErr) {
			t.Fatalf("expected LayoutError, got %v", err)
		}
		if layoutErr.TournamentID != "cup2" {
			t.Errorf("unexpected tournament %q", layoutErr.TournamentID)
		}

		if _, err := os.Stat(filepath.Join(cfg.OutputDir, "cup1.json")); err != nil {
			t.Errorf("cup1 should be written: %v", err)
		}
		if _, err := os.Stat(filepath.Join(cfg.OutputDir, "cup2.json")); !os.IsNotExist(err) {
			t.Errorf("cup2 must not be written, stat err = %v", err)
		}

		got := out.String()
		for _, want := range []string{
			"extracting completed tournaments page 1",
			"extracting tournament cup1... 1 players, 1 decklists, 1 matches",
			"POKETL RUN REPORT",
			"Failed:",
		} {
			if !strings.Contains(got, want) {
				t.Errorf("expected %q in output:\n%s", want, got)
			}
		}
	})

	t.Run("isolated layout errors finish the run", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		cfg := testConfig(t, srv.URL)
		cfg.IsolateLayoutErrors = true
		cfg.ReportFormat = config.ReportJSON
		cfg.ReportFile = filepath.Join(t.TempDir(), "reports", "run.json")
		cfg.MetricsFile = filepath.Join(t.TempDir(), "poketl.prom")

		var out bytes.Buffer
		if err := runScrape(context.Background(), cfg, discard, &out); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		data, err := os.ReadFile(cfg.ReportFile)
		if err != nil {
			t.Fatalf("report not written: %v", err)
		}
		if !strings.Contains(string(data), `"failed_layout": 1`) {
			t.Errorf("expected failed layout count in report:\n%s", data)
		}
		if strings.Contains(string(data), "POKETL RUN REPORT") {
			t.Errorf("text summary leaked into the JSON report:\n%s", data)
		}
		if !strings.Contains(out.String(), "POKETL RUN REPORT") {
			t.Errorf("expected text summary on stdout:\n%s", out.String())
		}

		prom, err := os.ReadFile(cfg.MetricsFile)
		if err != nil {
			t.Fatalf("metrics not written: %v", err)
		}
		if !strings.Contains(string(prom), "poketl_") {
			t.Errorf("expected poketl metrics:\n%s", prom)
		}
	})

	t.Run("without ledger", func(t *testing.T) {
		t.Parallel()

		srv := newTestSite(t)
		cfg := testConfig(t, srv.URL)
		cfg.NoLedger = true
		cfg.DBDir = filepath.Join(t.TempDir(), "unused")
		cfg.IsolateLayoutErrors = true

		if err := runScrape(context.Background(), cfg, discard, io.Discard); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if _, err := os.Stat(cfg.DBDir); !os.IsNotExist(err) {
			t.Errorf("ledger directory should not be created, stat err = %v", err)
		}
	})
}
