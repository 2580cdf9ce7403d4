package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	t.Parallel()

	cmd := NewRootCmd()
	if cmd.Use != "poketl" {
		t.Errorf("expected use 'poketl', got %q", cmd.Use)
	}
	if cmd.Version == "" {
		t.Error("expected non-empty version")
	}

	verbose := cmd.PersistentFlags().Lookup("verbose")
	if verbose == nil || verbose.Shorthand != "v" || verbose.DefValue != "false" {
		t.Errorf("unexpected verbose flag: %+v", verbose)
	}
	if cfg := cmd.PersistentFlags().Lookup("config"); cfg == nil || cfg.Shorthand != "c" {
		t.Errorf("unexpected config flag: %+v", cfg)
	}
	if cmd.PersistentFlags().Lookup("json-logs") == nil {
		t.Error("expected json-logs flag")
	}

	names := make(map[string]bool)
	for _, sub := range cmd.Commands() {
		names[sub.Name()] = true
	}
	for _, want := range []string{"scrape", "history", "show", "init", "version"} {
		if !names[want] {
			t.Errorf("expected %s subcommand", want)
		}
	}
}

// execute runs the CLI with args and returns its stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// TestCLIEndToEnd scrapes the test site, then reads the results back with
// history and show.
func TestCLIEndToEnd(t *testing.T) {
	t.Parallel()

	srv := newTestSite(t)
	outDir := filepath.Join(t.TempDir(), "out")
	dbDir := t.TempDir()

	cfgPath := filepath.Join(t.TempDir(), "poketl.yaml")
	content := "site:\n  base_url: " + srv.URL + "\ncrawl:\n  isolate_layout_errors: true\n"
	if err := os.WriteFile(cfgPath, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	out, err := execute(t, "scrape", "-c", cfgPath, "-o", outDir, "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("scrape failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "skipping because of an unrecognized pairings layout") {
		t.Errorf("expected isolated layout error in progress:\n%s", out)
	}

	out, err = execute(t, "scrape", "-c", cfgPath, "-o", outDir, "--db-dir", dbDir)
	if err != nil {
		t.Fatalf("second scrape failed: %v\n%s", err, out)
	}
	if !strings.Contains(out, "extracting tournament cup1... skipping because tournament is already in output") {
		t.Errorf("second run should skip cup1:\n%s", out)
	}

	t.Run("history lists both runs", func(t *testing.T) {
		out, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir)
		if err != nil {
			t.Fatalf("history failed: %v", err)
		}
		if !strings.Contains(out, "POKETL CRAWL HISTORY") || strings.Count(out, "Complete") != 2 {
			t.Errorf("unexpected history:\n%s", out)
		}
	})

	t.Run("history of one run", func(t *testing.T) {
		out, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "--run", "1")
		if err != nil {
			t.Fatalf("history --run failed: %v", err)
		}
		if !strings.Contains(out, "cup1") || !strings.Contains(out, "Failed Layout") {
			t.Errorf("unexpected run report:\n%s", out)
		}
	})

	t.Run("history of unknown run", func(t *testing.T) {
		if _, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "--run", "99"); err == nil {
			t.Error("expected error for unknown run")
		}
	})

	t.Run("history of one tournament", func(t *testing.T) {
		out, err := execute(t, "history", "-c", cfgPath, "--db-dir", dbDir, "--tournament", "cup1")
		if err != nil {
			t.Fatalf("history --tournament failed: %v", err)
		}
		if !strings.Contains(out, "written") || !strings.Contains(out, "skipped_existing") {
			t.Errorf("unexpected tournament history:\n%s", out)
		}
		if !strings.Contains(out, "sha3:") {
			t.Errorf("expected digest:\n%s", out)
		}
	})

	t.Run("show", func(t *testing.T) {
		out, err := execute(t, "show", "cup1", "-c", cfgPath, "-o", outDir)
		if err != nil {
			t.Fatalf("show failed: %v", err)
		}
		if !strings.Contains(out, "Cup cup1") || !strings.Contains(out, "Ash") {
			t.Errorf("unexpected show output:\n%s", out)
		}
	})

	t.Run("show missing", func(t *testing.T) {
		if _, err := execute(t, "show", "cup2", "-c", cfgPath, "-o", outDir); err == nil {
			t.Error("expected error for a tournament without document")
		}
	})

	t.Run("show rejects paths", func(t *testing.T) {
		if _, err := execute(t, "show", "../cup1", "-c", cfgPath, "-o", outDir); err == nil {
			t.Error("expected error for a path-like id")
		}
	})
}

func TestHistoryWithoutLedger(t *testing.T) {
	t.Parallel()

	cfgPath := filepath.Join(t.TempDir(), "poketl.yaml")
	if err := os.WriteFile(cfgPath, []byte("{}\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := execute(t, "history", "-c", cfgPath, "--db-dir", t.TempDir()); err == nil {
		t.Error("expected error when no ledger exists")
	}
}
