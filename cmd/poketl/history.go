package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Mvlo566/POKETL/internal/database"
	"github.com/Mvlo566/POKETL/internal/model"
	"github.com/Mvlo566/POKETL/internal/report"
)

// ErrRunNotFound is returned when --run names an unknown run.
var ErrRunNotFound = errors.New("run not found")

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show past crawls recorded in the ledger",
		Long: `History reads the crawl ledger written by scrape.

Without flags it lists the most recent runs. --run shows the tournaments
processed by one run, --tournament shows every run that touched a
tournament.

Examples:
  poketl history
  poketl history --run 12 -f markdown
  poketl history --tournament 67a1b2c3d4e5f6a7b8c9d0e1`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().String("db-dir", "", "Directory of the crawl ledger (default: XDG data dir)")
	cmd.Flags().IntP("limit", "n", 20, "Number of runs to list (0 lists all)")
	cmd.Flags().Int64("run", 0, "Show the tournaments of this run")
	cmd.Flags().String("tournament", "", "Show the outcomes recorded for this tournament")
	cmd.Flags().StringP("format", "f", report.FormatText, "Output format: text, markdown or json")
	cmd.MarkFlagsMutuallyExclusive("run", "tournament")

	return cmd
}

func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db-dir") {
		if cfg.DBDir, err = flags.GetString("db-dir"); err != nil {
			return err
		}
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	runID, err := flags.GetInt64("run")
	if err != nil {
		return err
	}
	tournamentID, err := flags.GetString("tournament")
	if err != nil {
		return err
	}
	format, err := flags.GetString("format")
	if err != nil {
		return err
	}

	opts := database.DefaultOptions()
	opts.CreateIfNotExists = false
	ledger, err := database.Open(cfg.DBDir, opts)
	if err != nil {
		return err
	}
	defer ledger.Close()

	out := cmd.OutOrStdout()
	ctx := cmd.Context()

	switch {
	case runID > 0:
		return showRun(ctx, ledger, runID, format, out)
	case tournamentID != "":
		return showTournamentHistory(ctx, ledger, tournamentID, out)
	default:
		runs, err := ledger.ListRuns(ctx, limit)
		if err != nil {
			return err
		}
		w, err := report.NewWriter(format, out)
		if err != nil {
			return err
		}
		_, err = w.WriteHistory(runs)
		return err
	}
}

func showRun(ctx context.Context, ledger *database.Ledger, id int64, format string, out io.Writer) error {
	run, err := ledger.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("%w: %d", ErrRunNotFound, id)
	}
	outcomes, err := ledger.RunOutcomes(ctx, id)
	if err != nil {
		return err
	}

	w, err := report.NewWriter(format, out)
	if err != nil {
		return err
	}
	_, err = w.WriteRun(runSummary(run, outcomes))
	return err
}

// runSummary rebuilds the summary of a recorded run.
func runSummary(run *database.RunRecord, outcomes []model.TournamentOutcome) *model.RunSummary {
	summary := model.NewRunSummary(run.FirstURL, run.StartedAt)
	summary.FinishedAt = run.FinishedAt
	summary.Pages = run.Pages
	summary.Error = run.Error
	for _, o := range outcomes {
		summary.Add(o)
	}
	return summary
}

func showTournamentHistory(ctx context.Context, ledger *database.Ledger, id string, out io.Writer) error {
	outcomes, err := ledger.TournamentHistory(ctx, id)
	if err != nil {
		return err
	}
	if len(outcomes) == 0 {
		fmt.Fprintf(out, "No outcome recorded for tournament %s.\n", id)
		return nil
	}

	fmt.Fprintf(out, "Tournament %s\n", id)
	for _, o := range outcomes {
		fmt.Fprintf(out, "  %s  %-16s %d players, %d decklists, %d matches",
			o.Timestamp.Format("2006-01-02 15:04:05"), o.Outcome, o.Players, o.Decklists, o.Matches)
		if o.Digest != "" {
			fmt.Fprintf(out, "  sha3:%.12s", o.Digest)
		}
		if o.Error != "" {
			fmt.Fprintf(out, "  %s", o.Error)
		}
		fmt.Fprintln(out)
	}
	return nil
}
