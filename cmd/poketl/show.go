package main

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/spf13/cobra"

	"github.com/Mvlo566/POKETL/internal/model"
	"github.com/Mvlo566/POKETL/internal/report"
	"github.com/Mvlo566/POKETL/internal/store"
)

// NewShowCmd creates the show command.
func NewShowCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "show <tournament-id>",
		Short: "Print a stored tournament document",
		Long: `Show loads <tournament-id>.json from the output directory, checks it
and prints its metadata, standings and decklists.

Examples:
  poketl show 67a1b2c3d4e5f6a7b8c9d0e1 -o ./sample_output
  poketl show 67a1b2c3d4e5f6a7b8c9d0e1 -f markdown`,
		Args: cobra.ExactArgs(1),
		RunE: runShowCmd,
	}

	cmd.Flags().StringP("output-dir", "o", "", "Directory holding the documents (default: XDG data dir)")
	cmd.Flags().StringP("format", "f", report.FormatText, "Output format: text, markdown or json")

	return cmd
}

func runShowCmd(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("output-dir") {
		if cfg.OutputDir, err = cmd.Flags().GetString("output-dir"); err != nil {
			return err
		}
	}
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}

	if err := (model.TournamentSummary{ID: args[0]}).Validate(); err != nil {
		return err
	}

	w, err := report.NewWriter(format, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	t, err := store.New(cfg.OutputDir).Load(args[0])
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("no document for tournament %s in %s", args[0], cfg.OutputDir)
	}
	if err != nil {
		return err
	}

	_, err = w.WriteTournament(t)
	return err
}
