package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for poketl.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "poketl",
		Short: "Extract Pokémon TCG Pocket tournament results",
		Long: `poketl walks the completed tournaments listed on play.limitlesstcg.com
and stores each one as <id>.json: metadata, players with their decklists,
and every completed match.

Tournaments whose document already exists are skipped, so running the crawl
again only fetches what is new.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")
	cmd.PersistentFlags().Bool("json-logs", false, "Write logs as JSON")
	cmd.PersistentFlags().StringP("config", "c", "",
		"Configuration file path (default: .poketl in current or home directory)")

	cmd.AddCommand(NewScrapeCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewShowCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
