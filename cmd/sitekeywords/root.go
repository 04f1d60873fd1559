package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for sitekeywords.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sitekeywords",
		Short: "Rank the keywords of a website",
		Long: `sitekeywords crawls one website breadth-first, starting from a seed URL and
staying on the seed's host, until a page budget is spent. It extracts the
most characteristic phrases of every page with a statistical keyword
extractor and ranks them by the number of pages they were found on.

The ranking is written as CSV (default), JSON or Markdown, and every run is
kept in a local history database for later comparison.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewHistoryCmd())
	cmd.AddCommand(NewCompareCmd())
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
