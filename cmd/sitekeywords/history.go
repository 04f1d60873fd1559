package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeywords/internal/config"
	"github.com/nao1215/sitekeywords/internal/database"
	"github.com/nao1215/sitekeywords/internal/frontier"
	"github.com/nao1215/sitekeywords/internal/report"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [seed-url]",
		Short: "List stored crawl runs",
		Long: `History lists the crawl runs saved in the history database, newest first.

Every finished crawl is saved unless --no-history was given. With a seed URL
only the runs of that seed are listed. Use --show to print the full ranking
of one run.

Examples:
  # List all runs
  sitekeywords history

  # List runs of one site
  sitekeywords history https://example.com/

  # Print one run
  sitekeywords history --show 3f2b8c1e-5d4a-4f7b-9a61-0c2e8d9f1a2b`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("show", "s", "",
		"Print the report of the run with this ID")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	showID, err := cmd.Flags().GetString("show")
	if err != nil {
		return err
	}

	// Validate the seed before opening the database.
	var seed string
	if len(args) > 0 {
		seed, err = frontier.Normalize(args[0])
		if err != nil {
			return fmt.Errorf("invalid seed URL: %w", err)
		}
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	if showID != "" {
		return showRun(ctx, out, db, showID, getVerboseFlag(cmd))
	}
	return listRuns(ctx, out, db, seed)
}

// openHistory opens the history database selected by --db-dir.
func openHistory(cmd *cobra.Command) (*database.CrawlDB, error) {
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}

// listRuns prints the stored runs, optionally restricted to one seed.
func listRuns(ctx context.Context, out io.Writer, db *database.CrawlDB, seed string) error {
	runs, err := db.ListRuns(ctx, seed)
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		if seed != "" {
			fmt.Fprintf(out, "No crawl history found for %s\n", seed)
		} else {
			fmt.Fprintln(out, "No crawl history found.")
		}
		fmt.Fprintln(out, "\nUse 'sitekeywords crawl <seed-url>' to crawl a site.")
		return nil
	}

	fmt.Fprintf(out, "Crawl history (%d runs):\n\n", len(runs))
	fmt.Fprintf(out, "  %-36s  %-19s  %7s  %6s  %8s  %s\n", "ID", "Date", "Pages", "Failed", "Keywords", "Seed")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 100))

	for _, run := range runs {
		status := ""
		if run.Cancelled {
			status = " (interrupted)"
		}
		fmt.Fprintf(out, "  %-36s  %-19s  %7s  %6d  %8d  %s%s\n",
			run.ID,
			run.StartedAt.Local().Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d/%d", run.PagesVisited, run.MaxPages),
			run.PagesFailed,
			run.KeywordCount,
			run.SeedURL,
			status,
		)
	}

	fmt.Fprintln(out, "\nUse 'sitekeywords history --show <id>' to print a run.")
	return nil
}

// showRun prints the full ranking of one stored run.
func showRun(ctx context.Context, out io.Writer, db *database.CrawlDB, id string, verbose bool) error {
	result, err := db.LoadReport(ctx, id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run %s\n\n", result.ID)
	_, err = report.NewSimpleWriter(out, report.WithLimit(0), report.WithVerbose(verbose)).Write(result)
	return err
}
