package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeywords/internal/database"
	"github.com/nao1215/sitekeywords/internal/frontier"
	"github.com/nao1215/sitekeywords/internal/model"
)

// errNotEnoughRuns is returned when a seed has fewer than two stored runs.
var errNotEnoughRuns = errors.New("at least two crawl runs are needed for a comparison")

// NewCompareCmd creates the compare command.
// This command compares keyword rankings stored in the history database.
func NewCompareCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare <seed-url>",
		Short: "Compare keyword rankings of two crawl runs",
		Long: `Compare shows how the keyword ranking of a site changed between two crawls.

The latest run of the seed is compared with the run before it, or with the
run given by --with-run-id. The comparison lists:
- New keywords that entered the ranking
- Dropped keywords that left the ranking
- Keywords whose rank or page count changed

Examples:
  # Compare the latest two runs
  sitekeywords compare https://example.com/

  # Compare the latest run with a specific run
  sitekeywords compare --with-run-id 3f2b8c1e-5d4a-4f7b-9a61-0c2e8d9f1a2b https://example.com/

  # Only consider the top 20 keywords of each run
  sitekeywords compare --top 20 https://example.com/

  # Output the comparison in JSON format
  sitekeywords compare --json https://example.com/`,
		Args: cobra.ExactArgs(1),
		RunE: runCompareCmd,
	}

	cmd.Flags().StringP("with-run-id", "i", "",
		"Compare the latest run with this run (see 'sitekeywords history')")
	cmd.Flags().IntP("top", "n", 0,
		"Only compare the top N keywords of each run (0 compares all)")
	cmd.Flags().BoolP("json", "j", false,
		"Output comparison result in JSON format")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output comparison result in Markdown format")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	cmd.MarkFlagsMutuallyExclusive("json", "markdown")

	return cmd
}

// RunSummary describes one side of a comparison.
type RunSummary struct {
	ID           string    `json:"id"`
	StartedAt    time.Time `json:"started_at"`
	PagesVisited int       `json:"pages_visited"`
	PagesFailed  int       `json:"pages_failed"`
	KeywordCount int       `json:"keyword_count"`
}

// RankChange is a keyword present in both runs whose rank or count moved.
// Ranks are 1-based.
type RankChange struct {
	Phrase        string `json:"phrase"`
	PreviousRank  int    `json:"previous_rank"`
	CurrentRank   int    `json:"current_rank"`
	PreviousCount int    `json:"previous_count"`
	CurrentCount  int    `json:"current_count"`
}

// RankDelta is positive when the keyword moved up.
func (c RankChange) RankDelta() int {
	return c.PreviousRank - c.CurrentRank
}

// ComparisonResult holds the difference between two rankings of a seed.
type ComparisonResult struct {
	SeedURL         string               `json:"seed_url"`
	PreviousRun     RunSummary           `json:"previous_run"`
	CurrentRun      RunSummary           `json:"current_run"`
	NewKeywords     []model.KeywordCount `json:"new_keywords"`
	DroppedKeywords []model.KeywordCount `json:"dropped_keywords"`
	ChangedKeywords []RankChange         `json:"changed_keywords"`
	UnchangedCount  int                  `json:"unchanged_count"`
}

// runCompareCmd executes the compare command.
func runCompareCmd(cmd *cobra.Command, args []string) error {
	seed, err := frontier.Normalize(args[0])
	if err != nil {
		return fmt.Errorf("invalid seed URL: %w", err)
	}

	withRunID, err := cmd.Flags().GetString("with-run-id")
	if err != nil {
		return err
	}
	top, err := cmd.Flags().GetInt("top")
	if err != nil {
		return err
	}
	jsonOutput, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	db, err := openHistory(cmd)
	if err != nil {
		return err
	}
	defer db.Close()

	result, err := loadComparison(cmd.Context(), db, seed, withRunID, top)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	switch {
	case jsonOutput:
		return outputComparisonJSON(out, result)
	case markdownOutput:
		return outputComparisonMarkdown(out, result)
	default:
		return outputComparisonText(out, result)
	}
}

// loadComparison picks the two runs of seed and compares their rankings.
// The latest run is the current side. The previous side is withRunID, or the
// run before the latest one.
func loadComparison(ctx context.Context, db *database.CrawlDB, seed, withRunID string, top int) (*ComparisonResult, error) {
	runs, err := db.ListRuns(ctx, seed)
	if err != nil {
		return nil, err
	}
	if len(runs) == 0 {
		return nil, fmt.Errorf("no crawl history found for %s", seed)
	}

	current := runs[0]
	var previous *database.RunMetadata

	if withRunID != "" {
		previous, err = db.GetRun(ctx, withRunID)
		if err != nil {
			return nil, err
		}
		if previous.SeedURL != seed {
			return nil, fmt.Errorf("run %s belongs to %s, not %s", withRunID, previous.SeedURL, seed)
		}
		if previous.ID == current.ID {
			return nil, fmt.Errorf("run %s is the latest run; choose an earlier one", withRunID)
		}
	} else {
		if len(runs) < 2 {
			return nil, fmt.Errorf("%w: %s has %d", errNotEnoughRuns, seed, len(runs))
		}
		previous = &runs[1]
	}

	previousKeywords, err := db.GetRunKeywords(ctx, previous.ID)
	if err != nil {
		return nil, err
	}
	currentKeywords, err := db.GetRunKeywords(ctx, current.ID)
	if err != nil {
		return nil, err
	}

	result := compareRankings(limitKeywords(previousKeywords, top), limitKeywords(currentKeywords, top))
	result.SeedURL = seed
	result.PreviousRun = summarizeRun(*previous)
	result.CurrentRun = summarizeRun(current)

	return result, nil
}

func summarizeRun(meta database.RunMetadata) RunSummary {
	return RunSummary{
		ID:           meta.ID,
		StartedAt:    meta.StartedAt,
		PagesVisited: meta.PagesVisited,
		PagesFailed:  meta.PagesFailed,
		KeywordCount: meta.KeywordCount,
	}
}

func limitKeywords(keywords []model.KeywordCount, n int) []model.KeywordCount {
	if n > 0 && len(keywords) > n {
		return keywords[:n]
	}
	return keywords
}

// compareRankings diffs two rankings. New and changed keywords follow the
// current ranking, dropped keywords follow the previous one.
func compareRankings(previous, current []model.KeywordCount) *ComparisonResult {
	result := &ComparisonResult{
		NewKeywords:     []model.KeywordCount{},
		DroppedKeywords: []model.KeywordCount{},
		ChangedKeywords: []RankChange{},
	}

	previousRank := make(map[string]int, len(previous))
	for i, kw := range previous {
		previousRank[kw.Phrase] = i
	}
	currentRank := make(map[string]int, len(current))
	for i, kw := range current {
		currentRank[kw.Phrase] = i
	}

	for i, kw := range current {
		j, ok := previousRank[kw.Phrase]
		if !ok {
			result.NewKeywords = append(result.NewKeywords, kw)
			continue
		}
		if i == j && kw.Count == previous[j].Count {
			result.UnchangedCount++
			continue
		}
		result.ChangedKeywords = append(result.ChangedKeywords, RankChange{
			Phrase:        kw.Phrase,
			PreviousRank:  j + 1,
			CurrentRank:   i + 1,
			PreviousCount: previous[j].Count,
			CurrentCount:  kw.Count,
		})
	}

	for _, kw := range previous {
		if _, ok := currentRank[kw.Phrase]; !ok {
			result.DroppedKeywords = append(result.DroppedKeywords, kw)
		}
	}

	return result
}

// outputComparisonJSON outputs the comparison result in JSON format.
func outputComparisonJSON(w io.Writer, result *ComparisonResult) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(result)
}

// outputComparisonMarkdown outputs the comparison result in Markdown format.
func outputComparisonMarkdown(w io.Writer, result *ComparisonResult) error {
	md := markdown.NewMarkdown(w)

	md.H1f("Keyword Comparison: %s", result.SeedURL)
	md.PlainText("")

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Previous", "Current", "Change"},
		Rows: [][]string{
			{"Run", "`" + result.PreviousRun.ID + "`", "`" + result.CurrentRun.ID + "`", "-"},
			{"Date",
				result.PreviousRun.StartedAt.Local().Format("2006-01-02 15:04"),
				result.CurrentRun.StartedAt.Local().Format("2006-01-02 15:04"),
				"-"},
			{"Pages Visited",
				strconv.Itoa(result.PreviousRun.PagesVisited),
				strconv.Itoa(result.CurrentRun.PagesVisited),
				formatDelta(result.CurrentRun.PagesVisited - result.PreviousRun.PagesVisited)},
			{"Pages Failed",
				strconv.Itoa(result.PreviousRun.PagesFailed),
				strconv.Itoa(result.CurrentRun.PagesFailed),
				formatDelta(result.CurrentRun.PagesFailed - result.PreviousRun.PagesFailed)},
			{"Keywords",
				strconv.Itoa(result.PreviousRun.KeywordCount),
				strconv.Itoa(result.CurrentRun.KeywordCount),
				formatDelta(result.CurrentRun.KeywordCount - result.PreviousRun.KeywordCount)},
		},
	})
	md.PlainText("")

	if len(result.NewKeywords) > 0 {
		md.H2f("New Keywords (%d)", len(result.NewKeywords))
		md.PlainText("")
		items := make([]string, len(result.NewKeywords))
		for i, kw := range result.NewKeywords {
			items[i] = fmt.Sprintf("**%s** (%d pages)", kw.Phrase, kw.Count)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(result.DroppedKeywords) > 0 {
		md.H2f("Dropped Keywords (%d)", len(result.DroppedKeywords))
		md.PlainText("")
		items := make([]string, len(result.DroppedKeywords))
		for i, kw := range result.DroppedKeywords {
			items[i] = fmt.Sprintf("~~%s~~ (%d pages)", kw.Phrase, kw.Count)
		}
		md.BulletList(items...)
		md.PlainText("")
	}

	if len(result.ChangedKeywords) > 0 {
		md.H2f("Changed Keywords (%d)", len(result.ChangedKeywords))
		md.PlainText("")
		rows := make([][]string, len(result.ChangedKeywords))
		for i, c := range result.ChangedKeywords {
			rows[i] = []string{
				c.Phrase,
				strconv.Itoa(c.PreviousRank),
				strconv.Itoa(c.CurrentRank),
				formatDelta(c.RankDelta()),
				formatDelta(c.CurrentCount - c.PreviousCount),
			}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Keyword", "Previous Rank", "Current Rank", "Rank Change", "Page Change"},
			Rows:   rows,
		})
		md.PlainText("")
	}

	if result.UnchangedCount > 0 {
		md.HorizontalRule()
		md.PlainText("")
		md.PlainTextf("*%d keywords unchanged*", result.UnchangedCount)
	}

	return md.Build()
}

// outputComparisonText outputs the comparison result in human-readable text format.
func outputComparisonText(w io.Writer, result *ComparisonResult) error {
	fmt.Fprintf(w, "Keyword Comparison: %s\n", result.SeedURL)
	fmt.Fprintln(w, strings.Repeat("=", 60))

	fmt.Fprintf(w, "\nPrevious run: %s (%s)\n", result.PreviousRun.ID,
		result.PreviousRun.StartedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Current run:  %s (%s)\n", result.CurrentRun.ID,
		result.CurrentRun.StartedAt.Local().Format("2006-01-02 15:04:05"))

	fmt.Fprintln(w, "\nSummary:")
	fmt.Fprintf(w, "  %-14s  %-10s  %-10s  %-10s\n", "Metric", "Previous", "Current", "Change")
	fmt.Fprintln(w, "  "+strings.Repeat("-", 50))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Pages visited",
		result.PreviousRun.PagesVisited, result.CurrentRun.PagesVisited,
		formatDelta(result.CurrentRun.PagesVisited-result.PreviousRun.PagesVisited))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Pages failed",
		result.PreviousRun.PagesFailed, result.CurrentRun.PagesFailed,
		formatDelta(result.CurrentRun.PagesFailed-result.PreviousRun.PagesFailed))
	fmt.Fprintf(w, "  %-14s  %-10d  %-10d  %-10s\n", "Keywords",
		result.PreviousRun.KeywordCount, result.CurrentRun.KeywordCount,
		formatDelta(result.CurrentRun.KeywordCount-result.PreviousRun.KeywordCount))

	if len(result.NewKeywords) > 0 {
		fmt.Fprintf(w, "\nNew Keywords (%d):\n", len(result.NewKeywords))
		for _, kw := range result.NewKeywords {
			fmt.Fprintf(w, "  [+] %s (%d pages)\n", kw.Phrase, kw.Count)
		}
	}

	if len(result.DroppedKeywords) > 0 {
		fmt.Fprintf(w, "\nDropped Keywords (%d):\n", len(result.DroppedKeywords))
		for _, kw := range result.DroppedKeywords {
			fmt.Fprintf(w, "  [-] %s (%d pages)\n", kw.Phrase, kw.Count)
		}
	}

	if len(result.ChangedKeywords) > 0 {
		fmt.Fprintf(w, "\nChanged Keywords (%d):\n", len(result.ChangedKeywords))
		for _, c := range result.ChangedKeywords {
			fmt.Fprintf(w, "  [~] %s: rank %d -> %d (%s), pages %d -> %d\n",
				c.Phrase, c.PreviousRank, c.CurrentRank, formatDelta(c.RankDelta()),
				c.PreviousCount, c.CurrentCount)
		}
	}

	if result.UnchangedCount > 0 {
		fmt.Fprintf(w, "\nUnchanged: %d keywords\n", result.UnchangedCount)
	}

	return nil
}

// formatDelta formats a numeric delta with sign for display.
func formatDelta(delta int) string {
	if delta > 0 {
		return "+" + strconv.Itoa(delta)
	} else if delta < 0 {
		return strconv.Itoa(delta)
	}
	return "0"
}
