package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/briandowns/spinner"
	"github.com/spf13/cobra"

	"github.com/nao1215/sitekeywords/internal/config"
	"github.com/nao1215/sitekeywords/internal/crawler"
	"github.com/nao1215/sitekeywords/internal/database"
	"github.com/nao1215/sitekeywords/internal/frontier"
	"github.com/nao1215/sitekeywords/internal/keyword"
	"github.com/nao1215/sitekeywords/internal/log"
	"github.com/nao1215/sitekeywords/internal/model"
	"github.com/nao1215/sitekeywords/internal/pipeline"
	"github.com/nao1215/sitekeywords/internal/report"
	"github.com/nao1215/sitekeywords/internal/spider"
)

// stdoutPath selects standard output as the report destination.
const stdoutPath = "-"

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl <seed-url>",
		Short: "Crawl a website and rank its keywords",
		Long: `Crawl visits the website reachable from the seed URL and ranks the keywords
found across its pages.

Pages are visited breadth-first. Only links on the seed's host are followed,
and no more than --max-pages pages are fetched. Every page contributes its
top --top-k phrases, and the ranking counts how many pages each phrase was
found on. Pages that cannot be fetched are reported but do not stop the
crawl.

Examples:
  # Crawl up to 10 pages and write keywords.csv
  sitekeywords crawl https://example.com/

  # Crawl 50 pages and write a Markdown report
  sitekeywords crawl -p 50 -f markdown -o report.md https://example.com/

  # Print JSON to stdout, fetching 4 pages at a time
  sitekeywords crawl -f json -o - -w 4 https://example.com/

  # Use a custom configuration file
  sitekeywords crawl -c myconfig.yaml https://example.com/

Configuration file (.sitekeywords) example:
  defaults:
    ignorePatterns:
      - "/wp-admin/*"
    stopWords:
      - "menu"
  sites:
    blog.example.com:
      maxPages: 50
      cookie: "session_id=abc123"
      headers:
        Authorization: "Bearer token"`,
		Args: cobra.ExactArgs(1),
		RunE: runCrawlCmd,
	}

	// Crawl scope flags
	cmd.Flags().IntP("max-pages", "p", config.DefaultMaxPages,
		"Maximum number of pages to visit")
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of pages fetched concurrently, each waiting --delay between its requests")

	// Extraction flags
	cmd.Flags().IntP("top-k", "k", config.DefaultTopK,
		"Number of keywords extracted per page")
	cmd.Flags().IntP("ngram", "n", config.DefaultMaxNGram,
		"Maximum number of words in a keyword")
	cmd.Flags().Float64("dedup", config.DefaultDedupThreshold,
		"Similarity (0-1) above which a keyword is dropped as a near duplicate")

	// HTTP flags
	cmd.Flags().DurationP("delay", "d", config.DefaultDelay,
		"Minimum interval between the requests of one worker (0 disables throttling)")
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Timeout for each request")
	cmd.Flags().String("user-agent", config.DefaultUserAgent,
		"User-Agent header sent with every request")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .sitekeywords in current or home directory)")

	// Report flags
	cmd.Flags().StringP("output", "o", config.DefaultOutputFile,
		`Report file path ("-" for stdout, creates directories if needed)`)
	cmd.Flags().StringP("format", "f", config.FormatCSV,
		"Report format: csv, json or markdown")
	cmd.Flags().BoolP("quiet", "q", false,
		"Do not show progress or the summary")

	// History flags
	cmd.Flags().Bool("no-history", false,
		"Do not save the crawl in the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewSecureLogger(cmd.ErrOrStderr(), cfg.Verbose)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return runCrawl(ctx, cmd, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags and the
// configuration file.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error
	if len(args) > 0 {
		cfg.Seed = args[0]
	}

	cfg.MaxPages, err = cmd.Flags().GetInt("max-pages")
	if err != nil {
		return nil, err
	}
	cfg.Workers, err = cmd.Flags().GetInt("workers")
	if err != nil {
		return nil, err
	}
	cfg.TopK, err = cmd.Flags().GetInt("top-k")
	if err != nil {
		return nil, err
	}
	cfg.MaxNGram, err = cmd.Flags().GetInt("ngram")
	if err != nil {
		return nil, err
	}
	cfg.DedupThreshold, err = cmd.Flags().GetFloat64("dedup")
	if err != nil {
		return nil, err
	}
	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}
	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}
	cfg.UserAgent, err = cmd.Flags().GetString("user-agent")
	if err != nil {
		return nil, err
	}
	cfg.OutputFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}
	cfg.Format, err = cmd.Flags().GetString("format")
	if err != nil {
		return nil, err
	}
	cfg.Quiet, err = cmd.Flags().GetBool("quiet")
	if err != nil {
		return nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, err
	}
	cfg.SaveToDB = !noHistory

	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
	}

	cfg.Verbose = getVerboseFlag(cmd)

	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// A missing file is only an error when it was named explicitly.
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	switch {
	case configPath != "":
		cfg.SiteConfigs, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	case cfg.ConfigFilePath != "":
		return nil, fmt.Errorf("%w: %s", config.ErrConfigNotFound, cfg.ConfigFilePath)
	default:
		cfg.SiteConfigs = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	// The site budget applies only when --max-pages was not given.
	if site := cfg.Site(); site.MaxPages > 0 && !cmd.Flags().Changed("max-pages") {
		cfg.MaxPages = site.MaxPages
	}

	return cfg, nil
}

// runCrawl executes the crawl and writes its report.
func runCrawl(ctx context.Context, cmd *cobra.Command, cfg *config.Config, logger *slog.Logger) error {
	site := cfg.Site()

	logger.Debug("site configuration",
		"host", config.HostOf(cfg.Seed),
		"headers", site.Headers,
		"cookie", site.Cookie,
		"ignore", site.IgnorePatterns,
		"follow", site.FollowPatterns,
		"stop_words", site.StopWords,
	)

	progress, stopProgress := newProgress(cmd.ErrOrStderr(), cfg)
	s := newSpider(cfg, site, logger, progress)

	result, crawlErr := s.Crawl(ctx, cfg.Seed)
	stopProgress()

	// An unusable seed leaves nothing to report.
	if crawlErr != nil && !result.Cancelled {
		return crawlErr
	}

	if result.Cancelled {
		fmt.Fprintf(cmd.ErrOrStderr(), "Crawl interrupted after %d page(s), writing partial report\n",
			result.PagesVisited())
	}

	if err := outputReport(cmd, cfg, result); err != nil {
		return err
	}

	if cfg.SaveToDB {
		// The history is best effort, and the signal context may already be done.
		id, err := saveCrawlReport(context.WithoutCancel(ctx), cfg.DBDir, result, logger)
		if err != nil {
			logger.Warn("failed to save crawl history", "error", err)
		} else if !cfg.Quiet {
			fmt.Fprintf(cmd.OutOrStdout(), "Saved as run %s\n", id)
		}
	}

	return crawlErr
}

// newSpider wires the fetcher, the extractor and the pipeline into a Spider.
func newSpider(cfg *config.Config, site config.SiteConfig, logger *slog.Logger, progress spider.ProgressFunc) *spider.Spider {
	fetcherOpts := []crawler.FetcherOption{
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithTimeout(cfg.Timeout),
		crawler.WithDelay(cfg.Delay),
		crawler.WithParallelism(cfg.Workers),
		crawler.WithMaxBodySize(cfg.MaxBodySize),
	}
	if len(site.Headers) > 0 {
		fetcherOpts = append(fetcherOpts, crawler.WithHeaders(site.Headers))
	}
	if site.Cookie != "" {
		fetcherOpts = append(fetcherOpts, crawler.WithCookie(site.Cookie))
	}

	extractorOpts := []keyword.Option{
		keyword.WithMaxNGram(cfg.MaxNGram),
		keyword.WithTopK(cfg.TopK),
		keyword.WithDedupThreshold(cfg.DedupThreshold),
	}
	if len(site.StopWords) > 0 {
		extractorOpts = append(extractorOpts,
			keyword.WithStopWords(append(keyword.DefaultStopWords(), site.StopWords...)))
	}
	extractor := keyword.NewExtractor(extractorOpts...)

	p := pipeline.DefaultPipeline(
		crawler.NewHTTPFetcher(fetcherOpts...),
		extractor,
		cfg.TopK,
		pipeline.WithLogger(logger),
	)

	return spider.New(p, cfg.MaxPages,
		spider.WithWorkers(cfg.Workers),
		spider.WithTopK(cfg.TopK),
		spider.WithLogger(logger),
		spider.WithProgress(progress),
		spider.WithFrontierOptions(
			frontier.WithIgnorePatterns(site.IgnorePatterns),
			frontier.WithFollowPatterns(site.FollowPatterns),
		),
	)
}

// newProgress returns the progress callback of the crawl and a function that
// stops the display. The spinner runs only on a real stderr, and neither
// --quiet nor --verbose is set.
func newProgress(w io.Writer, cfg *config.Config) (spider.ProgressFunc, func()) {
	f, ok := w.(*os.File)
	if !ok || cfg.Quiet || cfg.Verbose {
		return nil, func() {}
	}

	s := spinner.New(spinner.CharSets[9], 100*time.Millisecond, spinner.WithWriter(f))
	s.Suffix = fmt.Sprintf(" Crawling %s", cfg.Seed)
	s.Start()

	progress := func(visited, budget int, page model.PageSummary) {
		s.Lock()
		s.Suffix = fmt.Sprintf(" [%d/%d] %s", visited, budget, page.URL)
		s.Unlock()
	}

	return progress, s.Stop
}

// outputReport writes the report in the configured format, followed by a
// terminal summary unless --quiet is set or the report itself goes to stdout.
func outputReport(cmd *cobra.Command, cfg *config.Config, result *model.CrawlReport) error {
	var output io.Writer
	if cfg.OutputFile == stdoutPath {
		output = cmd.OutOrStdout()
	} else {
		if dir := filepath.Dir(cfg.OutputFile); dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.OutputFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	}

	writers := []report.Writer{newFormatWriter(cfg.Format, output)}
	summary := !cfg.Quiet && cfg.OutputFile != stdoutPath
	if summary {
		writers = append(writers, report.NewSimpleWriter(cmd.OutOrStdout(), report.WithVerbose(cfg.Verbose)))
	}

	if _, err := report.NewMultiWriter(writers...).Write(result); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}

	if summary {
		fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", cfg.OutputFile)
	}

	return nil
}

// newFormatWriter returns the report writer for a validated format.
func newFormatWriter(format string, w io.Writer) report.Writer {
	switch format {
	case config.FormatJSON:
		return report.NewJSONWriter(w, report.WithPrettyPrint(), report.WithVersion(getVersion()))
	case config.FormatMarkdown:
		return report.NewMarkdownWriter(w)
	default:
		return report.NewCSVWriter(w)
	}
}

// saveCrawlReport stores the report in the history database in dbDir and
// returns its run ID.
func saveCrawlReport(ctx context.Context, dbDir string, result *model.CrawlReport, logger *slog.Logger) (string, error) {
	db, err := database.Open(dbDir, database.DefaultOptions())
	if err != nil {
		return "", fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	id, err := db.SaveReport(ctx, result)
	if err != nil {
		return "", err
	}

	logger.Info("crawl saved to history", "run", id, "db", db.Path())
	return id, nil
}
