package spider

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nao1215/sitekeywords/internal/aggregate"
	"github.com/nao1215/sitekeywords/internal/frontier"
	"github.com/nao1215/sitekeywords/internal/model"
	"github.com/nao1215/sitekeywords/internal/pipeline"
)

// ProgressFunc is called by the coordinator after each page is merged.
// visited counts pages handed out so far and budget is the page limit.
type ProgressFunc func(visited, budget int, page model.PageSummary)

// Spider coordinates one crawl session: it owns the frontier and the
// frequency table, hands URLs to the per-page pipeline and folds the results
// back in.
//
// Only the coordinator goroutine touches the frontier and the table. Workers
// run the pipeline and nothing else. Pages are processed in waves of up to
// `workers` URLs taken from the frontier, and each wave is merged in frontier
// order, so the result does not depend on which page finished first.
type Spider struct {
	// batch runs the per-page pipeline for one wave of URLs.
	batch *pipeline.BatchProcessor

	// maxPages is the page budget.
	maxPages int

	// topK is recorded in the report.
	topK int

	// workers is the maximum number of pages in flight.
	workers int

	// logger for structured logging.
	logger *slog.Logger

	// frontierOpts configure the frontier of every crawl.
	frontierOpts []frontier.Option

	// progress is notified after each page, may be nil.
	progress ProgressFunc

	// steps are the pipeline step names, for logging.
	steps []string
}

// Option configures a Spider.
type Option func(*Spider)

// WithWorkers sets the number of pages fetched concurrently.
// Values below 1 are ignored.
func WithWorkers(n int) Option {
	return func(s *Spider) {
		if n >= 1 {
			s.workers = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Spider) {
		s.logger = logger
	}
}

// WithTopK records the per-page keyword count in the report.
func WithTopK(k int) Option {
	return func(s *Spider) {
		s.topK = k
	}
}

// WithFrontierOptions passes options to the frontier of every crawl.
func WithFrontierOptions(opts ...frontier.Option) Option {
	return func(s *Spider) {
		s.frontierOpts = append(s.frontierOpts, opts...)
	}
}

// WithProgress sets a callback notified after each page.
func WithProgress(fn ProgressFunc) Option {
	return func(s *Spider) {
		s.progress = fn
	}
}

// New creates a Spider that runs p over at most maxPages pages.
func New(p *pipeline.Pipeline, maxPages int, opts ...Option) *Spider {
	s := &Spider{
		maxPages: maxPages,
		workers:  1,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	s.steps = p.StepNames()
	s.batch = pipeline.NewBatchProcessor(p,
		pipeline.WithConcurrency(s.workers),
		pipeline.WithBatchLogger(s.logger),
	)

	return s
}

// Crawl visits the site reachable from seedURL and returns the aggregated
// keyword ranking.
//
// A report is always returned. The error is non-nil only for an invalid seed
// or budget, or when ctx is cancelled; in the latter case the report covers
// the pages merged before cancellation. Per-page failures are listed in the
// report and never stop the crawl.
func (s *Spider) Crawl(ctx context.Context, seedURL string) (*model.CrawlReport, error) {
	f, err := frontier.New(seedURL, s.maxPages, s.frontierOpts...)
	if err != nil {
		report := model.NewCrawlReport(seedURL, s.maxPages, s.topK)
		report.FinishedAt = report.StartedAt
		return report, fmt.Errorf("cannot start crawl: %w", err)
	}

	seed, _ := frontier.Normalize(seedURL) //nolint:errcheck // Validated by frontier.New.
	report := model.NewCrawlReport(seed, s.maxPages, s.topK)
	table := aggregate.NewTable()

	s.logger.Info("starting crawl",
		"seed", seed,
		"scope", f.Authority(),
		"max_pages", s.maxPages,
		"workers", s.workers,
		"steps", s.steps,
	)

	for f.HasNext() {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}

		wave := make([]string, 0, s.workers)
		for len(wave) < s.workers {
			next, ok := f.Next()
			if !ok {
				break
			}
			wave = append(wave, next)
		}

		// Each wave is reduced into its own table first, then folded into the
		// crawl table in one step.
		pages, batchErr := s.batch.ProcessBatch(ctx, wave)
		waveTable := aggregate.NewTable()
		for _, page := range pages {
			s.merge(f, waveTable, report, page)
		}
		table.MergeTable(waveTable)

		s.logger.Debug("wave merged",
			"pages", len(pages),
			"phrases", waveTable.Len(),
			"total_phrases", table.Len(),
		)

		if batchErr != nil {
			report.Cancelled = true
			break
		}
	}

	report.Keywords = table.Finalize()
	stats := f.Stats()
	report.LinksDropped = stats.Overflowed
	report.FinishedAt = time.Now()

	s.logger.Info("crawl finished",
		"seed", seed,
		"visited", report.PagesVisited(),
		"failed", report.PagesFailed(),
		"keywords", len(report.Keywords),
		"dropped", stats.Dropped(),
		"out_of_scope", stats.OutOfScope,
		"filtered", stats.Filtered,
		"overflowed", stats.Overflowed,
		"elapsed", report.Duration(),
	)

	s.logger.Debug("visit order", "urls", f.Visited())

	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// merge folds one processed page into the crawl state.
// A failed page is recorded but contributes no keywords and no links.
func (s *Spider) merge(f *frontier.Frontier, table *aggregate.Table, report *model.CrawlReport, page *model.Page) {
	if !page.Failed() && page.FinalURL != "" && !f.InScope(page.FinalURL) {
		page.Err = fmt.Errorf("%w: %s", ErrOffSiteRedirect, page.FinalURL)
		page.Keywords = nil
		page.Scores = nil
		page.Links = nil
	}

	// The redirect target was fetched through page.URL.
	if !page.Failed() && page.FinalURL != "" && f.MarkVisited(page.FinalURL) {
		s.logger.Debug("redirect target marked visited",
			"url", page.URL,
			"final_url", page.FinalURL,
		)
	}

	if page.Failed() {
		s.logger.Warn("page failed",
			"url", page.URL,
			"error", page.Err,
		)
	} else {
		table.Merge(page.Keywords)
		added := f.Absorb(page.BaseURL(), page.Links)

		s.logger.Debug("page merged",
			"url", page.URL,
			"keywords", len(page.Keywords),
			"links", len(page.Links),
			"queued", added,
		)
	}

	report.AddPage(page)

	if s.progress != nil {
		s.progress(report.PagesVisited(), s.maxPages, report.Pages[len(report.Pages)-1])
	}
}
