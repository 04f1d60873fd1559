package pipeline

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nao1215/sitekeywords/internal/model"
)

// BatchProcessor runs the pipeline over a batch of URLs concurrently.
// It uses errgroup to manage goroutines and respect the concurrency limit.
type BatchProcessor struct {
	// pipeline is shared by all workers; its steps must be safe for concurrent use.
	pipeline *Pipeline

	// concurrency is the maximum number of pages processed at once.
	concurrency int

	// logger is used for batch-level logging.
	logger *slog.Logger
}

// BatchOption configures a BatchProcessor.
type BatchOption func(*BatchProcessor)

// WithBatchLogger sets a custom logger for batch processing.
func WithBatchLogger(logger *slog.Logger) BatchOption {
	return func(b *BatchProcessor) {
		b.logger = logger
	}
}

// WithConcurrency sets the maximum number of pages processed at once.
// Default is 1 (sequential).
func WithConcurrency(n int) BatchOption {
	return func(b *BatchProcessor) {
		if n > 0 {
			b.concurrency = n
		}
	}
}

// NewBatchProcessor creates a new BatchProcessor for p.
func NewBatchProcessor(p *Pipeline, opts ...BatchOption) *BatchProcessor {
	bp := &BatchProcessor{
		pipeline:    p,
		concurrency: 1,
	}

	for _, opt := range opts {
		opt(bp)
	}

	if bp.logger == nil {
		bp.logger = slog.Default()
	}

	return bp
}

// Concurrency returns the maximum number of pages processed at once.
func (bp *BatchProcessor) Concurrency() int {
	return bp.concurrency
}

// ProcessBatch runs the pipeline for every URL and returns the pages in the
// order of urls, whatever order they completed in.
//
// Every URL yields a page. Failed pages carry their error in Page.Err and
// never stop the other pages. The returned error is non-nil only when ctx
// was cancelled.
func (bp *BatchProcessor) ProcessBatch(ctx context.Context, urls []string) ([]*model.Page, error) {
	startTime := time.Now()

	pages := make([]*model.Page, len(urls))
	for i, u := range urls {
		pages[i] = model.NewPage(u)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(bp.concurrency)

	for _, page := range pages {
		g.Go(func() error {
			// Each goroutine writes only to its own page.
			if err := bp.pipeline.Execute(gctx, page); err != nil {
				bp.logger.Debug("page failed",
					"url", page.URL,
					"error", err,
				)
			}
			return nil
		})
	}

	_ = g.Wait() //nolint:errcheck // Workers never return errors; failures live on the pages.

	bp.logger.Debug("batch complete",
		"pages", len(urls),
		"elapsed", time.Since(startTime),
	)

	return pages, ctx.Err()
}
