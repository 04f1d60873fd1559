// Package spider runs a bounded, single-site crawl and aggregates the
// keywords of every visited page.
//
// # Control flow
//
// The frontier yields a URL. The pipeline fetches it, normalizes its text and
// extracts the page's top keywords. The frequency table folds them in and the
// frontier absorbs the page's links. The loop ends when the page budget is
// spent or the queue is empty, and the table is then finalized into the
// ranking.
//
// # Concurrency
//
// With one worker (the default) pages are processed strictly one after
// another. With N workers up to N pages are fetched at once, but the frontier
// and the table are still only touched by the coordinating goroutine, and the
// results of each wave are merged in the order the URLs left the frontier.
// Unless the pending queue overflows, the same site yields the same report
// for any worker count.
//
// Rate limiting lives in the fetcher and applies across workers.
//
// # Usage
//
//	p := pipeline.DefaultPipeline(fetcher, keyword.NewExtractor(), 10)
//	s := spider.New(p, 10, spider.WithWorkers(2))
//	report, err := s.Crawl(ctx, "https://example.com/")
package spider
