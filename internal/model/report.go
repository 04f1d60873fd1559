package model

import (
	"time"
)

// KeywordCount is one row of the final ranking: a phrase and the number of
// pages whose per-page keyword list contained it.
type KeywordCount struct {
	// Phrase is the normalized keyword or key phrase.
	Phrase string `json:"phrase"`

	// Count is the number of pages the phrase was extracted from.
	Count int `json:"count"`
}

// CrawlReport is the result of one crawl session.
// It is produced by the spider, written by the report writers and stored
// in the history database.
type CrawlReport struct {
	// ID uniquely identifies the crawl run. Assigned when the run is stored.
	ID string `json:"id,omitempty"`

	// SeedURL is the normalized seed the crawl started from.
	SeedURL string `json:"seed_url"`

	// MaxPages is the page budget of the crawl.
	MaxPages int `json:"max_pages"`

	// TopK is the number of keywords extracted per page.
	TopK int `json:"top_k"`

	// StartedAt is the time the crawl started.
	StartedAt time.Time `json:"started_at"`

	// FinishedAt is the time the crawl finished.
	FinishedAt time.Time `json:"finished_at"`

	// Pages lists every visited URL in visit order, including failures.
	Pages []PageSummary `json:"pages"`

	// Keywords is the final ranking sorted by count descending.
	Keywords []KeywordCount `json:"keywords"`

	// LinksDropped counts in-scope links that were not queued because
	// the pending queue was full.
	LinksDropped int `json:"links_dropped,omitempty"`

	// Cancelled is true when the crawl was interrupted before the frontier
	// was exhausted.
	Cancelled bool `json:"cancelled,omitempty"`
}

// NewCrawlReport creates a report for a crawl starting now.
func NewCrawlReport(seedURL string, maxPages, topK int) *CrawlReport {
	return &CrawlReport{
		SeedURL:   seedURL,
		MaxPages:  maxPages,
		TopK:      topK,
		StartedAt: time.Now(),
		Pages:     make([]PageSummary, 0),
		Keywords:  make([]KeywordCount, 0),
	}
}

// AddPage records a visited page.
func (r *CrawlReport) AddPage(page *Page) {
	r.Pages = append(r.Pages, page.Summary())
}

// PagesVisited returns the number of visited URLs, successful or not.
func (r *CrawlReport) PagesVisited() int {
	return len(r.Pages)
}

// PagesFailed returns the number of visited URLs that contributed nothing
// because fetching or parsing failed.
func (r *CrawlReport) PagesFailed() int {
	n := 0
	for _, p := range r.Pages {
		if p.Failed() {
			n++
		}
	}
	return n
}

// Failures returns the summaries of failed pages.
func (r *CrawlReport) Failures() []PageSummary {
	failed := make([]PageSummary, 0)
	for _, p := range r.Pages {
		if p.Failed() {
			failed = append(failed, p)
		}
	}
	return failed
}

// Duration returns how long the crawl took.
// It returns zero for a report that has not finished.
func (r *CrawlReport) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TopKeywords returns at most n entries of the ranking.
// A non-positive n returns the full ranking.
func (r *CrawlReport) TopKeywords(n int) []KeywordCount {
	if n <= 0 || n >= len(r.Keywords) {
		return r.Keywords
	}
	return r.Keywords[:n]
}
