package model

import (
	"errors"
	"testing"
	"time"
)

// TestNewCrawlReport tests the CrawlReport constructor.
func TestNewCrawlReport(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport("http://example.com/", 10, 5)

	if r.SeedURL != "http://example.com/" {
		t.Errorf("expected seed URL, got %q", r.SeedURL)
	}
	if r.MaxPages != 10 || r.TopK != 5 {
		t.Errorf("unexpected budget settings: %+v", r)
	}
	if r.StartedAt.IsZero() {
		t.Error("expected StartedAt to be set")
	}
	if r.Pages == nil || r.Keywords == nil {
		t.Error("expected initialized slices so JSON output uses [] instead of null")
	}
	if r.Duration() != 0 {
		t.Errorf("expected zero duration for unfinished report, got %v", r.Duration())
	}
}

// TestCrawlReportPages tests page bookkeeping.
func TestCrawlReportPages(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport("http://example.com/", 10, 5)

	ok := NewPage("http://example.com/")
	ok.StatusCode = 200
	r.AddPage(ok)

	failed := NewPage("http://example.com/missing")
	failed.Err = errors.New("status 404")
	r.AddPage(failed)

	if r.PagesVisited() != 2 {
		t.Errorf("expected 2 visited pages, got %d", r.PagesVisited())
	}
	if r.PagesFailed() != 1 {
		t.Errorf("expected 1 failed page, got %d", r.PagesFailed())
	}

	failures := r.Failures()
	if len(failures) != 1 || failures[0].URL != "http://example.com/missing" {
		t.Errorf("unexpected failures: %+v", failures)
	}
}

// TestCrawlReportTopKeywords tests ranking truncation.
func TestCrawlReportTopKeywords(t *testing.T) {
	t.Parallel()

	r := NewCrawlReport("http://example.com/", 10, 5)
	r.Keywords = []KeywordCount{
		{Phrase: "go", Count: 3},
		{Phrase: "crawler", Count: 2},
		{Phrase: "keyword", Count: 1},
	}

	if got := r.TopKeywords(2); len(got) != 2 || got[1].Phrase != "crawler" {
		t.Errorf("unexpected top keywords: %+v", got)
	}
	if got := r.TopKeywords(0); len(got) != 3 {
		t.Errorf("expected full ranking for n=0, got %d entries", len(got))
	}
	if got := r.TopKeywords(10); len(got) != 3 {
		t.Errorf("expected full ranking for large n, got %d entries", len(got))
	}
}

// TestCrawlReportDuration tests duration calculation.
func TestCrawlReportDuration(t *testing.T) {
	t.Parallel()

	start := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	r := &CrawlReport{
		StartedAt:  start,
		FinishedAt: start.Add(3 * time.Second),
	}

	if r.Duration() != 3*time.Second {
		t.Errorf("expected 3s, got %v", r.Duration())
	}
}
