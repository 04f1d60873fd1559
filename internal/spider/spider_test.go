package spider

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"sync"
	"testing"

	"github.com/nao1215/sitekeywords/internal/crawler"
	"github.com/nao1215/sitekeywords/internal/frontier"
	"github.com/nao1215/sitekeywords/internal/keyword"
	"github.com/nao1215/sitekeywords/internal/model"
	"github.com/nao1215/sitekeywords/internal/pipeline"
)

// site is an httptest server serving fixed HTML pages and counting hits.
type site struct {
	*httptest.Server

	mu   sync.Mutex
	hits map[string]int
}

func newSite(t *testing.T, pages map[string]string) *site {
	t.Helper()

	s := &site{hits: make(map[string]int)}
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.hits[r.URL.Path]++
		s.mu.Unlock()

		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *site) hitCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

func (s *site) totalHits() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.hits {
		n += c
	}
	return n
}

// newTestSpider builds a spider over the real pipeline with no rate limit.
func newTestSpider(client *http.Client, maxPages int, opts ...Option) *Spider {
	logger := slog.New(slog.DiscardHandler)
	fetcher := crawler.NewHTTPFetcher(crawler.WithHTTPClient(client), crawler.WithDelay(0))
	p := pipeline.DefaultPipeline(fetcher, keyword.NewExtractor(), 10, pipeline.WithLogger(logger))
	return New(p, maxPages, append([]Option{WithLogger(logger), WithTopK(10)}, opts...)...)
}

// foreign rewrites a test server URL onto a different host so that it falls
// outside the scope of another test server.
func foreign(serverURL string) string {
	return strings.Replace(serverURL, "127.0.0.1", "localhost", 1)
}

func page(title, body string, links ...string) string {
	html := "<html><head><title>" + title + "</title></head><body><p>" + body + "</p>"
	for _, l := range links {
		html += `<a href="` + l + `">link</a>`
	}
	return html + "</body></html>"
}

// TestCrawl_Budget tests that a site with three reachable pages and a budget
// of two is crawled exactly twice.
func TestCrawl_Budget(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/":  page("Home", "Gardening tips for tomatoes.", "/a", "/b"),
		"/a": page("A", "Tomato plants need sunlight.", "/b"),
		"/b": page("B", "Compost improves soil.", "/"),
	})

	report, err := newTestSpider(s.Client(), 2).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.PagesVisited() != 2 {
		t.Errorf("expected 2 pages visited, got %d", report.PagesVisited())
	}
	if s.hitCount("/b") != 0 {
		t.Errorf("expected /b never to be fetched, got %d hits", s.hitCount("/b"))
	}
	if s.totalHits() != 2 {
		t.Errorf("expected 2 requests, got %d", s.totalHits())
	}
	if report.Pages[0].URL != s.URL+"/" || report.Pages[1].URL != s.URL+"/a" {
		t.Errorf("unexpected visit order: %+v", report.Pages)
	}
	if report.Cancelled {
		t.Error("expected crawl not to be cancelled")
	}
	if report.FinishedAt.Before(report.StartedAt) {
		t.Error("expected finish time after start time")
	}
}

// TestCrawl_NoRevisit tests that pages linking to each other are fetched once.
func TestCrawl_NoRevisit(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/":  page("Home", "Start here.", "/a", "/a#top", "/b?x=1", "/"),
		"/a": page("A", "Page A.", "/", "/b"),
		"/b": page("B", "Page B.", "/a", "/"),
	})

	report, err := newTestSpider(s.Client(), 50).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if report.PagesVisited() != 3 {
		t.Errorf("expected 3 pages, got %d", report.PagesVisited())
	}
	for _, path := range []string{"/", "/a", "/b"} {
		if n := s.hitCount(path); n != 1 {
			t.Errorf("expected %s fetched once, got %d", path, n)
		}
	}
}

// TestCrawl_Scope tests that links to other sites are never fetched.
func TestCrawl_Scope(t *testing.T) {
	t.Parallel()

	other := newSite(t, map[string]string{
		"/": page("Other", "Elsewhere."),
	})
	s := newSite(t, map[string]string{
		"/":      page("Home", "Local content.", foreign(other.URL)+"/", "mailto:me@example.com", "/local"),
		"/local": page("Local", "More local content."),
	})

	report, err := newTestSpider(s.Client(), 10).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if other.totalHits() != 0 {
		t.Errorf("expected no requests to the other site, got %d", other.totalHits())
	}
	if report.PagesVisited() != 2 {
		t.Errorf("expected 2 pages, got %d", report.PagesVisited())
	}
}

// TestCrawl_FailingSeed tests that a failing seed still yields a report.
func TestCrawl_FailingSeed(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{})

	report, err := newTestSpider(s.Client(), 5).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("expected no error for a fetch failure, got %v", err)
	}
	if report.PagesVisited() != 1 || report.PagesFailed() != 1 {
		t.Errorf("expected one failed page, got %+v", report.Pages)
	}
	if len(report.Keywords) != 0 {
		t.Errorf("expected empty ranking, got %v", report.Keywords)
	}
	failures := report.Failures()
	if len(failures) != 1 || failures[0].StatusCode != http.StatusNotFound {
		t.Errorf("unexpected failures: %+v", failures)
	}
}

// TestCrawl_PartialFailure tests that failed pages do not stop the crawl.
func TestCrawl_PartialFailure(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/":      page("Home", "Distributed tracing explained.", "/gone", "/trace"),
		"/trace": page("Trace", "Distributed tracing with spans."),
	})

	report, err := newTestSpider(s.Client(), 10).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PagesVisited() != 3 || report.PagesFailed() != 1 {
		t.Errorf("expected 3 visited and 1 failed, got %d and %d", report.PagesVisited(), report.PagesFailed())
	}
	if len(report.Keywords) == 0 {
		t.Error("expected keywords from the healthy pages")
	}
}

// TestCrawl_Aggregation tests that the ranking counts pages, not occurrences.
func TestCrawl_Aggregation(t *testing.T) {
	t.Parallel()

	// Identical pages yield identical keyword lists, so every ranked phrase
	// must have been seen on all three pages.
	body := page("Rust", "Rust ownership rules. Rust ownership prevents data races.", "/1", "/2")
	s := newSite(t, map[string]string{"/": body, "/1": body, "/2": body})

	report, err := newTestSpider(s.Client(), 10).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PagesVisited() != 3 {
		t.Fatalf("expected 3 pages, got %d", report.PagesVisited())
	}
	if len(report.Keywords) == 0 {
		t.Fatal("expected a non-empty ranking")
	}
	for _, kw := range report.Keywords {
		if kw.Count != 3 {
			t.Errorf("expected %q counted on 3 pages, got %d", kw.Phrase, kw.Count)
		}
	}
	for _, p := range report.Pages {
		if len(p.Keywords) != len(report.Keywords) {
			t.Errorf("expected %d keywords on %s, got %d", len(report.Keywords), p.URL, len(p.Keywords))
		}
	}
}

// TestCrawl_WorkersDeterministic tests that the worker count does not change the result.
func TestCrawl_WorkersDeterministic(t *testing.T) {
	t.Parallel()

	pages := map[string]string{"/": page("Index", "Index of cloud storage articles.", "/p0", "/p1", "/p2", "/p3")}
	for i := range 4 {
		pages[fmt.Sprintf("/p%d", i)] = page(
			fmt.Sprintf("Article %d", i),
			fmt.Sprintf("Cloud storage pricing part %d. Object storage tiers %d.", i, i),
			fmt.Sprintf("/p%d", (i+1)%4),
		)
	}
	s := newSite(t, pages)

	sequential, err := newTestSpider(s.Client(), 5).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parallel, err := newTestSpider(s.Client(), 5, WithWorkers(3)).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !slices.Equal(sequential.Keywords, parallel.Keywords) {
		t.Errorf("rankings differ:\n%v\n%v", sequential.Keywords, parallel.Keywords)
	}
	for i := range sequential.Pages {
		if sequential.Pages[i].URL != parallel.Pages[i].URL {
			t.Errorf("visit order differs at %d: %s vs %s", i, sequential.Pages[i].URL, parallel.Pages[i].URL)
		}
	}
}

// TestCrawl_Patterns tests that frontier options reach the frontier.
func TestCrawl_Patterns(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/":            page("Home", "Welcome.", "/docs/intro", "/admin/panel"),
		"/docs/intro":  page("Intro", "Introduction."),
		"/admin/panel": page("Admin", "Secret."),
	})

	sp := newTestSpider(s.Client(), 10, WithFrontierOptions(frontier.WithIgnorePatterns([]string{"/admin/*"})))
	report, err := sp.Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.hitCount("/admin/panel") != 0 {
		t.Error("expected ignored path not to be fetched")
	}
	if report.PagesVisited() != 2 {
		t.Errorf("expected 2 pages, got %d", report.PagesVisited())
	}
}

// TestCrawl_OffSiteRedirect tests that a redirect to another site contributes nothing.
func TestCrawl_OffSiteRedirect(t *testing.T) {
	t.Parallel()

	other := newSite(t, map[string]string{
		"/landing": page("Elsewhere", "Foreign content here.", "/more"),
	})

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, foreign(other.URL)+"/landing", http.StatusFound)
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	report, err := newTestSpider(s.Client(), 5).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if report.PagesFailed() != 1 || len(report.Keywords) != 0 {
		t.Errorf("expected redirected page to fail, got %+v", report)
	}
	if other.hitCount("/more") != 0 {
		t.Error("expected links of the foreign page to be ignored")
	}
}

// TestCrawl_SameSiteRedirect tests that the target of a redirect is not
// fetched again when it is linked later.
func TestCrawl_SameSiteRedirect(t *testing.T) {
	t.Parallel()

	pages := map[string]string{
		"/":      page("Home", "Gardening tips.", "/old", "/about"),
		"/about": page("About", "About this garden.", "/new"),
		"/new":   page("New", "Compost improves soil. Compost feeds worms."),
	}

	var mu sync.Mutex
	hits := make(map[string]int)
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		hits[r.URL.Path]++
		mu.Unlock()

		if r.URL.Path == "/old" {
			http.Redirect(w, r, "/new", http.StatusMovedPermanently)
			return
		}
		body, ok := pages[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(body))
	})
	s := httptest.NewServer(mux)
	t.Cleanup(s.Close)

	report, err := newTestSpider(s.Client(), 10).Crawl(context.Background(), s.URL)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mu.Lock()
	newHits := hits["/new"]
	mu.Unlock()
	if newHits != 1 {
		t.Errorf("expected /new fetched once, got %d", newHits)
	}
	if report.PagesVisited() != 3 {
		t.Errorf("expected 3 pages, got %d: %+v", report.PagesVisited(), report.Pages)
	}
	for _, kw := range report.Keywords {
		if kw.Phrase == "compost" && kw.Count != 1 {
			t.Errorf("expected redirected content counted once, got %d", kw.Count)
		}
	}
}

// syncBuffer is a bytes.Buffer safe for concurrent writes.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// TestCrawl_Logging tests the crawl summary written to the log.
func TestCrawl_Logging(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/":  page("Home", "Gardening tips for tomatoes.", "/a", "/admin/x", "https://other.example/"),
		"/a": page("A", "Tomato plants need sunlight."),
	})

	var buf syncBuffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	sp := newTestSpider(s.Client(), 10,
		WithLogger(logger),
		WithFrontierOptions(frontier.WithIgnorePatterns([]string{"/admin/*"})),
	)

	if _, err := sp.Crawl(context.Background(), s.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	output := buf.String()
	for _, want := range []string{
		"scope=127.0.0.1:",
		"steps=\"[fetch parse extract]\"",
		"msg=\"wave merged\"",
		"dropped=2",
		"out_of_scope=1",
		"filtered=1",
		"msg=\"visit order\"",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("expected log to contain %q:\n%s", want, output)
		}
	}
}

// TestCrawl_Progress tests the progress callback.
func TestCrawl_Progress(t *testing.T) {
	t.Parallel()

	s := newSite(t, map[string]string{
		"/":  page("Home", "Home.", "/a"),
		"/a": page("A", "A."),
	})

	var calls []int
	sp := newTestSpider(s.Client(), 10, WithProgress(func(visited, budget int, _ model.PageSummary) {
		if budget != 10 {
			t.Errorf("expected budget 10, got %d", budget)
		}
		calls = append(calls, visited)
	}))
	if _, err := sp.Crawl(context.Background(), s.URL); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !slices.Equal(calls, []int{1, 2}) {
		t.Errorf("unexpected progress calls %v", calls)
	}
}

// TestCrawl_Errors tests session-level errors.
func TestCrawl_Errors(t *testing.T) {
	t.Parallel()

	t.Run("invalid seed", func(t *testing.T) {
		t.Parallel()

		report, err := newTestSpider(http.DefaultClient, 5).Crawl(context.Background(), "not a url")
		if !errors.Is(err, frontier.ErrInvalidURL) {
			t.Errorf("expected ErrInvalidURL, got %v", err)
		}
		if report == nil || report.PagesVisited() != 0 {
			t.Errorf("expected empty report, got %+v", report)
		}
	})

	t.Run("invalid budget", func(t *testing.T) {
		t.Parallel()

		_, err := newTestSpider(http.DefaultClient, 0).Crawl(context.Background(), "https://example.com/")
		if !errors.Is(err, frontier.ErrInvalidBudget) {
			t.Errorf("expected ErrInvalidBudget, got %v", err)
		}
	})

	t.Run("cancelled context", func(t *testing.T) {
		t.Parallel()

		s := newSite(t, map[string]string{"/": page("Home", "Home.")})

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		report, err := newTestSpider(s.Client(), 5).Crawl(ctx, s.URL)
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if report == nil || !report.Cancelled {
			t.Errorf("expected cancelled report, got %+v", report)
		}
		if s.totalHits() != 0 {
			t.Errorf("expected no requests, got %d", s.totalHits())
		}
	})
}
