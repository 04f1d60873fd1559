package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/nao1215/sitekeywords/internal/model"
)

// DefaultSimpleKeywords is the number of ranking rows shown by SimpleWriter.
const DefaultSimpleKeywords = 20

// SimpleWriter outputs a plain-text summary for the terminal: crawl
// statistics, the head of the ranking and the failed pages.
type SimpleWriter struct {
	baseWriter

	// limit is the number of ranking rows shown. Zero or less shows all.
	limit int

	// verbose lists every visited page with its scored keywords.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithLimit sets the number of ranking rows shown. Zero or less shows all.
func WithLimit(n int) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.limit = n
	}
}

// WithVerbose lists every visited page with its scored keywords.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
		limit:      DefaultSimpleKeywords,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.CrawlReport) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeKeywords(&sb, report)
	if w.verbose {
		w.writePages(&sb, report)
	}
	w.writeFailures(&sb, report)

	return io.WriteString(w.output, sb.String())
}

func rule(sb *strings.Builder, c string) {
	sb.WriteString(strings.Repeat(c, 70))
	sb.WriteString("\n")
}

func section(sb *strings.Builder, title string) {
	rule(sb, "-")
	sb.WriteString(title)
	sb.WriteString("\n")
	rule(sb, "-")
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.CrawlReport) {
	sb.WriteString("\n")
	rule(sb, "=")
	sb.WriteString("                       SITE KEYWORD REPORT\n")
	rule(sb, "=")
	sb.WriteString("\n")

	fmt.Fprintf(sb, "Seed URL:       %s\n", report.SeedURL)
	if report.ID != "" {
		fmt.Fprintf(sb, "Run ID:         %s\n", report.ID)
	}
	fmt.Fprintf(sb, "Crawl Date:     %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	fmt.Fprintf(sb, "Duration:       %s\n", report.Duration().Round(time.Millisecond))
	fmt.Fprintf(sb, "Pages Visited:  %d / %d\n", report.PagesVisited(), report.MaxPages)
	fmt.Fprintf(sb, "Pages Failed:   %d\n", report.PagesFailed())
	if report.LinksDropped > 0 {
		fmt.Fprintf(sb, "Links Dropped:  %d (queue full)\n", report.LinksDropped)
	}

	if report.Cancelled {
		sb.WriteString("Status:         INTERRUPTED (partial results)\n")
	} else {
		sb.WriteString("Status:         Complete\n")
	}

	sb.WriteString("\n")
}

func (w *SimpleWriter) writeKeywords(sb *strings.Builder, report *model.CrawlReport) {
	shown := report.TopKeywords(w.limit)
	section(sb, fmt.Sprintf("KEYWORDS (%d of %d)", len(shown), len(report.Keywords)))

	if len(shown) == 0 {
		sb.WriteString("  No keywords extracted\n\n")
		return
	}

	width := 0
	for _, kw := range shown {
		width = max(width, len([]rune(kw.Phrase)))
	}
	for i, kw := range shown {
		pad := width - len([]rune(kw.Phrase))
		fmt.Fprintf(sb, "  %3d. %s%s  %d\n", i+1, kw.Phrase, strings.Repeat(" ", pad), kw.Count)
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.CrawlReport) {
	section(sb, "PAGES")

	for _, p := range report.Pages {
		if p.Failed() {
			continue
		}
		fmt.Fprintf(sb, "  [%d] %s\n", p.StatusCode, p.URL)
		if p.Title != "" {
			fmt.Fprintf(sb, "      Title: %s\n", p.Title)
		}
		if len(p.Keywords) > 0 {
			fmt.Fprintf(sb, "      Keywords: %s\n", strings.Join(p.ScoredKeywords(), ", "))
		}
	}
	sb.WriteString("\n")
}

func (w *SimpleWriter) writeFailures(sb *strings.Builder, report *model.CrawlReport) {
	failures := report.Failures()
	if len(failures) == 0 {
		return
	}

	section(sb, fmt.Sprintf("FAILED PAGES (%d)", len(failures)))
	for _, f := range failures {
		fmt.Fprintf(sb, "  [!] %s\n", f.URL)
		fmt.Fprintf(sb, "      %s\n", f.Error)
	}
	sb.WriteString("\n")
}
