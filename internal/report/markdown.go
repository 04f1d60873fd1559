package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/nao1215/sitekeywords/internal/model"
)

// chartKeywords is the number of top phrases drawn in the pie chart.
const chartKeywords = 8

// MarkdownWriter outputs reports as GitHub-flavored Markdown: a crawl
// summary, the keyword ranking as a table with a mermaid pie chart, and the
// list of pages that could not be used.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.CrawlReport) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeKeywords(md, report)
	w.writePages(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.CrawlReport) {
	md.H1("Site Keyword Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Seed URL", "`" + report.SeedURL + "`"},
			{"Crawl Date", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", report.Duration().Round(time.Millisecond).String()},
			{"Pages Visited", fmt.Sprintf("%d / %d", report.PagesVisited(), report.MaxPages)},
			{"Pages Failed", strconv.Itoa(report.PagesFailed())},
			{"Keywords per Page", strconv.Itoa(report.TopK)},
			{"Status", statusText(report)},
		},
	})
	md.PlainText("")

	if report.LinksDropped > 0 {
		md.Importantf("%d in-scope link(s) were dropped because the crawl queue was full.", report.LinksDropped)
		md.PlainText("")
	}
}

func statusText(report *model.CrawlReport) string {
	if report.Cancelled {
		return "⚠️ Interrupted (partial results)"
	}
	return "✅ Complete"
}

func (w *MarkdownWriter) writeKeywords(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Keywords")
	md.PlainText("")

	if len(report.Keywords) == 0 {
		md.Warningf("No keywords were extracted from %d visited page(s).", report.PagesVisited())
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Keywords))
	for i, kw := range report.Keywords {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			escapeCell(kw.Phrase),
			strconv.Itoa(kw.Count),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Rank", "Keyword", "Frequency"},
		Rows:   rows,
	})
	md.PlainText("")

	w.writePieChart(md, report)
}

func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, report *model.CrawlReport) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Top Keywords by Page Frequency"),
		piechart.WithShowData(true),
	)

	for _, kw := range report.TopKeywords(chartKeywords) {
		chart.LabelAndIntValue(kw.Phrase, uint64(kw.Count)) //nolint:gosec // Counts are positive.
	}

	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

func (w *MarkdownWriter) writePages(md *markdown.Markdown, report *model.CrawlReport) {
	md.H2("Pages")
	md.PlainText("")

	rows := make([][]string, len(report.Pages))
	for i, p := range report.Pages {
		status := "-"
		if p.StatusCode != 0 {
			status = strconv.Itoa(p.StatusCode)
		}
		keywords := strings.Join(p.Keywords, ", ")
		if p.Failed() {
			keywords = "❌ " + p.Error
		}
		rows[i] = []string{
			escapeCell(p.URL),
			status,
			escapeCell(truncateString(p.Title, 40)),
			escapeCell(truncateString(keywords, 80)),
		}
	}
	md.Table(markdown.TableSet{
		Header: []string{"URL", "Status", "Title", "Keywords"},
		Rows:   rows,
	})
	md.PlainText("")

	failures := report.Failures()
	if len(failures) == 0 {
		md.Tip("Every visited page was fetched and parsed.")
		md.PlainText("")
		return
	}

	md.Warningf("%d page(s) could not be used.", len(failures))
	md.PlainText("")
	for _, f := range failures {
		md.Details(f.URL, f.Error)
	}
	md.PlainText("")
}

func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [sitekeywords](https://github.com/nao1215/sitekeywords)*")
}

// escapeCell keeps pipes in phrases from breaking the table.
func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	runes := []rune(s)
	if len(runes) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(runes[:maxLen])
	}
	return string(runes[:maxLen-3]) + "..."
}
