// Package report writes crawl reports.
//
// Writers:
//   - CSVWriter: the keyword ranking as Keyword,Frequency rows
//   - JSONWriter: the full report for tool integration
//   - MarkdownWriter: a GitHub-flavored document with tables and a chart
//   - SimpleWriter: a plain-text terminal summary
//
// All implement Writer, and MultiWriter fans one report out to several.
package report
