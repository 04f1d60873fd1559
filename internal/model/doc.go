// Package model defines the core data structures shared by the crawler,
// the per-page pipeline, the report writers and the history database.
//
// This package contains the following main types:
//   - Page: one visited URL with its fetched body, text, links and keywords
//   - PageSummary: the serializable view of a Page
//   - CrawlReport: the result of one crawl session
//   - KeywordCount: one row of the final keyword ranking
//
// The models live in their own package so that crawler, pipeline, spider,
// report and database can share them without import cycles.
package model
