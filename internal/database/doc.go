// Package database keeps the history of crawl runs in a SQLite file
// (modernc.org/sqlite, no cgo) under the XDG data directory.
//
// Each run is identified by a UUID and stored as three tables: runs holds
// the crawl metadata, pages one row per visited URL with its status and
// per-page keywords, and keywords the final ranking.
package database
