// Package pipeline runs the per-page processing steps of a crawl.
//
// Every fetched URL goes through the same stages: fetch the raw content,
// parse it into title, links and normalized text, and extract the page's
// keywords. Each stage is a Step that receives the page and fills in more of
// it.
//
// A failing fetch stops the page; a failing parse leaves the page with no
// text. Neither stops the crawl.
//
// BatchProcessor runs the pipeline over several URLs concurrently with a
// bounded errgroup and returns the pages in request order, so the caller can
// merge results deterministically.
package pipeline
