// Package crawler retrieves pages and turns them into plain text.
//
// # Components
//
//   - HTTPFetcher: rate-limited HTTP GET with a body size limit
//   - Parser: HTML parser that extracts the title, links and readable text
//   - NormalizeText: Unicode and whitespace normalization of extracted text
//
// # Politeness
//
// All requests of one HTTPFetcher share a token-bucket limiter with a burst
// of one, so the configured delay is the minimum interval between requests
// regardless of how many workers fetch concurrently.
//
// # Errors
//
// Failures are reported as *FetchError (network, timeout or HTTP status) and
// *ParseError. Both are recoverable: the crawl records them for the page and
// continues.
//
// # Usage
//
//	fetcher := crawler.NewHTTPFetcher(crawler.WithDelay(time.Second))
//	res, err := fetcher.Fetch(ctx, "https://example.com/")
//	parser, _ := crawler.NewParser(res.URL)
//	parsed, err := parser.Parse(bytes.NewReader(res.Body))
package crawler
