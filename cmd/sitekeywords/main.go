// Package main provides the entry point for the sitekeywords CLI.
//
// sitekeywords crawls a single website within a page budget, extracts the
// key phrases of every page and ranks them by the number of pages they
// appear on.
//
// Usage:
//
//	sitekeywords crawl https://example.com/
//	sitekeywords crawl -p 50 -f markdown -o keywords.md https://example.com/
//
// See --help for all available options.
package main

func main() {
	Execute()
}
