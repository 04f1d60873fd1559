package model

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Page represents one fetched URL and everything derived from it.
// A Page is created by the crawl session when a URL is taken from the frontier
// and filled in by the per-page pipeline steps (fetch, parse, extract).
type Page struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// FinalURL is the URL the content was served from after redirects.
	// Relative links on the page resolve against it.
	FinalURL string `json:"final_url,omitempty"`

	// StatusCode is the HTTP response status code.
	// Zero when the request never produced a response.
	StatusCode int `json:"status_code,omitempty"`

	// ContentType is the MIME type of the response.
	ContentType string `json:"content_type,omitempty"`

	// Title is the page title extracted from the <title> tag.
	Title string `json:"title,omitempty"`

	// Raw contains the response body bytes, limited by the fetcher's max body size.
	Raw []byte `json:"-"`

	// Hash is the SHA-256 hash of Raw.
	Hash string `json:"hash,omitempty"`

	// Text is the normalized plain text of the page with markup,
	// scripts and styles removed.
	Text string `json:"-"`

	// Links contains the absolute URLs discovered on the page.
	// They are not filtered yet; the frontier applies scope rules on absorption.
	Links []string `json:"-"`

	// Keywords is the ranked per-page keyword list, best first.
	Keywords []string `json:"keywords,omitempty"`

	// Scores holds the extraction score of each entry of Keywords.
	// Lower is more relevant.
	Scores []float64 `json:"scores,omitempty"`

	// Err is the error that stopped processing of the page, if any.
	Err error `json:"-"`
}

// MaxTextSize is the maximum size of normalized text kept for a page.
const MaxTextSize = 1024 * 1024 // 1 MiB

// NewPage returns an empty Page for the given URL.
func NewPage(url string) *Page {
	return &Page{URL: url}
}

// BaseURL returns the URL relative links resolve against.
func (p *Page) BaseURL() string {
	if p.FinalURL != "" {
		return p.FinalURL
	}
	return p.URL
}

// ComputeHash calculates and sets the SHA-256 hash of the page's raw content.
func (p *Page) ComputeHash() {
	if len(p.Raw) == 0 {
		p.Hash = ""
		return
	}

	hash := sha256.Sum256(p.Raw)
	p.Hash = hex.EncodeToString(hash[:])
}

// IsHTML returns true if the page content type indicates HTML.
// An empty content type is treated as HTML because many small servers omit it.
func (p *Page) IsHTML() bool {
	ct := strings.ToLower(strings.TrimSpace(p.ContentType))
	if ct == "" {
		return true
	}
	return strings.HasPrefix(ct, "text/html") || strings.HasPrefix(ct, "application/xhtml+xml")
}

// IsText returns true if the content can be treated as plain text.
func (p *Page) IsText() bool {
	return strings.HasPrefix(strings.ToLower(p.ContentType), "text/")
}

// Failed reports whether processing of the page stopped with an error.
func (p *Page) Failed() bool {
	return p.Err != nil
}

// TruncateText ensures Text doesn't exceed MaxTextSize.
// The cut is moved back to a rune boundary so the text stays valid UTF-8.
func (p *Page) TruncateText() {
	if len(p.Text) <= MaxTextSize {
		return
	}
	cut := MaxTextSize
	for cut > 0 && !utf8.RuneStart(p.Text[cut]) {
		cut--
	}
	p.Text = p.Text[:cut]
}

// Summary returns the persisted, serializable view of the page.
func (p *Page) Summary() PageSummary {
	s := PageSummary{
		URL:          p.URL,
		StatusCode:   p.StatusCode,
		Title:        p.Title,
		Keywords:     p.Keywords,
		Scores:       p.Scores,
		LinksFound:   len(p.Links),
		ContentBytes: len(p.Raw),
	}
	if p.Err != nil {
		s.Error = p.Err.Error()
	}
	return s
}

// PageSummary is the part of a Page that ends up in reports and in the history database.
type PageSummary struct {
	// URL is the normalized URL that was fetched.
	URL string `json:"url"`

	// StatusCode is the HTTP status code, zero when no response was received.
	StatusCode int `json:"status_code,omitempty"`

	// Title is the page title.
	Title string `json:"title,omitempty"`

	// Keywords is the per-page keyword list, best first.
	Keywords []string `json:"keywords,omitempty"`

	// Scores parallels Keywords. Lower is more relevant.
	Scores []float64 `json:"scores,omitempty"`

	// LinksFound is the number of links discovered on the page before scope filtering.
	LinksFound int `json:"links_found"`

	// ContentBytes is the number of body bytes read.
	ContentBytes int `json:"content_bytes"`

	// Error is the failure message for pages that contributed nothing.
	Error string `json:"error,omitempty"`
}

// Failed reports whether the page failed.
func (s PageSummary) Failed() bool {
	return s.Error != ""
}

// ScoredKeywords formats the keywords with their scores as "phrase (score)".
// Keywords without a score are returned as is.
func (s PageSummary) ScoredKeywords() []string {
	out := make([]string, len(s.Keywords))
	for i, kw := range s.Keywords {
		if i < len(s.Scores) {
			out[i] = fmt.Sprintf("%s (%.4f)", kw, s.Scores[i])
		} else {
			out[i] = kw
		}
	}
	return out
}
