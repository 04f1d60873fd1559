package crawler

import (
	"fmt"
	"net/http"
)

// FetchErrorKind classifies fetch failures.
type FetchErrorKind string

const (
	// FetchErrorNetwork is a transport failure: DNS, connection refused, reset, TLS.
	FetchErrorNetwork FetchErrorKind = "network"

	// FetchErrorTimeout is a request that did not complete in time.
	FetchErrorTimeout FetchErrorKind = "timeout"

	// FetchErrorStatus is a response with an HTTP status of 400 or above.
	FetchErrorStatus FetchErrorKind = "status"
)

// FetchError is returned when a page cannot be retrieved.
// The crawl records it for the page and moves on.
type FetchError struct {
	// URL is the requested URL.
	URL string

	// Kind classifies the failure.
	Kind FetchErrorKind

	// StatusCode is set for FetchErrorStatus.
	StatusCode int

	// Err is the underlying error, nil for status failures.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	if e.Kind == FetchErrorStatus {
		return fmt.Sprintf("fetch %s: HTTP %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("fetch %s: %s: %v", e.URL, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *FetchError) Unwrap() error {
	return e.Err
}

// ParseError is returned when page content cannot be parsed.
// The page is treated as having no text and no links.
type ParseError struct {
	// URL is the page URL.
	URL string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s: %v", e.URL, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
