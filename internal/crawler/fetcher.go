package crawler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Default fetcher settings.
const (
	// DefaultUserAgent identifies the crawler to the site.
	DefaultUserAgent = "Mozilla/5.0 (compatible; sitekeywords/1.0; +https://github.com/nao1215/sitekeywords)"

	// DefaultTimeout bounds one request including reading the body.
	DefaultTimeout = 30 * time.Second

	// DefaultDelay is the minimum interval between two requests.
	DefaultDelay = 1 * time.Second

	// DefaultMaxBodySize limits the number of body bytes read per page.
	DefaultMaxBodySize int64 = 10 * 1024 * 1024 // 10MB

	// acceptHeader prefers HTML but accepts anything.
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,text/plain;q=0.8,*/*;q=0.5"
)

// Fetcher retrieves raw page content.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*FetchResult, error)
}

// FetchResult is a successful HTTP response.
type FetchResult struct {
	// URL is the final URL after redirects.
	URL string

	// StatusCode is the HTTP response status code.
	StatusCode int

	// ContentType is the Content-Type header value.
	ContentType string

	// Body is the response body, at most the fetcher's max body size.
	Body []byte

	// Truncated is set when the body was cut at the size limit.
	Truncated bool
}

// HTTPFetcher fetches pages over HTTP(S).
// It is safe for concurrent use. Requests are throttled so that each of the
// configured parallel workers issues at most one request per delay.
type HTTPFetcher struct {
	client      *http.Client
	limiter     *rate.Limiter
	delay       time.Duration
	parallelism int
	userAgent   string
	headers     map[string]string
	cookie      string
	maxBodySize int64
}

// FetcherOption configures an HTTPFetcher.
type FetcherOption func(*HTTPFetcher)

// WithHTTPClient sets the HTTP client used for requests.
func WithHTTPClient(client *http.Client) FetcherOption {
	return func(f *HTTPFetcher) {
		if client != nil {
			f.client = client
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) FetcherOption {
	return func(f *HTTPFetcher) {
		if ua != "" {
			f.userAgent = ua
		}
	}
}

// WithHeaders sets extra request headers.
func WithHeaders(headers map[string]string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.headers = headers
	}
}

// WithCookie sets the Cookie header sent with every request.
func WithCookie(cookie string) FetcherOption {
	return func(f *HTTPFetcher) {
		f.cookie = cookie
	}
}

// WithMaxBodySize sets the maximum number of body bytes read per page.
func WithMaxBodySize(size int64) FetcherOption {
	return func(f *HTTPFetcher) {
		if size > 0 {
			f.maxBodySize = size
		}
	}
}

// WithDelay sets the minimum interval between two requests of one worker.
// Zero disables rate limiting.
func WithDelay(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		f.delay = d
	}
}

// WithParallelism sets the number of workers sharing the fetcher. The request
// rate grows with it, so every worker keeps its own delay. Values below 1 are
// ignored.
func WithParallelism(n int) FetcherOption {
	return func(f *HTTPFetcher) {
		if n >= 1 {
			f.parallelism = n
		}
	}
}

// WithTimeout sets the per-request timeout on the fetcher's HTTP client.
func WithTimeout(d time.Duration) FetcherOption {
	return func(f *HTTPFetcher) {
		if d > 0 {
			f.client.Timeout = d
		}
	}
}

// NewHTTPFetcher creates a fetcher with the given options.
func NewHTTPFetcher(opts ...FetcherOption) *HTTPFetcher {
	f := &HTTPFetcher{
		client:      &http.Client{Timeout: DefaultTimeout},
		delay:       DefaultDelay,
		parallelism: 1,
		userAgent:   DefaultUserAgent,
		headers:     map[string]string{},
		maxBodySize: DefaultMaxBodySize,
	}

	for _, opt := range opts {
		opt(f)
	}
	f.limiter = newLimiter(f.delay, f.parallelism)

	return f
}

// newLimiter returns a limiter allowing n requests per d, or nil for d <= 0.
func newLimiter(d time.Duration, n int) *rate.Limiter {
	if d <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(d)*rate.Limit(n), n)
}

// Fetch waits for the rate limiter and performs a GET request.
// Failures are returned as *FetchError unless ctx was cancelled.
func (f *HTTPFetcher) Fetch(ctx context.Context, pageURL string) (*FetchResult, error) {
	if f.limiter != nil {
		if err := f.limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: FetchErrorNetwork, Err: err}
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", acceptHeader)
	req.Header.Set("Accept-Language", "en-US,en;q=0.5")
	for k, v := range f.headers {
		req.Header.Set(k, v)
	}
	if f.cookie != "" {
		req.Header.Set("Cookie", f.cookie)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{URL: pageURL, Kind: classify(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		// Drain a little so the connection can be reused.
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, &FetchError{URL: pageURL, Kind: FetchErrorStatus, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBodySize+1))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &FetchError{URL: pageURL, Kind: classify(err), Err: err}
	}

	result := &FetchResult{
		URL:         resp.Request.URL.String(),
		StatusCode:  resp.StatusCode,
		ContentType: resp.Header.Get("Content-Type"),
		Body:        body,
	}
	if int64(len(body)) > f.maxBodySize {
		result.Body = body[:f.maxBodySize]
		result.Truncated = true
	}

	return result, nil
}

// classify maps a transport error to a FetchErrorKind.
func classify(err error) FetchErrorKind {
	if errors.Is(err, context.DeadlineExceeded) {
		return FetchErrorTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return FetchErrorTimeout
	}
	return FetchErrorNetwork
}
