package frontier

import (
	"fmt"
	"net/url"
	"slices"
	"strings"
	"sync"
)

// DefaultPendingFactor bounds the pending queue to this many entries per page
// of budget.
const DefaultPendingFactor = 100

// Frontier decides which URL is fetched next during a crawl.
//
// It enforces the page budget, keeps the crawl on the seed's authority and
// guarantees that no URL is handed out twice. URLs leave the queue in FIFO
// order, so the crawl is breadth-first from the seed.
type Frontier struct {
	// mu serializes Next and Absorb.
	mu sync.Mutex

	// authority is the normalized host[:port] of the seed.
	authority string

	// scheme is the seed's scheme. In-scope links are rewritten to it.
	scheme string

	// budget is the maximum number of URLs handed out by Next.
	budget int

	// pendingFactor multiplies budget to give the pending queue capacity.
	pendingFactor int

	ignorePatterns []string
	followPatterns []string

	// pending is the FIFO queue of URLs waiting to be fetched.
	pending []string

	// queued mirrors pending for membership checks.
	queued map[string]struct{}

	// visited holds every URL handed out by Next or marked by MarkVisited.
	// It only grows.
	visited map[string]struct{}

	// order records the URLs handed out by Next. Its length is the budget spent.
	order []string

	outOfScope int
	filtered   int
	overflowed int
}

// Option configures a Frontier.
type Option func(*Frontier)

// WithIgnorePatterns sets URL path patterns to skip.
// Patterns use glob syntax (e.g., "/admin/*", "*.pdf", "/logout*").
func WithIgnorePatterns(patterns []string) Option {
	return func(f *Frontier) {
		f.ignorePatterns = patterns
	}
}

// WithFollowPatterns restricts the crawl to URL paths matching at least one
// pattern. An empty list allows every path that is not ignored.
func WithFollowPatterns(patterns []string) Option {
	return func(f *Frontier) {
		f.followPatterns = patterns
	}
}

// WithPendingFactor sets the pending queue capacity as a multiple of the
// page budget. Values below 1 are ignored.
func WithPendingFactor(factor int) Option {
	return func(f *Frontier) {
		if factor >= 1 {
			f.pendingFactor = factor
		}
	}
}

// New creates a Frontier seeded with seedURL that hands out at most maxPages URLs.
// The seed must be an absolute http or https URL.
func New(seedURL string, maxPages int, opts ...Option) (*Frontier, error) {
	if maxPages < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidBudget, maxPages)
	}

	u, err := url.Parse(strings.TrimSpace(seedURL))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidURL, err)
	}
	if !u.IsAbs() {
		return nil, fmt.Errorf("%w: seed %q is not absolute", ErrInvalidURL, seedURL)
	}
	if err := normalizeURL(u); err != nil {
		return nil, err
	}

	f := &Frontier{
		authority:     u.Host,
		scheme:        u.Scheme,
		budget:        maxPages,
		pendingFactor: DefaultPendingFactor,
		pending:       make([]string, 0, 1),
		queued:        make(map[string]struct{}),
		visited:       make(map[string]struct{}),
		order:         make([]string, 0, maxPages),
	}
	for _, opt := range opts {
		opt(f)
	}

	seed := u.String()
	f.pending = append(f.pending, seed)
	f.queued[seed] = struct{}{}

	return f, nil
}

// Authority returns the normalized host[:port] the crawl is confined to.
func (f *Frontier) Authority() string {
	return f.authority
}

// InScope reports whether raw is an absolute http(s) URL on the crawl's authority.
func (f *Frontier) InScope(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() {
		return false
	}
	if err := normalizeURL(u); err != nil {
		return false
	}
	return u.Host == f.authority
}

// HasNext reports whether Next would return a URL.
func (f *Frontier) HasNext() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.hasNextLocked()
}

func (f *Frontier) hasNextLocked() bool {
	return len(f.pending) > 0 && len(f.order) < f.budget
}

// Next pops the head of the queue and marks it visited in one step.
// It returns false when the queue is empty or the budget is spent.
// A URL returned by Next counts against the budget even if fetching it fails.
func (f *Frontier) Next() (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if !f.hasNextLocked() {
		return "", false
	}

	next := f.pending[0]
	f.pending[0] = ""
	f.pending = f.pending[1:]
	delete(f.queued, next)

	f.visited[next] = struct{}{}
	f.order = append(f.order, next)
	return next, true
}

// Absorb resolves links against baseURL and enqueues the in-scope ones that
// were never seen before. It returns the number of links enqueued.
//
// Links are dropped when they are not http(s), point to another authority,
// are rejected by the path patterns, are already visited or pending, or
// arrive while the pending queue is full. A link on the crawl's authority
// takes the seed's scheme, so http and https forms are one URL.
func (f *Frontier) Absorb(baseURL string, links []string) int {
	base, err := url.Parse(baseURL)
	if err != nil {
		return 0
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	capacity := f.budget * f.pendingFactor
	added := 0
	for _, link := range links {
		ref, err := url.Parse(strings.TrimSpace(link))
		if err != nil {
			f.outOfScope++
			continue
		}
		u := base.ResolveReference(ref)
		if err := normalizeURL(u); err != nil {
			f.outOfScope++
			continue
		}
		if u.Host != f.authority {
			f.outOfScope++
			continue
		}
		u.Scheme = f.scheme
		if !allowed(pathOf(u), f.ignorePatterns, f.followPatterns) {
			f.filtered++
			continue
		}

		s := u.String()
		if _, ok := f.visited[s]; ok {
			continue
		}
		if _, ok := f.queued[s]; ok {
			continue
		}
		if len(f.pending) >= capacity {
			f.overflowed++
			continue
		}

		f.pending = append(f.pending, s)
		f.queued[s] = struct{}{}
		added++
	}

	return added
}

// MarkVisited records raw as visited without spending budget, and removes it
// from the queue if it is pending. It is used for the target of a redirect,
// whose content was already fetched under another URL. Out-of-scope URLs are
// ignored. It reports whether raw was newly marked.
func (f *Frontier) MarkVisited(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || !u.IsAbs() {
		return false
	}
	if err := normalizeURL(u); err != nil || u.Host != f.authority {
		return false
	}
	u.Scheme = f.scheme
	s := u.String()

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.visited[s]; ok {
		return false
	}
	f.visited[s] = struct{}{}

	if _, ok := f.queued[s]; ok {
		delete(f.queued, s)
		f.pending = slices.DeleteFunc(f.pending, func(p string) bool { return p == s })
	}
	return true
}

// Visited returns the URLs handed out so far, in visit order.
func (f *Frontier) Visited() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, len(f.order))
	copy(out, f.order)
	return out
}

// Stats returns a snapshot of the frontier counters.
func (f *Frontier) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()

	return Stats{
		Visited:    len(f.order),
		Pending:    len(f.pending),
		Budget:     f.budget,
		OutOfScope: f.outOfScope,
		Filtered:   f.filtered,
		Overflowed: f.overflowed,
	}
}

// Stats contains frontier counters.
type Stats struct {
	// Visited is the number of URLs handed out by Next.
	Visited int

	// Pending is the number of URLs waiting in the queue.
	Pending int

	// Budget is the maximum number of URLs that can be visited.
	Budget int

	// OutOfScope counts links that were not http(s) or pointed to another authority.
	OutOfScope int

	// Filtered counts links rejected by ignore or follow patterns.
	Filtered int

	// Overflowed counts links dropped because the pending queue was full.
	Overflowed int
}

// Dropped returns the number of links that never entered the queue because
// of scope, path filters or queue capacity.
func (s Stats) Dropped() int {
	return s.OutOfScope + s.Filtered + s.Overflowed
}
