// Package frontier manages the set of URLs a crawl may still visit.
//
// A Frontier owns the visited set and the pending queue of one crawl session.
// It enforces three rules:
//
//   - Budget: at most maxPages URLs are ever handed out.
//   - Scope: only links on the seed's authority (host[:port]) are queued.
//   - Uniqueness: no URL is handed out twice, and pending never overlaps visited.
//
// The pending queue is FIFO, so traversal is breadth-first, and it is capped
// at a multiple of the budget so that link-heavy pages cannot grow memory
// without bound.
package frontier
