package aggregate

import (
	"cmp"
	"slices"
	"sync"

	"github.com/nao1215/sitekeywords/internal/model"
)

// entry is one row of the frequency table.
type entry struct {
	phrase string
	count  int
	// first is the order in which the phrase was first merged.
	first int
}

// Table is a running phrase frequency table.
//
// Each merge adds one per distinct phrase of a page, so a phrase's count is the
// number of pages it ranked on. Counts only grow. Table is safe for concurrent
// use, and each Merge is applied atomically.
type Table struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// NewTable returns an empty frequency table.
func NewTable() *Table {
	return &Table{
		entries: make(map[string]*entry),
	}
}

// Merge adds one to the count of every distinct phrase in pageKeywords.
// Empty phrases are ignored.
func (t *Table) Merge(pageKeywords []string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	seen := make(map[string]struct{}, len(pageKeywords))
	for _, phrase := range pageKeywords {
		if phrase == "" {
			continue
		}
		if _, dup := seen[phrase]; dup {
			continue
		}
		seen[phrase] = struct{}{}
		t.addLocked(phrase, 1)
	}
}

// MergeTable adds every count of other into t.
// Phrases new to t are appended in other's first-seen order.
func (t *Table) MergeTable(other *Table) {
	if other == nil || other == t {
		return
	}
	rows := other.rows()

	t.mu.Lock()
	defer t.mu.Unlock()
	for _, r := range rows {
		t.addLocked(r.phrase, r.count)
	}
}

// Len returns the number of distinct phrases in the table.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.entries)
}

// Finalize returns the table sorted by count descending.
// Phrases with equal counts keep their first-seen order.
// The table is not modified and may keep receiving merges.
func (t *Table) Finalize() []model.KeywordCount {
	rows := t.rows()
	slices.SortStableFunc(rows, func(a, b entry) int {
		return cmp.Compare(b.count, a.count)
	})

	out := make([]model.KeywordCount, len(rows))
	for i, r := range rows {
		out[i] = model.KeywordCount{Phrase: r.phrase, Count: r.count}
	}
	return out
}

// rows returns a copy of the entries in first-seen order.
func (t *Table) rows() []entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	rows := make([]entry, 0, len(t.entries))
	for _, e := range t.entries {
		rows = append(rows, *e)
	}
	slices.SortFunc(rows, func(a, b entry) int {
		return cmp.Compare(a.first, b.first)
	})
	return rows
}

func (t *Table) addLocked(phrase string, n int) {
	e, ok := t.entries[phrase]
	if !ok {
		e = &entry{phrase: phrase, first: len(t.entries)}
		t.entries[phrase] = e
	}
	e.count += n
}
