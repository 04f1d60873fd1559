package keyword

import (
	"cmp"
	"slices"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"
)

// DefaultDedupThreshold is the similarity above which two candidates are
// considered near-duplicates.
const DefaultDedupThreshold = 0.3

// Similarity returns the normalized edit-distance similarity of two phrases
// in [0, 1]: 1 for identical strings, 0 for completely different ones.
func Similarity(a, b string) float64 {
	longest := max(utf8.RuneCountInString(a), utf8.RuneCountInString(b))
	if longest == 0 {
		return 1
	}
	return 1 - float64(levenshtein.ComputeDistance(a, b))/float64(longest)
}

// SortCandidates orders candidates by score ascending. Ties keep generation order.
func SortCandidates(cands []Candidate) {
	slices.SortStableFunc(cands, func(a, b Candidate) int {
		if c := cmp.Compare(a.Score, b.Score); c != 0 {
			return c
		}
		return cmp.Compare(a.Index, b.Index)
	})
}

// Dedupe sorts the candidates and drops every candidate whose normalized form
// is more similar than threshold to a better-scored candidate already kept.
// It stops once limit candidates are kept; a non-positive limit keeps all.
// The input slice is reordered in place.
func Dedupe(cands []Candidate, threshold float64, limit int) []Candidate {
	SortCandidates(cands)

	kept := make([]Candidate, 0, min(len(cands), max(limit, 0)))
	for _, c := range cands {
		if limit > 0 && len(kept) >= limit {
			break
		}
		if isNearDuplicate(c, kept, threshold) {
			continue
		}
		kept = append(kept, c)
	}
	return kept
}

// isNearDuplicate reports whether c is too similar to any kept candidate.
func isNearDuplicate(c Candidate, kept []Candidate, threshold float64) bool {
	for _, k := range kept {
		if k.Norm == c.Norm || Similarity(k.Norm, c.Norm) > threshold {
			return true
		}
	}
	return false
}
