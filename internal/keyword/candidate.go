package keyword

import (
	"strings"
)

// Candidate is a phrase of one or more consecutive words considered for
// keyword ranking.
type Candidate struct {
	// Surface is the phrase as it first appeared in the text.
	Surface string `json:"surface"`

	// Norm is the case-folded phrase; it identifies the candidate.
	Norm string `json:"phrase"`

	// Words holds the normalized constituent words.
	Words []string `json:"-"`

	// Sentences holds the sentence index of every occurrence.
	Sentences []int `json:"-"`

	// Count is the number of occurrences in the document.
	Count int `json:"count"`

	// Index is the generation order, used to break score ties.
	Index int `json:"-"`

	// Score is the candidate score; lower is better.
	Score float64 `json:"score"`
}

// generateCandidates emits every n-gram (n = 1..maxN) that lies inside a single
// phrase block and neither starts nor ends with a stop word. Candidates are
// returned in first-occurrence order with their occurrences merged.
func generateCandidates(sentences []Sentence, maxN int, isStop func(Word) bool) []*Candidate {
	out := make([]*Candidate, 0)
	index := make(map[string]*Candidate)

	for si, sentence := range sentences {
		for _, block := range sentence.blocks() {
			for i := range block {
				if isStop(block[i]) {
					continue
				}
				for n := 1; n <= maxN && i+n <= len(block); n++ {
					span := block[i : i+n]
					if isStop(span[n-1]) {
						continue
					}

					norm := joinWords(span, func(w Word) string { return w.Norm })
					c, ok := index[norm]
					if !ok {
						c = &Candidate{
							Surface: joinWords(span, func(w Word) string { return w.Surface }),
							Norm:    norm,
							Words:   strings.Fields(norm),
							Index:   len(out),
						}
						index[norm] = c
						out = append(out, c)
					}
					c.Count++
					c.Sentences = append(c.Sentences, si)
				}
			}
		}
	}

	return out
}

// joinWords joins one field of each word with single spaces.
func joinWords(words []Word, field func(Word) string) string {
	var sb strings.Builder
	for i, w := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(field(w))
	}
	return sb.String()
}
