package keyword

import (
	"math"
	"slices"
	"unicode"
)

// termStats holds the per-document statistics of one normalized word.
// It only lives for the duration of a single extraction.
type termStats struct {
	norm string

	// tf is the number of occurrences in the document.
	tf int

	// upper counts occurrences that start with an upper-case letter and are
	// not the first word of their sentence.
	upper int

	// acronym counts all-upper-case occurrences of two or more letters.
	acronym int

	// sentences holds the sentence index of every occurrence.
	sentences []int

	// left and right map neighbor words within the co-occurrence window
	// to the number of times they were seen on that side.
	left  map[string]int
	right map[string]int

	stop bool

	// score is the single-word score H; lower is better.
	score float64
}

// document aggregates term statistics over all sentences of one text.
// Terms are kept in first-seen order so that every floating point reduction
// runs in a deterministic order.
type document struct {
	terms     []*termStats
	index     map[string]*termStats
	sentences int
}

// newDocument computes the term statistics of the given sentences.
func newDocument(sentences []Sentence, isStop func(Word) bool) *document {
	doc := &document{
		terms:     make([]*termStats, 0),
		index:     make(map[string]*termStats),
		sentences: len(sentences),
	}

	for si, sentence := range sentences {
		pos := 0
		for _, block := range sentence.blocks() {
			for j, w := range block {
				t := doc.term(w, isStop)
				t.tf++
				t.sentences = append(t.sentences, si)

				switch {
				case isAcronym(w.Surface):
					t.acronym++
				case pos > 0 && startsUpper(w.Surface):
					t.upper++
				}

				if j > 0 {
					prev := doc.index[block[j-1].Norm]
					t.left[prev.norm]++
					prev.right[t.norm]++
				}
				pos++
			}
		}
	}

	doc.computeScores()
	return doc
}

// term returns the statistics entry for a word, creating it on first sight.
func (d *document) term(w Word, isStop func(Word) bool) *termStats {
	if t, ok := d.index[w.Norm]; ok {
		return t
	}
	t := &termStats{
		norm:      w.Norm,
		sentences: make([]int, 0, 1),
		left:      make(map[string]int),
		right:     make(map[string]int),
		stop:      isStop(w),
	}
	d.index[w.Norm] = t
	d.terms = append(d.terms, t)
	return t
}

// computeScores calculates the single-word score of every term.
//
//	H = (Position × Relatedness) / (Casing + Frequency/Relatedness + Spread/Relatedness)
func (d *document) computeScores() {
	validTFs := make([]float64, 0, len(d.terms))
	maxTF := 0
	for _, t := range d.terms {
		if !t.stop {
			validTFs = append(validTFs, float64(t.tf))
		}
		maxTF = max(maxTF, t.tf)
	}
	if len(validTFs) == 0 || d.sentences == 0 {
		return
	}

	mean, std := meanStd(validTFs)
	norm := mean + std

	for _, t := range d.terms {
		tf := float64(t.tf)

		casing := float64(max(t.upper, t.acronym)) / (1 + math.Log(tf))
		position := math.Log(math.Log(3 + median(t.sentences)))
		frequency := tf / norm
		relatedness := 1 + (sideRatio(t.left)+sideRatio(t.right))*tf/float64(maxTF)
		spread := float64(distinct(t.sentences)) / float64(d.sentences)

		t.score = (position * relatedness) / (casing + frequency/relatedness + spread/relatedness)
	}
}

// score computes the score of a candidate from the scores of its words.
//
//	S = Π H / ((1 + Σ H) × TF × (1 + C))
//
// The product and the sum run over the non-stop words of the candidate. TF is
// the candidate's own frequency and C = TF / min(word TF) is its cohesion, the
// share of the rarest word's occurrences that happen inside the phrase.
func (d *document) score(c *Candidate) float64 {
	prod, sum := 1.0, 0.0
	minTF := math.MaxInt
	for _, w := range c.Words {
		t := d.index[w]
		if t == nil || t.stop {
			continue
		}
		prod *= t.score
		sum += t.score
		minTF = min(minTF, t.tf)
	}
	if minTF == math.MaxInt || c.Count == 0 {
		return math.Inf(1)
	}

	cohesion := min(1.0, float64(c.Count)/float64(minTF))
	return prod / ((1 + sum) * float64(c.Count) * (1 + cohesion))
}

// sideRatio returns distinct neighbors divided by total co-occurrences on one side.
func sideRatio(side map[string]int) float64 {
	total := 0
	for _, n := range side {
		total += n
	}
	if total == 0 {
		return 0
	}
	return float64(len(side)) / float64(total)
}

// meanStd returns the mean and population standard deviation of values.
func meanStd(values []float64) (float64, float64) {
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))

	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// median returns the median of the sentence indices.
func median(indices []int) float64 {
	if len(indices) == 0 {
		return 0
	}
	sorted := slices.Clone(indices)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return float64(sorted[mid])
	}
	return float64(sorted[mid-1]+sorted[mid]) / 2
}

// distinct counts distinct values in a sorted-or-unsorted slice of indices.
func distinct(indices []int) int {
	seen := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		seen[i] = struct{}{}
	}
	return len(seen)
}

// isAcronym reports whether s consists of at least two letters, all upper-case.
func isAcronym(s string) bool {
	letters := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			if !unicode.IsUpper(r) {
				return false
			}
			letters++
		}
	}
	return letters >= 2
}

// startsUpper reports whether the first letter of s is upper-case.
func startsUpper(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return unicode.IsUpper(r)
		}
	}
	return false
}
