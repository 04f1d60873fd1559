package keyword

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Default extraction settings.
const (
	// DefaultMaxNGram is the longest candidate phrase in words.
	DefaultMaxNGram = 2

	// DefaultTopK is the number of keywords returned per text.
	DefaultTopK = 10

	// DefaultMaxInputBytes bounds the text considered by one extraction.
	DefaultMaxInputBytes = 1 << 20
)

// Extractor extracts ranked keywords and key phrases from plain text.
// An Extractor holds configuration only and is safe for concurrent use.
type Extractor struct {
	maxNGram       int
	topK           int
	dedupThreshold float64
	maxInputBytes  int
	stopWords      map[string]struct{}
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxNGram sets the longest candidate phrase in words.
// Values below 1 are ignored.
func WithMaxNGram(n int) Option {
	return func(e *Extractor) {
		if n >= 1 {
			e.maxNGram = n
		}
	}
}

// WithTopK sets the default number of keywords returned.
// Values below 1 are ignored.
func WithTopK(k int) Option {
	return func(e *Extractor) {
		if k >= 1 {
			e.topK = k
		}
	}
}

// WithDedupThreshold sets the similarity above which candidates are merged.
func WithDedupThreshold(threshold float64) Option {
	return func(e *Extractor) {
		e.dedupThreshold = threshold
	}
}

// WithStopWords replaces the stop word list. Words are matched after case folding.
func WithStopWords(words []string) Option {
	return func(e *Extractor) {
		e.stopWords = newStopSet(words)
	}
}

// WithMaxInputBytes bounds the length of text considered by one extraction.
// Longer input is cut at a rune boundary. Values below 1 are ignored.
func WithMaxInputBytes(n int) Option {
	return func(e *Extractor) {
		if n >= 1 {
			e.maxInputBytes = n
		}
	}
}

// NewExtractor creates an Extractor with the given options.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{
		maxNGram:       DefaultMaxNGram,
		topK:           DefaultTopK,
		dedupThreshold: DefaultDedupThreshold,
		maxInputBytes:  DefaultMaxInputBytes,
		stopWords:      newStopSet(englishStopWords),
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// TopK returns the default number of keywords returned per text.
func (e *Extractor) TopK() int {
	return e.topK
}

// Extract returns at most topK normalized keywords of text, best first.
// A non-positive topK uses the extractor's default.
func (e *Extractor) Extract(text string, topK int) []string {
	cands := e.ExtractCandidates(text, topK)
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Norm
	}
	return out
}

// ExtractCandidates runs the full pipeline (segmentation, candidate generation,
// scoring, deduplication) and returns at most topK scored candidates, best first.
// A non-positive topK uses the extractor's default.
func (e *Extractor) ExtractCandidates(text string, topK int) []Candidate {
	if topK <= 0 {
		topK = e.topK
	}

	sentences := Segment(e.clip(text))
	if len(sentences) == 0 {
		return []Candidate{}
	}

	doc := newDocument(sentences, e.isStop)
	generated := generateCandidates(sentences, e.maxNGram, e.isStop)

	cands := make([]Candidate, 0, len(generated))
	for _, c := range generated {
		c.Score = doc.score(c)
		cands = append(cands, *c)
	}

	return Dedupe(cands, e.dedupThreshold, topK)
}

// isStop reports whether a word cannot anchor a candidate.
func (e *Extractor) isStop(w Word) bool {
	if utf8.RuneCountInString(w.Norm) < minWordRunes {
		return true
	}
	if !strings.ContainsFunc(w.Norm, unicode.IsLetter) {
		return true
	}
	_, ok := e.stopWords[w.Norm]
	return ok
}

// clip cuts text to the configured input bound at a rune boundary.
func (e *Extractor) clip(text string) string {
	if len(text) <= e.maxInputBytes {
		return text
	}
	cut := e.maxInputBytes
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut]
}
