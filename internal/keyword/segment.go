package keyword

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
)

// Word is a single token of a sentence.
type Word struct {
	// Surface is the token as it appeared in the text, without the
	// surrounding punctuation.
	Surface string

	// Norm is the case-folded form used for statistics and candidate identity.
	Norm string

	// BreakAfter is set when the token was followed by phrase-breaking
	// punctuation such as a comma or a colon. N-grams never span a break.
	BreakAfter bool
}

// Sentence is an ordered sequence of words.
type Sentence []Word

// sentenceEnders terminate a sentence when they trail a token.
const sentenceEnders = ".!?…"

// Segment splits plain text into sentences of words.
//
// Sentences end at '.', '!', '?' or '…' trailing a token (that is, followed by
// whitespace or end of text) and at line breaks. Words are split on whitespace
// and stripped of leading and trailing punctuation; tokens without any letter
// or digit are dropped. Empty sentences are not returned.
func Segment(text string) []Sentence {
	folder := cases.Fold()
	sentences := make([]Sentence, 0)
	current := make(Sentence, 0)

	flush := func() {
		if len(current) > 0 {
			sentences = append(sentences, current)
			current = make(Sentence, 0)
		}
	}

	for _, line := range strings.Split(text, "\n") {
		for _, token := range strings.Fields(line) {
			lead, core, tail := trimToken(token)
			if lead != "" && len(current) > 0 {
				current[len(current)-1].BreakAfter = true
			}
			if core == "" {
				// Standalone punctuation still separates phrases.
				if len(current) > 0 && tail != "" {
					current[len(current)-1].BreakAfter = true
				}
				if strings.ContainsAny(tail, sentenceEnders) {
					flush()
				}
				continue
			}

			current = append(current, Word{
				Surface:    core,
				Norm:       folder.String(core),
				BreakAfter: tail != "",
			})

			if strings.ContainsAny(tail, sentenceEnders) {
				flush()
			}
		}
		flush()
	}

	return sentences
}

// trimToken strips leading and trailing punctuation and symbols from a token.
// It returns the stripped leading characters, the remaining core and the
// stripped trailing characters. A token without any letter or digit yields
// an empty core and reports all of its characters as tail.
func trimToken(token string) (lead, core, tail string) {
	isEdge := func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	}

	trimmed := strings.TrimRightFunc(token, isEdge)
	tail = token[len(trimmed):]
	core = strings.TrimLeftFunc(trimmed, isEdge)
	lead = trimmed[:len(trimmed)-len(core)]

	if !strings.ContainsFunc(core, func(r rune) bool {
		return unicode.IsLetter(r) || unicode.IsDigit(r)
	}) {
		return "", "", token
	}
	return lead, core, tail
}

// blocks splits a sentence into phrase blocks at words marked BreakAfter.
// The returned blocks share the sentence's backing array.
func (s Sentence) blocks() []Sentence {
	out := make([]Sentence, 0, 1)
	start := 0
	for i, w := range s {
		if w.BreakAfter {
			out = append(out, s[start:i+1])
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}
