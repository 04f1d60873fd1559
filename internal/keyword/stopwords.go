package keyword

import "golang.org/x/text/cases"

// englishStopWords is the fixed English stop word profile.
// Stop words never start or end a candidate but may appear inside one.
var englishStopWords = []string{
	"a", "about", "above", "after", "again", "against", "all", "also", "am", "an",
	"and", "any", "are", "aren't", "as", "at", "be", "because", "been", "before",
	"being", "below", "between", "both", "but", "by", "can", "cannot", "could",
	"couldn't", "did", "didn't", "do", "does", "doesn't", "doing", "don't", "down",
	"during", "each", "either", "else", "etc", "ever", "every", "few", "for", "from",
	"further", "get", "gets", "got", "had", "hadn't", "has", "hasn't", "have",
	"haven't", "having", "he", "her", "here", "hers", "herself", "him", "himself",
	"his", "how", "however", "i", "if", "in", "into", "is", "isn't", "it", "it's",
	"its", "itself", "just", "let", "let's", "may", "me", "might", "more", "most",
	"much", "must", "my", "myself", "neither", "no", "nor", "not", "now", "of",
	"off", "on", "once", "one", "only", "or", "other", "ought", "our", "ours",
	"ourselves", "out", "over", "own", "per", "same", "shall", "she", "should",
	"shouldn't", "since", "so", "some", "such", "than", "that", "that's", "the",
	"their", "theirs", "them", "themselves", "then", "there", "there's", "these",
	"they", "they're", "this", "those", "though", "through", "thus", "to", "too",
	"under", "until", "up", "upon", "us", "use", "used", "using", "very", "via",
	"was", "wasn't", "we", "we're", "were", "weren't", "what", "when", "where",
	"whether", "which", "while", "who", "whom", "whose", "why", "will", "with",
	"within", "without", "won't", "would", "wouldn't", "yet", "you", "you're",
	"your", "yours", "yourself", "yourselves",
}

// minWordRunes is the minimum length of a word that can anchor a candidate.
// Shorter words are treated like stop words.
const minWordRunes = 3

// newStopSet builds a lookup set from a word list, folded the same way
// as Word.Norm.
func newStopSet(words []string) map[string]struct{} {
	folder := cases.Fold()
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		set[folder.String(w)] = struct{}{}
	}
	return set
}

// DefaultStopWords returns a copy of the built-in English stop word list.
func DefaultStopWords() []string {
	out := make([]string, len(englishStopWords))
	copy(out, englishStopWords)
	return out
}
