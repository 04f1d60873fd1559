package keyword

import (
	"slices"
	"strings"
	"testing"
)

const sampleText = "Machine learning models learn patterns. Machine learning is powerful."

// TestExtractor_Extract tests end-to-end keyword extraction.
func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("ranks the repeated phrase first", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithMaxNGram(2))
		got := e.Extract(sampleText, 3)

		if len(got) == 0 || len(got) > 3 {
			t.Fatalf("expected 1..3 keywords, got %v", got)
		}
		if got[0] != "machine learning" {
			t.Errorf("expected 'machine learning' first, got %v", got)
		}
		if slices.Contains(got, "machine") {
			t.Errorf("expected 'machine' to be merged into 'machine learning', got %v", got)
		}
	})

	t.Run("never returns more than topK", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor()
		for _, k := range []int{1, 2, 5, 50} {
			if got := e.Extract(sampleText, k); len(got) > k {
				t.Errorf("Extract(k=%d) returned %d keywords", k, len(got))
			}
		}
	})

	t.Run("non-positive topK uses the default", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithTopK(1))
		if got := e.Extract(sampleText, 0); len(got) != 1 {
			t.Errorf("expected 1 keyword, got %v", got)
		}
	})

	t.Run("is deterministic", func(t *testing.T) {
		t.Parallel()

		text := "Distributed systems need consensus. Raft and Paxos solve consensus. " +
			"Distributed databases rely on Raft. Consensus keeps replicas consistent."
		e := NewExtractor(WithMaxNGram(3))
		first := e.Extract(text, 10)
		for range 5 {
			if got := e.Extract(text, 10); !slices.Equal(got, first) {
				t.Fatalf("non-deterministic output: %v vs %v", got, first)
			}
		}
	})

	t.Run("empty and stop-only text", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor()
		for _, text := range []string{"", "   ", "the and of it", "12 34, 56."} {
			if got := e.Extract(text, 10); len(got) != 0 {
				t.Errorf("Extract(%q) = %v, want empty", text, got)
			}
		}
	})

	t.Run("custom stop words", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithStopWords([]string{"Machine", "learning"}))
		got := e.Extract(sampleText, 10)
		for _, kw := range got {
			if strings.Contains(kw, "machine") || strings.Contains(kw, "learning") {
				t.Errorf("unexpected stop word in keyword %q", kw)
			}
		}
	})

	t.Run("input is clipped", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithMaxInputBytes(len("Kubernetes clusters")))
		got := e.Extract("Kubernetes clusters. Terraform modules.", 10)
		for _, kw := range got {
			if strings.Contains(kw, "terraform") {
				t.Errorf("expected clipped text to drop 'terraform', got %v", got)
			}
		}
		if len(got) == 0 {
			t.Error("expected keywords from the kept prefix")
		}
	})
}

// TestExtractor_StopWords tests custom stop word lists.
func TestExtractor_StopWords(t *testing.T) {
	t.Parallel()

	t.Run("extends the default list", func(t *testing.T) {
		t.Parallel()

		e := NewExtractor(WithMaxNGram(1), WithStopWords(append(DefaultStopWords(), "learning")))
		got := e.Extract(sampleText, 10)

		if slices.Contains(got, "learning") {
			t.Errorf("expected custom stop word to be skipped, got %v", got)
		}
		if !slices.Contains(got, "machine") {
			t.Errorf("expected 'machine' to remain, got %v", got)
		}
	})

	t.Run("matches after case folding", func(t *testing.T) {
		t.Parallel()

		text := "Die Straße ist lang. Die STRASSE ist breit. Lange Straße im Zentrum."
		e := NewExtractor(WithMaxNGram(1), WithStopWords([]string{"Straße", "die", "ist"}))

		for _, kw := range e.Extract(text, 10) {
			if kw == "strasse" {
				t.Errorf("expected folded stop word to be skipped, got %q", kw)
			}
		}
	})

	t.Run("default list is a copy", func(t *testing.T) {
		t.Parallel()

		words := DefaultStopWords()
		words[0] = "changed"
		if DefaultStopWords()[0] == "changed" {
			t.Error("expected DefaultStopWords to return a fresh copy")
		}
	})
}

// TestExtractor_ExtractCandidates tests candidate shape.
func TestExtractor_ExtractCandidates(t *testing.T) {
	t.Parallel()

	text := "The quick brown fox jumps over the lazy dog. " +
		"A lazy dog sleeps, and the quick fox runs to the forest of the north."

	for _, n := range []int{1, 2, 3} {
		e := NewExtractor(WithMaxNGram(n), WithDedupThreshold(1))
		cands := e.ExtractCandidates(text, 100)

		normText := normalizedText(text)
		for _, c := range cands {
			if len(c.Words) == 0 || len(c.Words) > n {
				t.Errorf("n=%d: candidate %q has %d words", n, c.Norm, len(c.Words))
			}
			first, last := Word{Norm: c.Words[0]}, Word{Norm: c.Words[len(c.Words)-1]}
			if e.isStop(first) || e.isStop(last) {
				t.Errorf("n=%d: candidate %q starts or ends with a stop word", n, c.Norm)
			}
			if !strings.Contains(normText, " "+c.Norm+" ") {
				t.Errorf("n=%d: candidate %q is not a contiguous span of the text", n, c.Norm)
			}
			if c.Count < 1 {
				t.Errorf("n=%d: candidate %q has count %d", n, c.Norm, c.Count)
			}
		}
		for i := 1; i < len(cands); i++ {
			if cands[i-1].Score > cands[i].Score {
				t.Errorf("n=%d: candidates not sorted by score at %d", n, i)
			}
		}
	}
}

// normalizedText joins each phrase block of text with single spaces and
// separates blocks with a pipe so that spans crossing a break never match.
func normalizedText(text string) string {
	var sb strings.Builder
	sb.WriteString(" ")
	for _, s := range Segment(text) {
		for _, b := range s.blocks() {
			sb.WriteString(joinWords(b, func(w Word) string { return w.Norm }))
			sb.WriteString(" | ")
		}
	}
	return sb.String()
}
