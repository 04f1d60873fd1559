package main

import (
	"encoding/json"
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/sitekeywords/internal/database"
	"github.com/nao1215/sitekeywords/internal/model"
)

// TestNewCompareCmd tests the compare command creation.
func TestNewCompareCmd(t *testing.T) {
	t.Parallel()

	cmd := NewCompareCmd()

	if cmd.Use != "compare <seed-url>" {
		t.Errorf("unexpected Use: got %q", cmd.Use)
	}

	flagsWithShort := map[string]string{
		"with-run-id": "i",
		"top":         "n",
		"json":        "j",
		"markdown":    "m",
		"db-dir":      "",
	}
	for flag, shorthand := range flagsWithShort {
		f := cmd.Flags().Lookup(flag)
		if f == nil {
			t.Errorf("expected flag %q to exist", flag)
			continue
		}
		if f.Shorthand != shorthand {
			t.Errorf("flag %q: expected shorthand %q, got %q", flag, shorthand, f.Shorthand)
		}
	}
}

// TestCompareRankings tests the ranking diff.
func TestCompareRankings(t *testing.T) {
	t.Parallel()

	t.Run("classifies keywords", func(t *testing.T) {
		t.Parallel()

		previous := []model.KeywordCount{kw("rust", 5), kw("memory", 4), kw("borrowing", 3), kw("cargo", 2)}
		current := []model.KeywordCount{kw("borrowing", 6), kw("memory", 4), kw("traits", 2), kw("cargo", 1)}

		got := compareRankings(previous, current)

		if want := []model.KeywordCount{kw("traits", 2)}; !reflect.DeepEqual(got.NewKeywords, want) {
			t.Errorf("new = %v, want %v", got.NewKeywords, want)
		}
		if want := []model.KeywordCount{kw("rust", 5)}; !reflect.DeepEqual(got.DroppedKeywords, want) {
			t.Errorf("dropped = %v, want %v", got.DroppedKeywords, want)
		}
		wantChanged := []RankChange{
			{Phrase: "borrowing", PreviousRank: 3, CurrentRank: 1, PreviousCount: 3, CurrentCount: 6},
			{Phrase: "cargo", PreviousRank: 4, CurrentRank: 4, PreviousCount: 2, CurrentCount: 1},
		}
		if !reflect.DeepEqual(got.ChangedKeywords, wantChanged) {
			t.Errorf("changed = %+v, want %+v", got.ChangedKeywords, wantChanged)
		}
		if got.UnchangedCount != 1 {
			t.Errorf("unchanged = %d, want 1", got.UnchangedCount)
		}
	})

	t.Run("identical rankings", func(t *testing.T) {
		t.Parallel()

		ranking := []model.KeywordCount{kw("a", 2), kw("b", 1)}
		got := compareRankings(ranking, ranking)
		if len(got.NewKeywords)+len(got.DroppedKeywords)+len(got.ChangedKeywords) != 0 {
			t.Errorf("expected no differences, got %+v", got)
		}
		if got.UnchangedCount != 2 {
			t.Errorf("unchanged = %d, want 2", got.UnchangedCount)
		}
	})

	t.Run("rank delta is positive when moving up", func(t *testing.T) {
		t.Parallel()

		c := RankChange{PreviousRank: 5, CurrentRank: 2}
		if c.RankDelta() != 3 {
			t.Errorf("RankDelta() = %d, want 3", c.RankDelta())
		}
	})
}

func TestLimitKeywords(t *testing.T) {
	t.Parallel()

	ranking := []model.KeywordCount{kw("a", 3), kw("b", 2), kw("c", 1)}
	tests := []struct {
		n    int
		want int
	}{
		{n: 0, want: 3},
		{n: 2, want: 2},
		{n: 5, want: 3},
	}
	for _, tt := range tests {
		if got := len(limitKeywords(ranking, tt.n)); got != tt.want {
			t.Errorf("limitKeywords(%d) returned %d keywords, want %d", tt.n, got, tt.want)
		}
	}
}

func TestFormatDelta(t *testing.T) {
	t.Parallel()

	tests := map[int]string{3: "+3", 0: "0", -2: "-2"}
	for delta, want := range tests {
		if got := formatDelta(delta); got != want {
			t.Errorf("formatDelta(%d) = %q, want %q", delta, got, want)
		}
	}
}

// TestRunCompareCmd tests the compare command against a stored history.
func TestRunCompareCmd(t *testing.T) {
	t.Parallel()

	// history builds a database with three runs of testSeed and returns
	// its directory and the run IDs, oldest first.
	history := func(t *testing.T) (string, []string) {
		t.Helper()

		dir := t.TempDir()
		base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ids := []string{
			saveRun(t, dir, testSeed, base, kw("golang", 2), kw("legacy", 1)),
			saveRun(t, dir, testSeed, base.Add(time.Hour), kw("golang", 2), kw("channels", 1)),
			saveRun(t, dir, testSeed, base.Add(2*time.Hour), kw("channels", 3), kw("golang", 2), kw("generics", 1)),
		}
		return dir, ids
	}

	t.Run("compares the latest two runs", func(t *testing.T) {
		t.Parallel()

		dir, ids := history(t)
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "--json", testSeed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		var result ComparisonResult
		if err := json.Unmarshal([]byte(stdout), &result); err != nil {
			t.Fatalf("invalid JSON: %v\n%s", err, stdout)
		}
		if result.PreviousRun.ID != ids[1] || result.CurrentRun.ID != ids[2] {
			t.Errorf("compared %s with %s, want %s with %s",
				result.PreviousRun.ID, result.CurrentRun.ID, ids[1], ids[2])
		}
		if len(result.NewKeywords) != 1 || result.NewKeywords[0].Phrase != "generics" {
			t.Errorf("unexpected new keywords: %v", result.NewKeywords)
		}
		if len(result.ChangedKeywords) != 2 {
			t.Errorf("expected channels and golang to move, got %+v", result.ChangedKeywords)
		}
	})

	t.Run("compares with a chosen run", func(t *testing.T) {
		t.Parallel()

		dir, ids := history(t)
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "-i", ids[0], testSeed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{ids[0], ids[2], "[-] legacy", "[+] generics"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected %q in output, got %q", want, stdout)
			}
		}
	})

	t.Run("markdown output", func(t *testing.T) {
		t.Parallel()

		dir, _ := history(t)
		stdout, _, err := executeRoot(t, "compare", "--db-dir", dir, "--markdown", testSeed)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, want := range []string{"# Keyword Comparison", "## New Keywords (1)", "Previous Rank"} {
			if !strings.Contains(stdout, want) {
				t.Errorf("expected %q in output, got %q", want, stdout)
			}
		}
	})

	t.Run("json and markdown are exclusive", func(t *testing.T) {
		t.Parallel()

		dir, _ := history(t)
		if _, _, err := executeRoot(t, "compare", "--db-dir", dir, "-j", "-m", testSeed); err == nil {
			t.Error("expected error for --json with --markdown")
		}
	})

	t.Run("needs two runs", func(t *testing.T) {
		t.Parallel()

		dir := t.TempDir()
		saveRun(t, dir, testSeed, time.Now())

		_, _, err := executeRoot(t, "compare", "--db-dir", dir, testSeed)
		if !errors.Is(err, errNotEnoughRuns) {
			t.Errorf("expected errNotEnoughRuns, got %v", err)
		}
	})

	t.Run("rejects run of another seed", func(t *testing.T) {
		t.Parallel()

		dir, _ := history(t)
		foreignID := saveRun(t, dir, "https://other.example/", time.Now())

		_, _, err := executeRoot(t, "compare", "--db-dir", dir, "-i", foreignID, testSeed)
		if err == nil || !strings.Contains(err.Error(), "belongs to") {
			t.Errorf("expected seed mismatch error, got %v", err)
		}
	})

	t.Run("unknown run", func(t *testing.T) {
		t.Parallel()

		dir, _ := history(t)
		_, _, err := executeRoot(t, "compare", "--db-dir", dir, "-i", "missing", testSeed)
		if !errors.Is(err, database.ErrRunNotFound) {
			t.Errorf("expected ErrRunNotFound, got %v", err)
		}
	})

	t.Run("no history", func(t *testing.T) {
		t.Parallel()

		if _, _, err := executeRoot(t, "compare", "--db-dir", t.TempDir(), testSeed); err == nil {
			t.Error("expected error without history")
		}
	})
}
