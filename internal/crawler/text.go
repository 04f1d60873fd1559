package crawler

import (
	"strings"

	"golang.org/x/text/unicode/norm"
)

// NormalizeText turns extracted page text into plain text ready for keyword
// extraction.
//
// It applies Unicode NFKC normalization, collapses whitespace runs inside each
// line into a single space and drops empty lines. Word order and adjacency are
// preserved.
func NormalizeText(s string) string {
	s = norm.NFKC.String(s)
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if fields := strings.Fields(line); len(fields) > 0 {
			out = append(out, strings.Join(fields, " "))
		}
	}
	return strings.Join(out, "\n")
}
