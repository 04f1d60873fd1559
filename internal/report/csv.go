package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/nao1215/sitekeywords/internal/model"
)

// CSVHeader is the first row of the CSV output.
var CSVHeader = []string{"Keyword", "Frequency"}

// CSVWriter writes the keyword ranking as CSV with the columns
// Keyword,Frequency, one row per phrase, most frequent first.
// Fields containing commas, quotes or line breaks are quoted.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the ranking of report. The header is written even when the
// ranking is empty.
func (w *CSVWriter) Write(report *model.CrawlReport) (int, error) {
	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(CSVHeader); err != nil {
		return counter.n, err
	}
	for _, kw := range report.Keywords {
		if err := cw.Write([]string{kw.Phrase, strconv.Itoa(kw.Count)}); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}
