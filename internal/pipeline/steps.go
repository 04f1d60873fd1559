package pipeline

import (
	"bytes"
	"context"
	"errors"
	"log/slog"

	"github.com/nao1215/sitekeywords/internal/crawler"
	"github.com/nao1215/sitekeywords/internal/keyword"
	"github.com/nao1215/sitekeywords/internal/model"
)

// FetchStep retrieves the page content.
// A fetch failure is returned so that the page is skipped.
type FetchStep struct {
	fetcher crawler.Fetcher
}

// NewFetchStep creates a step that fetches pages with fetcher.
func NewFetchStep(fetcher crawler.Fetcher) *FetchStep {
	return &FetchStep{fetcher: fetcher}
}

// Name returns the step name.
func (s *FetchStep) Name() string {
	return "fetch"
}

// Do fetches page.URL and stores the response on the page.
func (s *FetchStep) Do(ctx context.Context, page *model.Page) error {
	res, err := s.fetcher.Fetch(ctx, page.URL)
	if err != nil {
		var fetchErr *crawler.FetchError
		if errors.As(err, &fetchErr) {
			page.StatusCode = fetchErr.StatusCode
		}
		return err
	}

	page.FinalURL = res.URL
	page.StatusCode = res.StatusCode
	page.ContentType = res.ContentType
	page.Raw = res.Body
	page.ComputeHash()

	return nil
}

// ParseStep extracts the title, links and normalized text from the fetched
// content. Parse failures are logged and leave the page with no text and no
// links; they do not fail the page.
type ParseStep struct {
	logger *slog.Logger
}

// ParseStepOption configures a ParseStep.
type ParseStepOption func(*ParseStep)

// WithParseLogger sets a custom logger for the parse step.
func WithParseLogger(logger *slog.Logger) ParseStepOption {
	return func(s *ParseStep) {
		s.logger = logger
	}
}

// NewParseStep creates a new parse step.
func NewParseStep(opts ...ParseStepOption) *ParseStep {
	s := &ParseStep{
		logger: slog.Default(),
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the step name.
func (s *ParseStep) Name() string {
	return "parse"
}

// Do parses page.Raw according to its content type.
// HTML is parsed for title, links and text; other text types are used as-is;
// anything else yields no text.
func (s *ParseStep) Do(_ context.Context, page *model.Page) error {
	var result *crawler.ParseResult

	switch {
	case page.IsHTML():
		parser, err := crawler.NewParser(page.BaseURL())
		if err == nil {
			result, err = parser.Parse(bytes.NewReader(page.Raw))
		}
		if err != nil {
			s.logger.Warn("failed to parse page",
				"url", page.URL,
				"error", err,
			)
			return nil
		}
	case page.IsText():
		result = crawler.ParseText(page.Raw)
	default:
		s.logger.Debug("skipping non-text content",
			"url", page.URL,
			"content_type", page.ContentType,
		)
		return nil
	}

	page.Title = result.Title
	page.Links = result.Links
	page.Text = result.Text
	page.TruncateText()

	return nil
}

// ExtractStep runs keyword extraction on the page text.
type ExtractStep struct {
	extractor *keyword.Extractor
	topK      int
}

// NewExtractStep creates a step that keeps the topK best keywords of each page.
// A non-positive topK uses the extractor's default.
func NewExtractStep(extractor *keyword.Extractor, topK int) *ExtractStep {
	return &ExtractStep{extractor: extractor, topK: topK}
}

// Name returns the step name.
func (s *ExtractStep) Name() string {
	return "extract"
}

// Do sets page.Keywords and page.Scores from page.Text.
func (s *ExtractStep) Do(_ context.Context, page *model.Page) error {
	cands := s.extractor.ExtractCandidates(page.Text, s.topK)
	page.Keywords = make([]string, len(cands))
	page.Scores = make([]float64, len(cands))
	for i, c := range cands {
		page.Keywords[i] = c.Norm
		page.Scores[i] = c.Score
	}
	return nil
}

// DefaultPipeline creates the standard fetch → parse → extract pipeline.
func DefaultPipeline(fetcher crawler.Fetcher, extractor *keyword.Extractor, topK int, opts ...Option) *Pipeline {
	p := New(opts...)

	p.AddSteps(
		NewFetchStep(fetcher),
		NewParseStep(WithParseLogger(p.logger)),
		NewExtractStep(extractor, topK),
	)

	return p
}
