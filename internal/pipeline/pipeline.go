package pipeline

import (
	"context"
	"log/slog"

	"github.com/nao1215/sitekeywords/internal/model"
)

// Step defines the interface that all pipeline steps must implement.
// Steps are executed in sequence, each one filling in more of the page.
type Step interface {
	// Do executes the pipeline step on one page.
	// Recoverable problems are recorded on the page and nil is returned;
	// a returned error stops the remaining steps for this page.
	Do(ctx context.Context, page *model.Page) error

	// Name returns the step's name for logging purposes.
	Name() string
}

// Pipeline runs an ordered list of steps over a page.
// Execute is safe for concurrent use as long as the steps are.
type Pipeline struct {
	// steps contains the ordered list of steps to execute.
	steps []Step

	// logger is used for structured logging during execution.
	logger *slog.Logger
}

// Option is a function that configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets a custom logger for the pipeline.
// If not set, slog.Default() is used.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// New creates a new Pipeline with the given options.
// Steps should be added using AddStep after creation.
func New(opts ...Option) *Pipeline {
	p := &Pipeline{
		steps: make([]Step, 0),
	}

	for _, opt := range opts {
		opt(p)
	}

	if p.logger == nil {
		p.logger = slog.Default()
	}

	return p
}

// AddStep appends a step to the pipeline.
// Steps are executed in the order they are added.
func (p *Pipeline) AddStep(step Step) {
	p.steps = append(p.steps, step)
}

// AddSteps appends multiple steps to the pipeline.
func (p *Pipeline) AddSteps(steps ...Step) {
	p.steps = append(p.steps, steps...)
}

// Execute runs all steps on page in sequence.
// Cancellation is checked before each step.
//
// A step error is stored in page.Err and returned, and the remaining steps
// are skipped.
func (p *Pipeline) Execute(ctx context.Context, page *model.Page) error {
	for _, step := range p.steps {
		select {
		case <-ctx.Done():
			p.logger.Debug("pipeline cancelled",
				"step", step.Name(),
				"url", page.URL,
				"reason", ctx.Err(),
			)
			if page.Err == nil {
				page.Err = ctx.Err()
			}
			return ctx.Err()
		default:
		}

		p.logger.Debug("executing step",
			"step", step.Name(),
			"url", page.URL,
		)

		if err := step.Do(ctx, page); err != nil {
			p.logger.Warn("step failed",
				"step", step.Name(),
				"url", page.URL,
				"error", err,
			)

			if page.Err == nil {
				page.Err = err
			}
			return err
		}
	}

	return page.Err
}

// StepNames returns the names of all steps in execution order.
func (p *Pipeline) StepNames() []string {
	names := make([]string, len(p.steps))
	for i, step := range p.steps {
		names[i] = step.Name()
	}
	return names
}
