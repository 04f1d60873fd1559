package pipeline

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/nao1215/sitekeywords/internal/model"
)

// mockStep is a test helper that implements the Step interface.
type mockStep struct {
	name      string
	doFunc    func(ctx context.Context, page *model.Page) error
	callCount atomic.Int32
}

// Do implements Step.Do.
func (m *mockStep) Do(ctx context.Context, page *model.Page) error {
	m.callCount.Add(1)
	if m.doFunc != nil {
		return m.doFunc(ctx, page)
	}
	return nil
}

// Name implements Step.Name.
func (m *mockStep) Name() string {
	return m.name
}

// TestPipelineNew tests the Pipeline constructor.
func TestPipelineNew(t *testing.T) {
	t.Parallel()

	t.Run("creates pipeline with default settings", func(t *testing.T) {
		t.Parallel()

		p := New()

		if p == nil {
			t.Fatal("expected non-nil pipeline")
		}
		if len(p.StepNames()) != 0 {
			t.Errorf("expected 0 steps, got %v", p.StepNames())
		}
		if p.logger == nil {
			t.Error("expected default logger")
		}
	})
}

// TestPipelineAddStep tests adding steps to the pipeline.
func TestPipelineAddStep(t *testing.T) {
	t.Parallel()

	p := New()
	p.AddStep(&mockStep{name: "first"})
	p.AddSteps(&mockStep{name: "second"}, &mockStep{name: "third"})

	names := p.StepNames()
	want := []string{"first", "second", "third"}
	if len(names) != len(want) {
		t.Fatalf("expected %d steps, got %d", len(want), len(names))
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("step %d = %q, want %q", i, names[i], want[i])
		}
	}
}

// TestPipelineExecute tests step execution.
func TestPipelineExecute(t *testing.T) {
	t.Parallel()

	t.Run("runs steps in order", func(t *testing.T) {
		t.Parallel()

		var order []string
		p := New()
		for _, name := range []string{"a", "b", "c"} {
			p.AddStep(&mockStep{name: name, doFunc: func(context.Context, *model.Page) error {
				order = append(order, name)
				return nil
			}})
		}

		if err := p.Execute(context.Background(), model.NewPage("https://example.com/")); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(order) != 3 || order[0] != "a" || order[2] != "c" {
			t.Errorf("unexpected order %v", order)
		}
	})

	t.Run("stops on error and records it", func(t *testing.T) {
		t.Parallel()

		stepErr := errors.New("fetch failed")
		failing := &mockStep{name: "fail", doFunc: func(context.Context, *model.Page) error {
			return stepErr
		}}
		after := &mockStep{name: "after"}

		p := New()
		p.AddSteps(failing, after)

		page := model.NewPage("https://example.com/")
		err := p.Execute(context.Background(), page)
		if !errors.Is(err, stepErr) {
			t.Errorf("expected step error, got %v", err)
		}
		if !errors.Is(page.Err, stepErr) {
			t.Errorf("expected page error to be recorded, got %v", page.Err)
		}
		if after.callCount.Load() != 0 {
			t.Error("expected remaining steps to be skipped")
		}
	})

	t.Run("respects cancelled context", func(t *testing.T) {
		t.Parallel()

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		step := &mockStep{name: "never"}
		p := New()
		p.AddStep(step)

		page := model.NewPage("https://example.com/")
		if err := p.Execute(ctx, page); !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if step.callCount.Load() != 0 {
			t.Error("expected step not to run")
		}
		if !page.Failed() {
			t.Error("expected page to be marked failed")
		}
	})
}
