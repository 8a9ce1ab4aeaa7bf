package enrich

import (
	"context"
	"errors"
	"reflect"
	"sync"
	"testing"
	"time"

	"routewatch/pkg/log"
)

type PipelineItem struct {
	mu      sync.Mutex
	Results map[string]any
}

func NewPipelineItem() *PipelineItem {
	return &PipelineItem{Results: make(map[string]any)}
}

func (p *PipelineItem) set(key string, val any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Results[key] = val
}

func StepAddFoo(_ context.Context, item *PipelineItem) error {
	item.set("foo", "bar")
	return nil
}

func StepAddValue(key string, val any) Step[PipelineItem] {
	return func(ctx context.Context, item *PipelineItem) error {
		item.set(key, val)
		return nil
	}
}

// StepCopy reads a value written by an earlier stage.
func StepCopy(from, to string) Step[PipelineItem] {
	return func(ctx context.Context, item *PipelineItem) error {
		item.mu.Lock()
		v, ok := item.Results[from]
		item.mu.Unlock()
		if !ok {
			return errors.New("missing " + from)
		}
		item.set(to, v)
		return nil
	}
}

func StepError(_ context.Context, _ *PipelineItem) error {
	return errors.New("mock step failed")
}

func TestPipeline_Process(t *testing.T) {
	tests := []struct {
		name     string
		stages   []Stage[PipelineItem]
		input    *PipelineItem
		expected map[string]any
		wantErr  bool
	}{
		{
			name:   "single step adds foo",
			stages: []Stage[PipelineItem]{NewStage(StepAddFoo)},
			input:  NewPipelineItem(),
			expected: map[string]any{
				"foo": "bar",
			},
		},
		{
			name: "two steps in one stage run in parallel",
			stages: []Stage[PipelineItem]{
				NewStage(
					StepAddValue("x", 1),
					StepAddValue("y", 2),
				),
			},
			input: NewPipelineItem(),
			expected: map[string]any{
				"x": 1,
				"y": 2,
			},
		},
		{
			name: "multi-stage sequential dependency",
			stages: []Stage[PipelineItem]{
				NewStage(StepAddValue("a", "first")),
				NewStage(StepCopy("a", "b")),
			},
			input: NewPipelineItem(),
			expected: map[string]any{
				"a": "first",
				"b": "first",
			},
		},
		{
			name: "step error does not break pipeline",
			stages: []Stage[PipelineItem]{
				NewStage(StepError),
				NewStage(StepAddValue("ok", true)),
			},
			input: NewPipelineItem(),
			expected: map[string]any{
				"ok": true,
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			in := make(chan *PipelineItem, 1)
			in <- tt.input
			close(in)

			var sunk int
			var sinkErr error
			p := NewPipeline(tt.stages...).WithLogger(log.NewNopLogger())
			p.Process(ctx, in, func(_ context.Context, item *PipelineItem, err error) {
				if item != tt.input {
					t.Errorf("sink got a different item")
				}
				sunk++
				sinkErr = err
			})

			if !reflect.DeepEqual(tt.input.Results, tt.expected) {
				t.Errorf("got %+v, expected %+v", tt.input.Results, tt.expected)
			}
			if sunk != 1 {
				t.Errorf("sink called %d times, expected 1", sunk)
			}
			if (sinkErr != nil) != tt.wantErr {
				t.Errorf("sink error = %v, wantErr %v", sinkErr, tt.wantErr)
			}
		})
	}
}

func TestPipeline_Process_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	in := make(chan *PipelineItem)
	done := make(chan struct{})

	go func() {
		NewPipeline[PipelineItem]().WithLogger(log.NewNopLogger()).Process(ctx, in)
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Process did not return after cancel")
	}
}

func TestPipeline_Apply_JoinsErrors(t *testing.T) {
	first := errors.New("first")
	second := errors.New("second")
	p := NewPipeline(
		NewStage(func(context.Context, *PipelineItem) error { return first }),
		NewStage(func(context.Context, *PipelineItem) error { return second }),
	).WithLogger(log.NewNopLogger())

	err := p.Apply(context.Background(), NewPipelineItem())

	if !errors.Is(err, first) || !errors.Is(err, second) {
		t.Fatalf("expected both step errors, got %v", err)
	}
}
