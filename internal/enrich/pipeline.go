package enrich

import (
	"context"
	"errors"
	"sync"

	"routewatch/pkg/log"
)

// Sink receives every item after all stages ran. err joins the errors of the
// item's failed steps and is nil when all of them succeeded.
type Sink[T any] func(ctx context.Context, item *T, err error)

// Pipeline coordinates the execution of a sequence of stages for items flowing
// through a channel. For each incoming item, steps within the same stage run in
// parallel, and stages themselves run sequentially. Step errors are logged and
// do not stop processing of the current item.
//
// Pipeline is generic over the item type T.
type Pipeline[T any] struct {
	stages []Stage[T]
	logger log.Logger
}

// NewPipeline constructs a Pipeline from the provided stages. Stages will be
// applied to each item in order.
func NewPipeline[T any](stages ...Stage[T]) *Pipeline[T] {
	return &Pipeline[T]{stages: stages, logger: log.Std()}
}

// WithLogger sets the logger used for step failures.
func (p *Pipeline[T]) WithLogger(l log.Logger) *Pipeline[T] {
	p.logger = l
	return p
}

// Process consumes items until in is closed or ctx is done. Each item runs
// through Apply and is then handed to every sink in order.
func (p *Pipeline[T]) Process(ctx context.Context, in <-chan *T, sinks ...Sink[T]) {
	for {
		select {
		case <-ctx.Done():
			return
		case item, ok := <-in:
			if !ok {
				return
			}
			err := p.Apply(ctx, item)
			for _, sink := range sinks {
				sink(ctx, item, err)
			}
		}
	}
}

// Apply runs all stages on item. All steps of a stage are started together
// and must finish before the next stage starts.
func (p *Pipeline[T]) Apply(ctx context.Context, item *T) error {
	var (
		mu   sync.Mutex
		errs []error
	)
	for _, stage := range p.stages {
		var wg sync.WaitGroup
		for _, step := range stage.steps {
			wg.Add(1)
			go func(step Step[T]) {
				defer wg.Done()
				if err := step(ctx, item); err != nil {
					p.logger.Error(err, "Step failed")
					mu.Lock()
					errs = append(errs, err)
					mu.Unlock()
				}
			}(step)
		}
		wg.Wait() // stage barrier
	}
	return errors.Join(errs...)
}
