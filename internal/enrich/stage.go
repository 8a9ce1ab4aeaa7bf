// Package enrich provides a small, generic pipeline that runs independent
// steps in parallel within a stage and runs stages one after another.
package enrich

import (
	"context"
)

// Step mutates item in place. Steps of one stage run concurrently on the same
// item, so each must write fields no other step of that stage touches.
// A failed step returns an error; the pipeline logs it and continues.
type Step[T any] func(ctx context.Context, item *T) error

// Stage groups steps that may run in parallel for a single item.
type Stage[T any] struct {
	steps []Step[T]
}

// NewStage constructs a Stage from the provided steps.
func NewStage[T any](steps ...Step[T]) Stage[T] {
	return Stage[T]{steps: steps}
}
