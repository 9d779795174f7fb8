// Package workpool runs bounded parallel maps where one failing item never
// aborts the batch.
package workpool

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc/pool"
)

// Result is the outcome for the input at the same index.
type Result[T any] struct {
	Value T
	Err   error
}

// Map applies fn to every item with at most workers concurrent calls. Results
// are index-aligned with items. A failing or panicking item only records its
// own error. Items not yet started when ctx is done get ctx.Err().
func Map[In, Out any](ctx context.Context, workers int, items []In, fn func(context.Context, In) (Out, error)) []Result[Out] {
	results := make([]Result[Out], len(items))
	if len(items) == 0 {
		return results
	}
	if workers <= 0 {
		workers = 1
	}
	if workers > len(items) {
		workers = len(items)
	}

	p := pool.New().WithMaxGoroutines(workers)
	for i := range items {
		i := i
		p.Go(func() {
			if err := ctx.Err(); err != nil {
				results[i].Err = err
				return
			}
			defer func() {
				if r := recover(); r != nil {
					results[i].Err = fmt.Errorf("worker panic: %v", r)
				}
			}()
			value, err := fn(ctx, items[i])
			results[i] = Result[Out]{Value: value, Err: err}
		})
	}
	p.Wait()

	return results
}

// Values returns the successful values in input order.
func Values[T any](results []Result[T]) []T {
	out := make([]T, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Failures counts results that carry an error.
func Failures[T any](results []Result[T]) int {
	n := 0
	for _, r := range results {
		if r.Err != nil {
			n++
		}
	}
	return n
}
