// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"github.com/sourcegraph/conc/pool"
)

// ProcessingError represents an error that occurred while processing a file.
type ProcessingError struct {
	Path string
	Err  error
}

func (e ProcessingError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

// ProcessingErrors collects multiple file processing errors.
type ProcessingErrors struct {
	Errors []ProcessingError
	mu     sync.Mutex
}

// Add appends an error to the collection (thread-safe).
func (e *ProcessingErrors) Add(path string, err error) {
	e.mu.Lock()
	e.Errors = append(e.Errors, ProcessingError{Path: path, Err: err})
	e.mu.Unlock()
}

// HasErrors returns true if any errors were collected.
func (e *ProcessingErrors) HasErrors() bool {
	if e == nil {
		return false
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors) > 0
}

// Len returns the number of collected errors.
func (e *ProcessingErrors) Len() int {
	if e == nil {
		return 0
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.Errors)
}

// Error implements the error interface.
func (e *ProcessingErrors) Error() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.Errors) == 0 {
		return "no errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	return fmt.Sprintf("%d files failed to process (first: %v)", len(e.Errors), e.Errors[0])
}

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// Workers returns n, or 2x NumCPU when n <= 0.
func Workers(n int) int {
	if n > 0 {
		return n
	}
	return runtime.NumCPU() * DefaultWorkerMultiplier
}

// ProgressFunc is called after each item is processed.
type ProgressFunc func()

// Map runs fn over items in parallel and returns the results in input
// order. The first error cancels the remaining work and is returned; items
// that never ran keep their zero value. Panics in fn propagate to the
// caller once all workers have stopped.
func Map[In, Out any](ctx context.Context, items []In, workers int, fn func(context.Context, In) (Out, error), onProgress ProgressFunc) ([]Out, error) {
	if len(items) == 0 {
		return nil, nil
	}

	results := make([]Out, len(items))
	p := pool.New().
		WithMaxGoroutines(Workers(workers)).
		WithContext(ctx).
		WithCancelOnError().
		WithFirstError()

	for i, item := range items {
		p.Go(func(ctx context.Context) error {
			if onProgress != nil {
				defer onProgress()
			}

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
			}

			out, err := fn(ctx, item)
			if err != nil {
				return err
			}
			results[i] = out
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return results, err
	}
	return results, nil
}
