package llm

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// WorkerPool bounds concurrent fan-out work (LLM calls, batch query
// execution). A semaphore limits outstanding work; results are returned in
// submission order so downstream stages can key them by index.
type WorkerPool struct {
	maxConcurrent int
	logger        *zap.Logger
}

// NewWorkerPool creates a worker pool with the given concurrency bound.
func NewWorkerPool(maxConcurrent int, logger *zap.Logger) *WorkerPool {
	if maxConcurrent < 1 {
		maxConcurrent = 4
	}
	return &WorkerPool{
		maxConcurrent: maxConcurrent,
		logger:        logger.Named("worker-pool"),
	}
}

// MaxConcurrent returns the pool's concurrency bound.
func (p *WorkerPool) MaxConcurrent() int { return p.maxConcurrent }

// WorkResult is one item's outcome.
type WorkResult[T any] struct {
	Result T
	Err    error
}

// ProcessOrdered executes all items with bounded parallelism and returns one
// result per item, index-aligned with the input. All items run even if some
// fail; per-item errors end up in the corresponding WorkResult.
func ProcessOrdered[T any](
	ctx context.Context,
	pool *WorkerPool,
	items []func(ctx context.Context) (T, error),
) []WorkResult[T] {
	if len(items) == 0 {
		return nil
	}

	results := make([]WorkResult[T], len(items))
	sem := make(chan struct{}, pool.maxConcurrent)

	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func(i int, fn func(ctx context.Context) (T, error)) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
				defer func() { <-sem }()
			case <-ctx.Done():
				results[i].Err = ctx.Err()
				return
			}

			results[i].Result, results[i].Err = fn(ctx)
		}(i, item)
	}
	wg.Wait()

	return results
}
