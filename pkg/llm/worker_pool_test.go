package llm

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestProcessOrderedPreservesSubmissionOrder(t *testing.T) {
	pool := NewWorkerPool(8, zap.NewNop())

	items := make([]func(ctx context.Context) (int, error), 10)
	for i := range items {
		i := i
		items[i] = func(ctx context.Context) (int, error) {
			// Later items finish first to prove ordering is by index.
			time.Sleep(time.Duration(10-i) * time.Millisecond)
			return i * 10, nil
		}
	}

	results := ProcessOrdered(context.Background(), pool, items)
	require.Len(t, results, 10)
	for i, r := range results {
		require.NoError(t, r.Err)
		assert.Equal(t, i*10, r.Result)
	}
}

func TestProcessOrderedContinuesPastFailures(t *testing.T) {
	pool := NewWorkerPool(2, zap.NewNop())
	boom := errors.New("boom")

	items := []func(ctx context.Context) (string, error){
		func(ctx context.Context) (string, error) { return "ok-0", nil },
		func(ctx context.Context) (string, error) { return "", boom },
		func(ctx context.Context) (string, error) { return "ok-2", nil },
	}

	results := ProcessOrdered(context.Background(), pool, items)
	require.Len(t, results, 3)
	assert.Equal(t, "ok-0", results[0].Result)
	assert.ErrorIs(t, results[1].Err, boom)
	assert.Equal(t, "ok-2", results[2].Result)
}

func TestProcessOrderedBoundsConcurrency(t *testing.T) {
	pool := NewWorkerPool(2, zap.NewNop())

	var inFlight, maxInFlight int64
	items := make([]func(ctx context.Context) (struct{}, error), 6)
	for i := range items {
		items[i] = func(ctx context.Context) (struct{}, error) {
			cur := atomic.AddInt64(&inFlight, 1)
			for {
				prev := atomic.LoadInt64(&maxInFlight)
				if cur <= prev || atomic.CompareAndSwapInt64(&maxInFlight, prev, cur) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return struct{}{}, nil
		}
	}

	ProcessOrdered(context.Background(), pool, items)
	assert.LessOrEqual(t, atomic.LoadInt64(&maxInFlight), int64(2))
}

func TestProcessOrderedEmpty(t *testing.T) {
	pool := NewWorkerPool(4, zap.NewNop())
	assert.Nil(t, ProcessOrdered[int](context.Background(), pool, nil))
}
