package datasource

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/apperrors"
	"github.com/datalens-ai/datalens-engine/pkg/models"
	"github.com/datalens-ai/datalens-engine/pkg/retry"
)

type fakeExecutor struct {
	calls   int
	results []func() (*models.QueryResult, error)
}

func (f *fakeExecutor) Execute(ctx context.Context, sqlText string) (*models.QueryResult, error) {
	fn := f.results[f.calls]
	f.calls++
	return fn()
}

func fastRetryConfig() *retry.Config {
	return &retry.Config{MaxAttempts: 3, BaseDelay: time.Millisecond}
}

func TestRetryingExecutor_RecoversFromTransient(t *testing.T) {
	want := &models.QueryResult{Columns: []string{"n"}}
	inner := &fakeExecutor{results: []func() (*models.QueryResult, error){
		func() (*models.QueryResult, error) { return nil, errors.New("connection refused") },
		func() (*models.QueryResult, error) { return want, nil },
	}}

	executor := NewRetryingExecutor(inner, fastRetryConfig(), zap.NewNop())
	got, err := executor.Execute(context.Background(), "SELECT 1")

	require.NoError(t, err)
	assert.Same(t, want, got)
	assert.Equal(t, 2, inner.calls)
}

func TestRetryingExecutor_PermanentErrorNotRetried(t *testing.T) {
	inner := &fakeExecutor{results: []func() (*models.QueryResult, error){
		func() (*models.QueryResult, error) {
			return nil, errors.New(`column "revnue" does not exist`)
		},
	}}

	executor := NewRetryingExecutor(inner, fastRetryConfig(), zap.NewNop())
	_, err := executor.Execute(context.Background(), "SELECT revnue FROM t")

	var execErr *apperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, apperrors.ExecColumnNotFound, execErr.Kind)
	assert.Equal(t, 1, inner.calls)
}

func TestRetryingExecutor_ExhaustsAttempts(t *testing.T) {
	fail := func() (*models.QueryResult, error) { return nil, errors.New("i/o timeout") }
	inner := &fakeExecutor{results: []func() (*models.QueryResult, error){fail, fail, fail}}

	executor := NewRetryingExecutor(inner, fastRetryConfig(), zap.NewNop())
	_, err := executor.Execute(context.Background(), "SELECT 1")

	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}
