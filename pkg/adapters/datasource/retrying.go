package datasource

import (
	"context"

	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/models"
	"github.com/datalens-ai/datalens-engine/pkg/retry"
)

// RetryingExecutor wraps an SQLExecutor with retry on transient failures.
// Permanent execution errors (missing columns, bad SQL) return immediately.
type RetryingExecutor struct {
	inner  SQLExecutor
	config *retry.Config
	logger *zap.Logger
}

func NewRetryingExecutor(inner SQLExecutor, config *retry.Config, logger *zap.Logger) *RetryingExecutor {
	return &RetryingExecutor{
		inner:  inner,
		config: config,
		logger: logger.Named("retrying-executor"),
	}
}

func (r *RetryingExecutor) Execute(ctx context.Context, sqlText string) (*models.QueryResult, error) {
	attempt := 0
	return retry.DoWithResult(ctx, r.config, func() (*models.QueryResult, error) {
		attempt++
		result, err := r.inner.Execute(ctx, sqlText)
		if err != nil {
			classified := ClassifyError(err)
			if retry.IsRetryable(classified) {
				r.logger.Warn("transient execution failure",
					zap.Int("attempt", attempt),
					zap.Error(err))
			}
			return nil, classified
		}
		return result, nil
	})
}
