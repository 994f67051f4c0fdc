package tenant

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/adapters/datasource"
	"github.com/datalens-ai/datalens-engine/pkg/apperrors"
	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// Resolver builds a fresh schema context snapshot for a query turn: column
// metadata plus a few sample rows per table. Snapshots are never cached;
// tenant data changes between turns.
type Resolver struct {
	meta        datasource.MetadataProvider
	sampleLimit int
	logger      *zap.Logger
}

func NewResolver(meta datasource.MetadataProvider, sampleLimit int, logger *zap.Logger) *Resolver {
	return &Resolver{
		meta:        meta,
		sampleLimit: sampleLimit,
		logger:      logger.Named("schema-resolver"),
	}
}

// Resolve returns descriptors for the requested tables in the tenant's
// namespace. An empty table list means every table in the namespace. Tables
// missing from the namespace are omitted from the result, not errors. Table
// metadata is fetched concurrently; result order follows the input order.
func (r *Resolver) Resolve(ctx context.Context, tenantID string, tables []string) ([]models.TableDescriptor, error) {
	namespace := Namespace(tenantID)

	if len(tables) == 0 {
		all, err := r.meta.ListTables(ctx, namespace)
		if err != nil {
			return nil, fmt.Errorf("list tables for %s: %w", namespace, err)
		}
		tables = all
	}

	type outcome struct {
		desc    models.TableDescriptor
		missing bool
		err     error
	}

	outcomes := make([]outcome, len(tables))
	var wg sync.WaitGroup
	for i, table := range tables {
		wg.Add(1)
		go func(i int, table string) {
			defer wg.Done()
			desc, err := r.describeTable(ctx, namespace, table)
			if err != nil {
				if isTableNotFound(err) {
					outcomes[i] = outcome{missing: true}
					return
				}
				outcomes[i] = outcome{err: err}
				return
			}
			outcomes[i] = outcome{desc: *desc}
		}(i, table)
	}
	wg.Wait()

	descriptors := make([]models.TableDescriptor, 0, len(tables))
	for i, o := range outcomes {
		switch {
		case o.err != nil:
			return nil, fmt.Errorf("describe table %s: %w", tables[i], o.err)
		case o.missing:
			r.logger.Debug("table not in namespace, skipping",
				zap.String("namespace", namespace),
				zap.String("table", tables[i]))
		default:
			descriptors = append(descriptors, o.desc)
		}
	}

	return descriptors, nil
}

func (r *Resolver) describeTable(ctx context.Context, namespace, table string) (*models.TableDescriptor, error) {
	columns, err := r.meta.ListColumns(ctx, namespace, table)
	if err != nil {
		return nil, err
	}

	samples, err := r.meta.SampleRows(ctx, namespace, table, r.sampleLimit)
	if err != nil {
		// Sample rows improve synthesis but aren't required; columns alone
		// still describe the table.
		r.logger.Warn("sampling failed, continuing with columns only",
			zap.String("table", table),
			zap.Error(err))
		samples = nil
	}

	return &models.TableDescriptor{
		Name:       table,
		Columns:    columns,
		SampleRows: samples,
	}, nil
}

func isTableNotFound(err error) bool {
	var execErr *apperrors.ExecutionError
	return errors.As(err, &execErr) && execErr.Kind == apperrors.ExecTableNotFound
}
