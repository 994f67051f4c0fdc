// Package datasource defines the provider contracts the engine uses to reach
// tenant data. Concrete adapters live in subpackages; callers depend on the
// interfaces only.
package datasource

import (
	"context"

	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// MetadataProvider surfaces the structural view of a tenant namespace:
// which tables exist, their columns, and representative sample rows.
type MetadataProvider interface {
	// ListTables returns the table names present in the namespace schema.
	ListTables(ctx context.Context, namespace string) ([]string, error)

	// ListColumns returns the column descriptors for a table. A missing
	// table is reported as an ExecutionError with kind ExecTableNotFound.
	ListColumns(ctx context.Context, namespace, table string) ([]models.ColumnDescriptor, error)

	// SampleRows returns up to limit rows from the table, column order
	// matching ListColumns.
	SampleRows(ctx context.Context, namespace, table string, limit int) ([]map[string]any, error)
}

// SQLExecutor runs a validated retrieval query against tenant data.
type SQLExecutor interface {
	Execute(ctx context.Context, sqlText string) (*models.QueryResult, error)
}

// Provider bundles metadata and execution for one backing datasource.
type Provider interface {
	MetadataProvider
	SQLExecutor
	Close()
}
