// Package postgres implements the datasource provider contracts against
// PostgreSQL using pgx.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/adapters/datasource"
	"github.com/datalens-ai/datalens-engine/pkg/logging"
	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// Adapter provides metadata discovery and query execution for a PostgreSQL
// tenant database. Tenant isolation is schema based, so every metadata call
// takes the namespace schema explicitly.
type Adapter struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// New connects to PostgreSQL and verifies the connection with a ping.
func New(ctx context.Context, connString string, logger *zap.Logger) (*Adapter, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	logger.Info("connected to tenant datasource",
		zap.String("dsn", logging.SanitizeConnectionString(connString)))

	return &Adapter{pool: pool, logger: logger.Named("postgres")}, nil
}

// NewWithPool wraps an existing pool. The caller retains ownership.
func NewWithPool(pool *pgxpool.Pool, logger *zap.Logger) *Adapter {
	return &Adapter{pool: pool, logger: logger.Named("postgres")}
}

func (a *Adapter) Close() {
	a.pool.Close()
}

// ListTables returns the base tables in the namespace schema.
func (a *Adapter) ListTables(ctx context.Context, namespace string) ([]string, error) {
	const query = `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1
		  AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`

	rows, err := a.pool.Query(ctx, query, namespace)
	if err != nil {
		return nil, fmt.Errorf("query tables: %w", datasource.ClassifyError(err))
	}
	defer rows.Close()

	var tables []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan table name: %w", err)
		}
		tables = append(tables, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tables: %w", err)
	}

	return tables, nil
}

// ListColumns returns the columns of one table in ordinal order. A table
// absent from the schema yields an ExecTableNotFound execution error.
func (a *Adapter) ListColumns(ctx context.Context, namespace, table string) ([]models.ColumnDescriptor, error) {
	const query = `
		SELECT column_name, data_type, is_nullable = 'YES'
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`

	rows, err := a.pool.Query(ctx, query, namespace, table)
	if err != nil {
		return nil, fmt.Errorf("query columns: %w", datasource.ClassifyError(err))
	}
	defer rows.Close()

	var columns []models.ColumnDescriptor
	for rows.Next() {
		var c models.ColumnDescriptor
		if err := rows.Scan(&c.Name, &c.DataType, &c.Nullable); err != nil {
			return nil, fmt.Errorf("scan column: %w", err)
		}
		columns = append(columns, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate columns: %w", err)
	}

	// information_schema returns an empty set rather than an error for an
	// unknown table, so surface the miss explicitly.
	if len(columns) == 0 {
		return nil, datasource.ClassifyError(
			fmt.Errorf("relation %q does not exist", namespace+"."+table))
	}

	return columns, nil
}

// SampleRows returns up to limit rows from the table.
func (a *Adapter) SampleRows(ctx context.Context, namespace, table string, limit int) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT * FROM %s LIMIT %d",
		qualifiedTableName(namespace, table), limit)

	result, err := a.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// Execute runs a retrieval query and collects the full result set.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*models.QueryResult, error) {
	rows, err := a.pool.Query(ctx, sqlText)
	if err != nil {
		return nil, datasource.ClassifyError(err)
	}
	defer rows.Close()

	fieldDescs := rows.FieldDescriptions()
	columns := make([]string, len(fieldDescs))
	for i, fd := range fieldDescs {
		columns[i] = string(fd.Name)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, fmt.Errorf("read row values: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			rowMap[col] = values[i]
		}
		resultRows = append(resultRows, rowMap)
	}
	if err := rows.Err(); err != nil {
		return nil, datasource.ClassifyError(err)
	}

	a.logger.Debug("query executed",
		zap.String("sql", logging.SanitizeQuery(sqlText)),
		zap.Int("rows", len(resultRows)))

	return &models.QueryResult{Columns: columns, Rows: resultRows}, nil
}

// qualifiedTableName returns a quoted "schema"."table" reference.
func qualifiedTableName(schemaName, tableName string) string {
	quotedTable := pgx.Identifier{tableName}.Sanitize()
	if schemaName == "" {
		return quotedTable
	}
	return pgx.Identifier{schemaName}.Sanitize() + "." + quotedTable
}

var _ datasource.Provider = (*Adapter)(nil)
