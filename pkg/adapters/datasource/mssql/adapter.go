// Package mssql implements the datasource provider contracts against
// SQL Server through database/sql.
package mssql

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/microsoft/go-mssqldb"
	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/adapters/datasource"
	"github.com/datalens-ai/datalens-engine/pkg/logging"
	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// Adapter provides metadata discovery and query execution for a SQL Server
// tenant database. Namespaces map to SQL Server schemas.
type Adapter struct {
	db     *sql.DB
	logger *zap.Logger
}

// New opens a SQL Server connection and verifies it with a ping.
func New(ctx context.Context, connString string, logger *zap.Logger) (*Adapter, error) {
	db, err := sql.Open("sqlserver", connString)
	if err != nil {
		return nil, fmt.Errorf("open sqlserver: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlserver: %w", err)
	}

	logger.Info("connected to tenant datasource",
		zap.String("dsn", logging.SanitizeConnectionString(connString)))

	return &Adapter{db: db, logger: logger.Named("mssql")}, nil
}

// NewWithDB wraps an existing handle, used by tests with sqlmock.
func NewWithDB(db *sql.DB, logger *zap.Logger) *Adapter {
	return &Adapter{db: db, logger: logger.Named("mssql")}
}

func (a *Adapter) Close() {
	a.db.Close()
}

// ListTables returns the base tables in the namespace schema.
func (a *Adapter) ListTables(ctx context.Context, namespace string) ([]string, error) {
	const query = `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = @p1 AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`

	rows, err := a.db.QueryContext(ctx, query, namespace)
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

// ListColumns returns the columns of one table in ordinal order.
func (a *Adapter) ListColumns(ctx context.Context, namespace, table string) ([]models.ColumnDescriptor, error) {
	const query = `
		SELECT COLUMN_NAME, DATA_TYPE, CASE WHEN IS_NULLABLE = 'YES' THEN 1 ELSE 0 END
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = @p1 AND TABLE_NAME = @p2
		ORDER BY ORDINAL_POSITION
	`

	rows, err := a.db.QueryContext(ctx, query, namespace, table)
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

	if len(columns) == 0 {
		return nil, datasource.ClassifyError(
			fmt.Errorf("invalid object name '%s.%s'", namespace, table))
	}

	return columns, nil
}

// SampleRows returns up to limit rows from the table.
func (a *Adapter) SampleRows(ctx context.Context, namespace, table string, limit int) ([]map[string]any, error) {
	query := fmt.Sprintf("SELECT TOP %d * FROM %s",
		limit, qualifiedTableName(namespace, table))

	result, err := a.Execute(ctx, query)
	if err != nil {
		return nil, err
	}
	return result.Rows, nil
}

// Execute runs a retrieval query and collects the full result set.
func (a *Adapter) Execute(ctx context.Context, sqlText string) (*models.QueryResult, error) {
	rows, err := a.db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, datasource.ClassifyError(err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}

	resultRows := make([]map[string]any, 0)
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}

		rowMap := make(map[string]any, len(columns))
		for i, col := range columns {
			// database/sql hands back []byte for text columns; convert so
			// JSON encoding yields strings instead of base64.
			if b, ok := values[i].([]byte); ok {
				rowMap[col] = string(b)
			} else {
				rowMap[col] = values[i]
			}
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

// qualifiedTableName returns a bracket-quoted [schema].[table] reference.
func qualifiedTableName(schemaName, tableName string) string {
	quote := func(name string) string {
		return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
	}
	if schemaName == "" {
		return quote(tableName)
	}
	return quote(schemaName) + "." + quote(tableName)
}

var _ datasource.Provider = (*Adapter)(nil)
