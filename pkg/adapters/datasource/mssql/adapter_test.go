package mssql

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/apperrors"
)

func newMockAdapter(t *testing.T) (*Adapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWithDB(db, zap.NewNop()), mock
}

func TestListTables(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("SELECT TABLE_NAME").
		WithArgs("user_42").
		WillReturnRows(sqlmock.NewRows([]string{"TABLE_NAME"}).
			AddRow("machines").
			AddRow("orders"))

	tables, err := adapter.ListTables(context.Background(), "user_42")
	require.NoError(t, err)
	assert.Equal(t, []string{"machines", "orders"}, tables)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListColumns(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("SELECT COLUMN_NAME").
		WithArgs("user_42", "orders").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}).
			AddRow("id", "int", false).
			AddRow("status", "nvarchar", true))

	columns, err := adapter.ListColumns(context.Background(), "user_42", "orders")
	require.NoError(t, err)
	require.Len(t, columns, 2)
	assert.Equal(t, "id", columns[0].Name)
	assert.Equal(t, "int", columns[0].DataType)
	assert.False(t, columns[0].Nullable)
	assert.True(t, columns[1].Nullable)
}

func TestListColumns_MissingTable(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("SELECT COLUMN_NAME").
		WithArgs("user_42", "ghosts").
		WillReturnRows(sqlmock.NewRows([]string{"COLUMN_NAME", "DATA_TYPE", "IS_NULLABLE"}))

	_, err := adapter.ListColumns(context.Background(), "user_42", "ghosts")

	var execErr *apperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, apperrors.ExecTableNotFound, execErr.Kind)
}

func TestExecute(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("SELECT status, COUNT").
		WillReturnRows(sqlmock.NewRows([]string{"status", "total"}).
			AddRow([]byte("shipped"), 12).
			AddRow([]byte("pending"), 3))

	result, err := adapter.Execute(context.Background(),
		"SELECT status, COUNT(*) AS total FROM [user_42].[orders] GROUP BY status")
	require.NoError(t, err)

	assert.Equal(t, []string{"status", "total"}, result.Columns)
	require.Len(t, result.Rows, 2)
	// []byte column values become strings for JSON encoding.
	assert.Equal(t, "shipped", result.Rows[0]["status"])
}

func TestExecute_ClassifiesDriverError(t *testing.T) {
	adapter, mock := newMockAdapter(t)

	mock.ExpectQuery("SELECT revnue").
		WillReturnError(errors.New("mssql: Invalid column name 'revnue'."))

	_, err := adapter.Execute(context.Background(), "SELECT revnue FROM [user_42].[orders]")

	var execErr *apperrors.ExecutionError
	require.ErrorAs(t, err, &execErr)
	assert.Equal(t, apperrors.ExecColumnNotFound, execErr.Kind)
}

func TestQualifiedTableName(t *testing.T) {
	assert.Equal(t, "[user_42].[orders]", qualifiedTableName("user_42", "orders"))
	assert.Equal(t, "[orders]", qualifiedTableName("", "orders"))
	assert.Equal(t, "[user_42].[odd]]name]", qualifiedTableName("user_42", "odd]name"))
}
