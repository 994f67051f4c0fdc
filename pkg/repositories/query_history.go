// Package repositories contains data access for the engine's own database
// (as opposed to tenant datasources).
package repositories

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/datalens-ai/datalens-engine/pkg/database"
	"github.com/datalens-ai/datalens-engine/pkg/models"
)

// QueryHistoryRepository records executed query turns.
type QueryHistoryRepository interface {
	// Record inserts one history entry. ID and CreatedAt are assigned here.
	Record(ctx context.Context, entry *models.QueryHistoryEntry) error

	// ListByTenant returns the most recent entries for a tenant, newest first.
	ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.QueryHistoryEntry, error)
}

type queryHistoryRepository struct {
	db *database.DB
}

// NewQueryHistoryRepository creates a query history repository.
func NewQueryHistoryRepository(db *database.DB) QueryHistoryRepository {
	return &queryHistoryRepository{db: db}
}

func (r *queryHistoryRepository) Record(ctx context.Context, entry *models.QueryHistoryEntry) error {
	const query = `
		INSERT INTO query_history (id, tenant_id, question, sql_text, status, error, row_count, duration_ms)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	id := entry.ID
	if id == uuid.Nil {
		id = uuid.New()
	}

	_, err := r.db.Pool.Exec(ctx, query,
		id, entry.TenantID, entry.Question, entry.SQLText,
		entry.Status, entry.Error, entry.RowCount, entry.DurationMS)
	if err != nil {
		return fmt.Errorf("insert query history: %w", err)
	}
	return nil
}

func (r *queryHistoryRepository) ListByTenant(ctx context.Context, tenantID string, limit int) ([]models.QueryHistoryEntry, error) {
	const query = `
		SELECT id, tenant_id, question, sql_text, status, error, row_count, duration_ms, created_at
		FROM query_history
		WHERE tenant_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.Pool.Query(ctx, query, tenantID, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []models.QueryHistoryEntry
	for rows.Next() {
		var e models.QueryHistoryEntry
		if err := rows.Scan(&e.ID, &e.TenantID, &e.Question, &e.SQLText,
			&e.Status, &e.Error, &e.RowCount, &e.DurationMS, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}
