// Package models defines the data shapes shared across the engine.
package models

import (
	"time"

	"github.com/google/uuid"
)

// ColumnDescriptor describes a single column of a tenant table.
type ColumnDescriptor struct {
	Name     string `json:"name"`
	DataType string `json:"type"`
	Nullable bool   `json:"nullable"`
}

// TableDescriptor is a read-only snapshot of one tenant table: column
// metadata plus a handful of sample rows. Built fresh per query turn, never
// cached.
type TableDescriptor struct {
	Name       string             `json:"name"`
	Columns    []ColumnDescriptor `json:"columns"`
	SampleRows []map[string]any   `json:"sample_rows"`
}

// DialogueTurn is one prior exchange in the conversation.
type DialogueTurn struct {
	Role    string `json:"role"` // "user" or "assistant"
	Content string `json:"content"`
}

// QueryRequest is one user turn, constructed per request and consumed once.
type QueryRequest struct {
	Question        string
	TableSelection  []string // empty means all tables in the namespace
	DialogueHistory []DialogueTurn
	SchemaContext   []TableDescriptor
}

// CandidateQuery is the synthesizer's output. Not guaranteed valid or safe
// until it passes the gate.
type CandidateQuery struct {
	SQLText string
}

// ValidatedQuery is the gate's output. Only IsValid queries may execute.
type ValidatedQuery struct {
	SQLText     string
	IsValid     bool
	ErrorReason string
}

// QueryResult holds executed query output. Column order is meaningful for
// display.
type QueryResult struct {
	Columns []string         `json:"columns"`
	Rows    []map[string]any `json:"rows"`
}

// Intent classifies a dialogue turn.
type Intent string

const (
	IntentDatabaseQuery Intent = "DATABASE_QUERY"
	IntentConversation  Intent = "CONVERSATION"
)

// QueryHistoryEntry records one executed query turn in the engine database.
// Written best-effort; a recording failure never fails the user call.
type QueryHistoryEntry struct {
	ID         uuid.UUID
	TenantID   string
	Question   string
	SQLText    string
	Status     string // "ok", "rejected", "failed"
	Error      string
	RowCount   int
	DurationMS int64
	CreatedAt  time.Time
}
