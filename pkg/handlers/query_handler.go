package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/models"
	"github.com/datalens-ai/datalens-engine/pkg/repositories"
	"github.com/datalens-ai/datalens-engine/pkg/services"
)

// TenantHeader carries the tenant identity on every API call. Authentication
// happens upstream; by the time a request reaches the engine the header is
// trusted.
const TenantHeader = "X-Tenant-ID"

// QueryHandler serves the single-query turn endpoints.
type QueryHandler struct {
	queries services.QueryService
	history repositories.QueryHistoryRepository
	logger  *zap.Logger
}

// NewQueryHandler creates a new QueryHandler.
func NewQueryHandler(queries services.QueryService, history repositories.QueryHistoryRepository, logger *zap.Logger) *QueryHandler {
	return &QueryHandler{queries: queries, history: history, logger: logger.Named("query-handler")}
}

// RegisterRoutes registers the query routes on the given mux.
func (h *QueryHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/query", h.RunQuery)
	mux.HandleFunc("GET /api/query/history", h.History)
}

type queryRequestBody struct {
	Question string                `json:"question"`
	Tables   []string              `json:"tables,omitempty"`
	History  []models.DialogueTurn `json:"history,omitempty"`
}

// normalizeTableSelection maps the "ALL" sentinel some clients send onto the
// empty selection the resolver treats as every tenant table.
func normalizeTableSelection(tables []string) []string {
	if len(tables) == 1 && tables[0] == "ALL" {
		return nil
	}
	return tables
}

// RunQuery handles POST /api/query.
func (h *QueryHandler) RunQuery(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(TenantHeader)
	if tenantID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing "+TenantHeader+" header")
		return
	}

	var body queryRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}

	turn, err := h.queries.Run(r.Context(), tenantID, &models.QueryRequest{
		Question:        body.Question,
		TableSelection:  normalizeTableSelection(body.Tables),
		DialogueHistory: body.History,
	})
	if err != nil {
		h.logger.Warn("query turn failed",
			zap.String("tenant", tenantID),
			zap.Error(err))
		_ = ErrorResponse(w, statusForError(err), err.Error())
		return
	}

	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: turn})
}

// History handles GET /api/query/history.
func (h *QueryHandler) History(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(TenantHeader)
	if tenantID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing "+TenantHeader+" header")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			_ = ErrorResponse(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = parsed
	}

	entries, err := h.history.ListByTenant(r.Context(), tenantID, limit)
	if err != nil {
		h.logger.Error("history listing failed",
			zap.String("tenant", tenantID),
			zap.Error(err))
		_ = ErrorResponse(w, http.StatusInternalServerError, "failed to list query history")
		return
	}

	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: entries})
}
