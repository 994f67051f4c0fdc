package handlers

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/models"
	"github.com/datalens-ai/datalens-engine/pkg/services"
)

// AnalysisHandler serves the deep-analysis endpoints. A run blocks the
// request for its full duration, typically tens of seconds.
type AnalysisHandler struct {
	analysis services.AnalysisService
	styles   *models.StyleRegistry
	logger   *zap.Logger
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(analysis services.AnalysisService, styles *models.StyleRegistry, logger *zap.Logger) *AnalysisHandler {
	return &AnalysisHandler{analysis: analysis, styles: styles, logger: logger.Named("analysis-handler")}
}

// RegisterRoutes registers the analysis routes on the given mux.
func (h *AnalysisHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/analysis", h.RunAnalysis)
	mux.HandleFunc("GET /api/analysis/styles", h.ListStyles)
}

// RunAnalysis handles POST /api/analysis.
func (h *AnalysisHandler) RunAnalysis(w http.ResponseWriter, r *http.Request) {
	tenantID := r.Header.Get(TenantHeader)
	if tenantID == "" {
		_ = ErrorResponse(w, http.StatusBadRequest, "missing "+TenantHeader+" header")
		return
	}

	var req services.AnalysisRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = ErrorResponse(w, http.StatusBadRequest, "invalid request body")
		return
	}
	req.TableSelection = normalizeTableSelection(req.TableSelection)

	artifact, err := h.analysis.Run(r.Context(), tenantID, &req)
	if err != nil {
		h.logger.Warn("analysis run failed",
			zap.String("tenant", tenantID),
			zap.String("style", req.Style),
			zap.Error(err))
		_ = ErrorResponse(w, statusForError(err), err.Error())
		return
	}

	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: artifact})
}

// ListStyles handles GET /api/analysis/styles.
func (h *AnalysisHandler) ListStyles(w http.ResponseWriter, r *http.Request) {
	_ = WriteJSON(w, http.StatusOK, ApiResponse{Success: true, Data: h.styles.Names()})
}
