// Package handlers exposes the engine's HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/datalens-ai/datalens-engine/pkg/apperrors"
)

// ApiResponse is the envelope for every API reply.
type ApiResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// WriteJSON writes a JSON response and returns any encoding error.
func WriteJSON(w http.ResponseWriter, statusCode int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	if statusCode != http.StatusOK {
		w.WriteHeader(statusCode)
	}
	return json.NewEncoder(w).Encode(data)
}

// ErrorResponse writes a JSON error envelope.
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, ApiResponse{Success: false, Error: message})
}

// statusForError maps the engine's error taxonomy onto HTTP statuses:
// bad input and safety rejections are 400, upstream generation or execution
// failures are 502, an empty usable result is 422, everything else 500.
func statusForError(err error) int {
	var (
		invalid   *apperrors.InputValidationError
		rejection *apperrors.SafetyRejection
		synthesis *apperrors.SynthesisError
		execution *apperrors.ExecutionError
		stage     *apperrors.PipelineStageError
	)

	switch {
	case errors.As(err, &invalid), errors.As(err, &rejection):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, apperrors.ErrCancelled):
		return http.StatusServiceUnavailable
	case errors.As(err, &synthesis), errors.As(err, &execution), errors.As(err, &stage):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
