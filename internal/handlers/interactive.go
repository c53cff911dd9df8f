package handlers

import (
	"encoding/json"
	"net/http"

	"story-backend/internal/middleware"
	"story-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ElementHandler handles interactive element responses
type ElementHandler struct {
	elementService *services.ElementService
}

// NewElementHandler creates a new element handler
func NewElementHandler(elementService *services.ElementService) *ElementHandler {
	return &ElementHandler{elementService: elementService}
}

// RecordResponse handles POST /api/v1/elements/{element_id}/responses.
// The body is the type-specific response payload.
func (h *ElementHandler) RecordResponse(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var data json.RawMessage
	if !decodeJSON(w, r, &data) {
		return
	}

	resp, err := h.elementService.RecordResponse(ctx, userID, chi.URLParam(r, "element_id"), data)
	if err != nil {
		respondServiceError(w, r, err, "Failed to record response")
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// PollResults handles GET /api/v1/elements/{element_id}/results
func (h *ElementHandler) PollResults(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	result, err := h.elementService.PollResults(ctx, userID, chi.URLParam(r, "element_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get poll results")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
