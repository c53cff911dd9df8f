package handlers

import (
	"net/http"

	"story-backend/internal/middleware"
	"story-backend/internal/models"
	"story-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// RelationHandler handles follows, close friends, blocks and hidden viewers
type RelationHandler struct {
	relationService *services.RelationService
}

// NewRelationHandler creates a new relation handler
func NewRelationHandler(relationService *services.RelationService) *RelationHandler {
	return &RelationHandler{relationService: relationService}
}

// Add returns a handler for POST /api/v1/<kind>/{user_id}
func (h *RelationHandler) Add(kind models.RelationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.GetUserID(ctx)

		if err := h.relationService.Add(ctx, kind, userID, chi.URLParam(r, "user_id")); err != nil {
			respondServiceError(w, r, err, "Failed to add "+string(kind))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

// Remove returns a handler for DELETE /api/v1/<kind>/{user_id}
func (h *RelationHandler) Remove(kind models.RelationKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		userID := middleware.GetUserID(ctx)

		if err := h.relationService.Remove(ctx, kind, userID, chi.URLParam(r, "user_id")); err != nil {
			respondServiceError(w, r, err, "Failed to remove "+string(kind))
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
