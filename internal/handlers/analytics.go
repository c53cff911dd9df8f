package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"story-backend/internal/middleware"
	"story-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// AnalyticsHandler serves story analytics to owners
type AnalyticsHandler struct {
	analyticsService *services.AnalyticsService
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analyticsService *services.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analyticsService: analyticsService}
}

// GetAnalytics handles GET /api/v1/stories/{story_id}/analytics
func (h *AnalyticsHandler) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	snap, err := h.analyticsService.GetAnalytics(ctx, userID, chi.URLParam(r, "story_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get analytics")
		return
	}

	respondJSON(w, http.StatusOK, snap)
}

// GetViewers handles GET /api/v1/stories/{story_id}/viewers
func (h *AnalyticsHandler) GetViewers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	views, err := h.analyticsService.GetViewerList(ctx, userID, chi.URLParam(r, "story_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get viewers")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"viewers": views,
		"total":   len(views),
	})
}

// Export handles GET /api/v1/stories/{story_id}/analytics/export
func (h *AnalyticsHandler) Export(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	storyID := chi.URLParam(r, "story_id")

	format, err := services.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	snap, err := h.analyticsService.GetAnalytics(ctx, userID, storyID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to export analytics")
		return
	}

	var buf bytes.Buffer
	if err := services.Encode(&buf, format, snap); err != nil {
		respondServiceError(w, r, err, "Failed to encode analytics")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="story-%s-analytics.%s"`, storyID, format))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Error().Err(err).Str("story_id", storyID).Msg("Failed to write analytics export")
	}
}
