package handlers

import (
	"net/http"

	"story-backend/internal/middleware"
	"story-backend/internal/services"

	"github.com/go-chi/chi/v5"
)

// ArchiveHandler handles archived story requests
type ArchiveHandler struct {
	storyService *services.StoryService
}

// NewArchiveHandler creates a new archive handler
func NewArchiveHandler(storyService *services.StoryService) *ArchiveHandler {
	return &ArchiveHandler{storyService: storyService}
}

// ListArchive handles GET /api/v1/archive
func (h *ArchiveHandler) ListArchive(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	archived, err := h.storyService.ListArchivedStories(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list archived stories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"stories": archived,
		"total":   len(archived),
	})
}

// Restore handles POST /api/v1/archive/{archive_id}/restore
func (h *ArchiveHandler) Restore(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	story, err := h.storyService.RestoreArchivedStory(ctx, userID, chi.URLParam(r, "archive_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to restore story")
		return
	}

	respondJSON(w, http.StatusOK, story)
}

// Purge handles DELETE /api/v1/archive/{archive_id}
func (h *ArchiveHandler) Purge(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.storyService.PermanentlyDeleteArchivedStory(ctx, userID, chi.URLParam(r, "archive_id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete archived story")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
