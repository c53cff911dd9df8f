package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"story-backend/internal/middleware"
	"story-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

const multipartMemory = 32 << 20

// StoryHandler handles story-related HTTP requests
type StoryHandler struct {
	storyService   *services.StoryService
	quotaService   *services.QuotaService
	elementService *services.ElementService
	maxUploadBytes int64
}

// NewStoryHandler creates a new story handler. maxFileSizeBytes bounds each
// uploaded file; the request body may carry media plus a thumbnail.
func NewStoryHandler(
	storyService *services.StoryService,
	quotaService *services.QuotaService,
	elementService *services.ElementService,
	maxFileSizeBytes int64,
) *StoryHandler {
	return &StoryHandler{
		storyService:   storyService,
		quotaService:   quotaService,
		elementService: elementService,
		maxUploadBytes: 2*maxFileSizeBytes + multipartMemory,
	}
}

// splitIDs accepts both repeated form values and comma separated lists
func splitIDs(values []string) []string {
	var ids []string
	for _, v := range values {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

func readFormFile(r *http.Request, field string) ([]byte, error) {
	file, _, err := r.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) {
			return nil, nil
		}
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

// CreateStory handles POST /api/v1/stories
func (h *StoryHandler) CreateStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		respondError(w, "Invalid multipart form", http.StatusBadRequest)
		return
	}

	mediaData, err := readFormFile(r, "media")
	if err != nil {
		respondError(w, "Failed to read media", http.StatusBadRequest)
		return
	}
	if len(mediaData) == 0 {
		respondError(w, "media is required", http.StatusBadRequest)
		return
	}
	thumbnail, err := readFormFile(r, "thumbnail")
	if err != nil {
		respondError(w, "Failed to read thumbnail", http.StatusBadRequest)
		return
	}

	in := services.CreateStoryInput{
		OwnerID:         userID,
		Media:           mediaData,
		Thumbnail:       thumbnail,
		Privacy:         r.FormValue("privacy_setting"),
		CustomViewerIDs: splitIDs(r.MultipartForm.Value["custom_viewer_ids"]),
		MentionIDs:      splitIDs(r.MultipartForm.Value["mention_ids"]),
	}
	if in.Privacy == "" {
		in.Privacy = "public"
	}
	if raw := r.FormValue("duration_hours"); raw != "" {
		hours, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, "duration_hours must be an integer", http.StatusBadRequest)
			return
		}
		in.DurationHours = &hours
	}
	if content, ok := r.MultipartForm.Value["content"]; ok && len(content) > 0 {
		in.Content = &content[0]
	}
	if raw := r.FormValue("elements"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.Elements); err != nil {
			respondError(w, "elements must be a JSON array", http.StatusBadRequest)
			return
		}
	}

	story, err := h.storyService.CreateStory(ctx, in)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create story")
		return
	}

	respondJSON(w, http.StatusCreated, story)
}

// ListStories handles GET /api/v1/stories
func (h *StoryHandler) ListStories(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	stories, err := h.storyService.VisibleStories(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to list stories")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"stories": stories,
		"total":   len(stories),
	})
}

// GetStory handles GET /api/v1/stories/{story_id}
func (h *StoryHandler) GetStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	story, err := h.storyService.GetStory(ctx, userID, chi.URLParam(r, "story_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to get story")
		return
	}

	respondJSON(w, http.StatusOK, story)
}

// DeleteStory handles DELETE /api/v1/stories/{story_id}
func (h *StoryHandler) DeleteStory(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	if err := h.storyService.DeleteStory(ctx, userID, chi.URLParam(r, "story_id")); err != nil {
		respondServiceError(w, r, err, "Failed to delete story")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdatePrivacyRequest is the body of PUT /stories/{story_id}/privacy
type UpdatePrivacyRequest struct {
	PrivacySetting  string   `json:"privacy_setting"`
	CustomViewerIDs []string `json:"custom_viewer_ids"`
}

// UpdatePrivacy handles PUT /api/v1/stories/{story_id}/privacy
func (h *StoryHandler) UpdatePrivacy(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdatePrivacyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	story, err := h.storyService.UpdatePrivacy(ctx, userID, chi.URLParam(r, "story_id"), req.PrivacySetting, req.CustomViewerIDs)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update privacy")
		return
	}

	respondJSON(w, http.StatusOK, story)
}

// UpdateDurationRequest is the body of PUT /stories/{story_id}/duration
type UpdateDurationRequest struct {
	DurationHours int `json:"duration_hours"`
}

// UpdateDuration handles PUT /api/v1/stories/{story_id}/duration
func (h *StoryHandler) UpdateDuration(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req UpdateDurationRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	story, err := h.storyService.UpdateDuration(ctx, userID, chi.URLParam(r, "story_id"), req.DurationHours)
	if err != nil {
		respondServiceError(w, r, err, "Failed to update duration")
		return
	}

	respondJSON(w, http.StatusOK, story)
}

// ViewRequest is the body of POST /stories/{story_id}/views
type ViewRequest struct {
	DurationSeconds *float64 `json:"duration_seconds"`
	Completed       bool     `json:"completed"`
}

// RecordView handles POST /api/v1/stories/{story_id}/views
func (h *StoryHandler) RecordView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ViewRequest
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}

	if err := h.storyService.View(ctx, userID, chi.URLParam(r, "story_id"), req.DurationSeconds, req.Completed); err != nil {
		respondServiceError(w, r, err, "Failed to record view")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ReactionRequest is the body of POST /stories/{story_id}/reactions
type ReactionRequest struct {
	ReactionType string `json:"reaction_type"`
}

// React handles POST /api/v1/stories/{story_id}/reactions
func (h *StoryHandler) React(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ReactionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reaction, err := h.storyService.React(ctx, userID, chi.URLParam(r, "story_id"), req.ReactionType)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add reaction")
		return
	}

	respondJSON(w, http.StatusCreated, reaction)
}

// ReplyRequest is the body of POST /stories/{story_id}/replies
type ReplyRequest struct {
	Text string `json:"text"`
}

// Reply handles POST /api/v1/stories/{story_id}/replies
func (h *StoryHandler) Reply(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req ReplyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	reply, err := h.storyService.Reply(ctx, userID, chi.URLParam(r, "story_id"), req.Text)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add reply")
		return
	}

	respondJSON(w, http.StatusCreated, reply)
}

// AddElement handles POST /api/v1/stories/{story_id}/elements
func (h *StoryHandler) AddElement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req services.ElementInput
	if !decodeJSON(w, r, &req) {
		return
	}

	element, err := h.elementService.AddElement(ctx, userID, chi.URLParam(r, "story_id"), req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to add element")
		return
	}

	respondJSON(w, http.StatusCreated, element)
}

// ListElements handles GET /api/v1/stories/{story_id}/elements
func (h *StoryHandler) ListElements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	elements, err := h.elementService.ListElements(ctx, userID, chi.URLParam(r, "story_id"))
	if err != nil {
		respondServiceError(w, r, err, "Failed to list elements")
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"elements": elements})
}

// GetQuota handles GET /api/v1/stories/quota
func (h *StoryHandler) GetQuota(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	quota, err := h.quotaService.GetStorageQuota(ctx, userID)
	if err != nil {
		respondServiceError(w, r, err, "Failed to get storage quota")
		return
	}

	if quota.Level != services.QuotaNone {
		log.Info().
			Str("user_id", userID).
			Str("level", string(quota.Level)).
			Float64("percentage_used", quota.PercentageUsed).
			Msg("Storage quota threshold reached")
	}

	respondJSON(w, http.StatusOK, quota)
}
