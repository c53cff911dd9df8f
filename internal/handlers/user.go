package handlers

import (
	"net/http"

	"story-backend/internal/middleware"
	"story-backend/internal/services"

	"github.com/rs/zerolog/log"
)

// UserHandler handles user-related HTTP requests
type UserHandler struct {
	userService *services.UserService
}

// NewUserHandler creates a new user handler
func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{
		userService: userService,
	}
}

// CreateUser handles POST /api/v1/users
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req services.CreateUserRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	user, err := h.userService.CreateUser(ctx, req)
	if err != nil {
		respondServiceError(w, r, err, "Failed to create user")
		return
	}

	log.Info().
		Str("user_id", user.ID).
		Str("handle", user.Handle).
		Msg("User created")

	respondJSON(w, http.StatusOK, user)
}

// PushTokenRequest is the body of PUT /users/me/push-token
type PushTokenRequest struct {
	PushToken string `json:"push_token"`
}

// UpdatePushToken handles PUT /api/v1/users/me/push-token
func (h *UserHandler) UpdatePushToken(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := middleware.GetUserID(ctx)

	var req PushTokenRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.userService.UpdatePushToken(ctx, userID, req.PushToken); err != nil {
		respondServiceError(w, r, err, "Failed to update push token")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
