package handlers

import (
	"encoding/json"
	"net/http"

	"story-backend/internal/middleware"
	"story-backend/internal/services"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // native clients send no Origin
	},
}

// wsReply is a server to client control message
type wsReply struct {
	Type    string `json:"type"`
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message,omitempty"`
}

// WebSocketHandler handles WebSocket connections
type WebSocketHandler struct {
	hub         *services.WSHub
	userService *services.UserService
	visibility  *services.VisibilityResolver
}

// NewWebSocketHandler creates a new WebSocket handler
func NewWebSocketHandler(
	hub *services.WSHub,
	userService *services.UserService,
	visibility *services.VisibilityResolver,
) *WebSocketHandler {
	return &WebSocketHandler{
		hub:         hub,
		userService: userService,
		visibility:  visibility,
	}
}

// HandleWebSocket handles GET /ws?token=...
func (h *WebSocketHandler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.ValidateWebSocketToken(r.URL.Query().Get("token"), h.userService)
	if err != nil {
		respondError(w, "invalid token", http.StatusUnauthorized)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upgrade WebSocket connection")
		return
	}

	h.hub.Register(userID, conn)
	defer h.hub.Unregister(userID, conn)

	log.Info().Str("user_id", userID).Msg("WebSocket connection established")

	for {
		_, messageBytes, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error().Err(err).Str("user_id", userID).Msg("WebSocket error")
			}
			break
		}

		var msg services.WSMessage
		if err := json.Unmarshal(messageBytes, &msg); err != nil {
			log.Error().Err(err).Str("user_id", userID).Msg("Failed to parse WebSocket message")
			h.reply(conn, wsReply{Type: "error", Message: "Invalid message format"})
			continue
		}

		switch msg.Type {
		case "subscribe":
			h.subscribe(r, conn, userID, msg.Topic)
		case "unsubscribe":
			h.hub.Unsubscribe(userID, services.StoryTopic(msg.Topic))
			h.reply(conn, wsReply{Type: "unsubscribed", Topic: msg.Topic})
		case "ping":
			h.reply(conn, wsReply{Type: "pong"})
		default:
			h.reply(conn, wsReply{Type: "error", Message: "Unknown message type"})
		}
	}
}

// subscribe adds the user to a story topic if the story is visible to them.
// topic is the story id.
func (h *WebSocketHandler) subscribe(r *http.Request, conn *websocket.Conn, userID, storyID string) {
	ok, err := h.visibility.CanViewStory(r.Context(), storyID, userID)
	if err != nil || !ok {
		h.reply(conn, wsReply{Type: "error", Topic: storyID, Message: "story not available"})
		return
	}
	if err := h.hub.Subscribe(userID, services.StoryTopic(storyID)); err != nil {
		h.reply(conn, wsReply{Type: "error", Topic: storyID, Message: err.Error()})
		return
	}
	h.reply(conn, wsReply{Type: "subscribed", Topic: storyID})
}

// reply writes a control message through the hub's per-connection writer
func (h *WebSocketHandler) reply(conn *websocket.Conn, msg wsReply) {
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}
	if err := h.hub.Send(conn, data); err != nil {
		log.Warn().Err(err).Str("type", msg.Type).Msg("Failed to send WebSocket reply")
	}
}
