package services

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

// Event types pushed over the hub. Payloads are hints only: clients re-fetch.
const (
	EventStoryCreated    = "story_created"
	EventStoryUpdated    = "story_updated"
	EventStoryDeleted    = "story_deleted"
	EventStoryExpired    = "story_expired"
	EventStoryViewed     = "story_viewed"
	EventStoryReaction   = "story_reaction"
	EventStoryReply      = "story_reply"
	EventElementResponse = "element_response"
)

const writeTimeout = 10 * time.Second

// Event is a realtime notification
type Event struct {
	Type      string `json:"type"`
	StoryID   string `json:"story_id,omitempty"`
	ElementID string `json:"element_id,omitempty"`
	ActorID   string `json:"actor_id,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// WSMessage is a client to server message
type WSMessage struct {
	Type  string `json:"type"`
	Topic string `json:"topic,omitempty"`
}

// UserTopic is the topic every connection of a user is subscribed to
func UserTopic(userID string) string { return "user:" + userID }

// StoryTopic is the topic for events about one story
func StoryTopic(storyID string) string { return "story:" + storyID }

type wsClient struct {
	userID  string
	conn    *websocket.Conn
	writeMu sync.Mutex
}

func (c *wsClient) write(data []byte) error {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := c.conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
		return err
	}
	return c.conn.WriteMessage(websocket.TextMessage, data)
}

// WSHub manages WebSocket connections and topic subscriptions
type WSHub struct {
	mu          sync.RWMutex
	connections map[string]*wsClient
	topics      map[string]map[string]struct{}
}

// NewWSHub creates a new WebSocket hub
func NewWSHub() *WSHub {
	return &WSHub{
		connections: make(map[string]*wsClient),
		topics:      make(map[string]map[string]struct{}),
	}
}

// Register registers a new WebSocket connection for a user and subscribes it
// to the user's own topic
func (h *WSHub) Register(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	// Close existing connection if any
	if existing, exists := h.connections[userID]; exists {
		existing.conn.Close()
	}

	h.connections[userID] = &wsClient{userID: userID, conn: conn}
	h.subscribeLocked(userID, UserTopic(userID))

	log.Info().Str("user_id", userID).Msg("WebSocket connection registered")
}

// Unregister removes a user's connection if it is still the registered one
func (h *WSHub) Unregister(userID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, exists := h.connections[userID]
	if !exists || c.conn != conn {
		return
	}
	c.conn.Close()
	delete(h.connections, userID)
	for topic, subs := range h.topics {
		delete(subs, userID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
	log.Info().Str("user_id", userID).Msg("WebSocket connection unregistered")
}

// Subscribe adds a user to a story topic
func (h *WSHub) Subscribe(userID, topic string) error {
	if !strings.HasPrefix(topic, "story:") {
		return fmt.Errorf("cannot subscribe to topic %q", topic)
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subscribeLocked(userID, topic)
	return nil
}

func (h *WSHub) subscribeLocked(userID, topic string) {
	subs, ok := h.topics[topic]
	if !ok {
		subs = make(map[string]struct{})
		h.topics[topic] = subs
	}
	subs[userID] = struct{}{}
}

// Unsubscribe removes a user from a story topic
func (h *WSHub) Unsubscribe(userID, topic string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if subs, ok := h.topics[topic]; ok {
		delete(subs, userID)
		if len(subs) == 0 {
			delete(h.topics, topic)
		}
	}
}

// Publish sends an event to every connection subscribed to topic.
// Delivery is best effort; a failed write drops that connection.
func (h *WSHub) Publish(topic string, event Event) {
	if event.Timestamp == 0 {
		event.Timestamp = time.Now().UnixMilli()
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Error().Err(err).Str("topic", topic).Msg("Failed to marshal event")
		return
	}

	h.mu.RLock()
	targets := make([]*wsClient, 0, len(h.topics[topic]))
	for id := range h.topics[topic] {
		if c, ok := h.connections[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(data); err != nil {
			log.Warn().Err(err).Str("user_id", c.userID).Str("topic", topic).Msg("Failed to deliver event")
			h.Unregister(c.userID, c.conn)
		}
	}
}

// Send writes raw data to a registered connection, serialised with published events
func (h *WSHub) Send(conn *websocket.Conn, data []byte) error {
	h.mu.RLock()
	var target *wsClient
	for _, c := range h.connections {
		if c.conn == conn {
			target = c
			break
		}
	}
	h.mu.RUnlock()

	if target == nil {
		return fmt.Errorf("connection is not registered")
	}
	return target.write(data)
}

// PublishToUsers sends the same event to the personal topic of every user
func (h *WSHub) PublishToUsers(userIDs []string, event Event) {
	for _, id := range userIDs {
		h.Publish(UserTopic(id), event)
	}
}
