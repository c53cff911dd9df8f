package models

import "time"

// User represents a user in the system
type User struct {
	ID        string    `json:"id"`
	Handle    string    `json:"handle"`
	Token     string    `json:"token,omitempty"`
	PushToken *string   `json:"push_token,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// RelationKind names one of the relation sets consulted by the visibility resolver
type RelationKind string

const (
	RelationFollow      RelationKind = "follow"
	RelationCloseFriend RelationKind = "close_friend"
	RelationBlock       RelationKind = "block"
	RelationHidden      RelationKind = "hidden"
)

// Relation is a directed edge between two users: owner -> target.
// For follows the owner is the follower.
type Relation struct {
	Kind      RelationKind `json:"kind"`
	OwnerID   string       `json:"owner_id"`
	TargetID  string       `json:"target_id"`
	CreatedAt time.Time    `json:"created_at"`
}

// RelationFacts is everything the visibility resolver needs to know about a
// (story, viewer) pair, fetched in one round trip.
type RelationFacts struct {
	BlockedByOwner bool
	HiddenByOwner  bool
	FollowsOwner   bool
	CloseFriend    bool
	InCustomList   bool
}

// Conversation is the private thread between two users.
// UserAID is always lexicographically smaller than UserBID.
type Conversation struct {
	ID        string    `json:"id"`
	UserAID   string    `json:"user_a_id"`
	UserBID   string    `json:"user_b_id"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Message is a single entry of a conversation
type Message struct {
	ID             string    `json:"id"`
	ConversationID string    `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Body           string    `json:"body"`
	StoryID        *string   `json:"story_id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// OrderedPair returns the two ids in conversation order.
func OrderedPair(a, b string) (string, string) {
	if a > b {
		return b, a
	}
	return a, b
}
