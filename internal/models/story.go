package models

import (
	"fmt"
	"time"
)

// PrivacySetting is the privacy tier of a story
type PrivacySetting string

const (
	PrivacyPublic       PrivacySetting = "public"
	PrivacyFollowers    PrivacySetting = "followers"
	PrivacyCloseFriends PrivacySetting = "close_friends"
	PrivacyCustom       PrivacySetting = "custom"
)

// ParsePrivacySetting validates a raw privacy value.
func ParsePrivacySetting(s string) (PrivacySetting, error) {
	switch p := PrivacySetting(s); p {
	case PrivacyPublic, PrivacyFollowers, PrivacyCloseFriends, PrivacyCustom:
		return p, nil
	default:
		return "", fmt.Errorf("unknown privacy setting %q", s)
	}
}

// MediaType is the kind of media a story carries
type MediaType string

const (
	MediaImage MediaType = "image"
	MediaVideo MediaType = "video"
)

// StoryCounter names a server-side counter column on stories
type StoryCounter string

const (
	CounterViews     StoryCounter = "view_count"
	CounterReactions StoryCounter = "reaction_count"
	CounterReplies   StoryCounter = "reply_count"
)

// Story is an ephemeral, time-boxed media post.
// ExpiresAt is fixed at creation and only changes through an explicit duration edit.
type Story struct {
	ID            string         `json:"id"`
	OwnerID       string         `json:"owner_id"`
	MediaKey      string         `json:"-"`
	MediaURL      string         `json:"media_url"`
	MediaType     MediaType      `json:"media_type"`
	ThumbnailKey  *string        `json:"-"`
	Content       *string        `json:"content,omitempty"`
	Privacy       PrivacySetting `json:"privacy_setting"`
	DurationHours int            `json:"duration_hours"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
	IsActive      bool           `json:"is_active"`
	FileSizeBytes int64          `json:"file_size_bytes"`
	ViewCount     int            `json:"view_count"`
	ReactionCount int            `json:"reaction_count"`
	ReplyCount    int            `json:"reply_count"`
}

// FeedCursor marks the last story of a feed page. The next page starts
// strictly after it in (created_at DESC, id DESC) order.
type FeedCursor struct {
	CreatedAt time.Time
	ID        string
}

// After reports whether s sorts after the cursor in feed order
func (c FeedCursor) After(s *Story) bool {
	if s.CreatedAt.Equal(c.CreatedAt) {
		return s.ID < c.ID
	}
	return s.CreatedAt.Before(c.CreatedAt)
}

// StoryView is one row per (story, viewer)
type StoryView struct {
	ID              string    `json:"id"`
	StoryID         string    `json:"story_id"`
	ViewerID        string    `json:"viewer_id"`
	ViewedAt        time.Time `json:"viewed_at"`
	DurationSeconds *float64  `json:"duration_seconds,omitempty"`
	Completed       bool      `json:"completed"`
}

// StoryReaction is append-only
type StoryReaction struct {
	ID           string    `json:"id"`
	StoryID      string    `json:"story_id"`
	UserID       string    `json:"user_id"`
	ReactionType string    `json:"reaction_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// StoryReply is append-only
type StoryReply struct {
	ID        string    `json:"id"`
	StoryID   string    `json:"story_id"`
	UserID    string    `json:"user_id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
}

// ArchiveReason records why a story left the active set
type ArchiveReason string

const (
	ArchiveExpired ArchiveReason = "expired"
	ArchiveDeleted ArchiveReason = "deleted"
)

// ArchivedStory is an independent copy of a story's terminal state
type ArchivedStory struct {
	ID            string         `json:"id"`
	StoryID       string         `json:"story_id"`
	OwnerID       string         `json:"owner_id"`
	MediaKey      string         `json:"-"`
	MediaURL      string         `json:"media_url"`
	MediaType     MediaType      `json:"media_type"`
	ThumbnailKey  *string        `json:"-"`
	Content       *string        `json:"content,omitempty"`
	Privacy       PrivacySetting `json:"privacy_setting"`
	DurationHours int            `json:"duration_hours"`
	FileSizeBytes int64          `json:"file_size_bytes"`
	ViewCount     int            `json:"view_count"`
	ReactionCount int            `json:"reaction_count"`
	ReplyCount    int            `json:"reply_count"`
	CreatedAt     time.Time      `json:"created_at"`
	ExpiresAt     time.Time      `json:"expires_at"`
	ArchivedAt    time.Time      `json:"archived_at"`
	Reason        ArchiveReason  `json:"reason"`
}

// NewArchivedStory copies the terminal state of a story.
func NewArchivedStory(id string, s *Story, reason ArchiveReason, at time.Time) *ArchivedStory {
	return &ArchivedStory{
		ID:            id,
		StoryID:       s.ID,
		OwnerID:       s.OwnerID,
		MediaKey:      s.MediaKey,
		MediaURL:      s.MediaURL,
		MediaType:     s.MediaType,
		ThumbnailKey:  s.ThumbnailKey,
		Content:       s.Content,
		Privacy:       s.Privacy,
		DurationHours: s.DurationHours,
		FileSizeBytes: s.FileSizeBytes,
		ViewCount:     s.ViewCount,
		ReactionCount: s.ReactionCount,
		ReplyCount:    s.ReplyCount,
		CreatedAt:     s.CreatedAt,
		ExpiresAt:     s.ExpiresAt,
		ArchivedAt:    at,
		Reason:        reason,
	}
}

// StoryState is a lifecycle state of a story
type StoryState string

const (
	StateDraft    StoryState = "draft"
	StateActive   StoryState = "active"
	StateExpired  StoryState = "expired"
	StateDeleted  StoryState = "deleted"
	StateArchived StoryState = "archived"
	StateRestored StoryState = "restored"
	StatePurged   StoryState = "purged"
)

var transitions = map[StoryState][]StoryState{
	StateDraft:    {StateActive},
	StateActive:   {StateExpired, StateDeleted},
	StateExpired:  {StateArchived},
	StateDeleted:  {StateArchived},
	StateArchived: {StateRestored, StatePurged},
	StateRestored: {StateActive},
}

// CanTransition reports whether the lifecycle allows moving from one state to another.
func CanTransition(from, to StoryState) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// State derives the lifecycle state of a stored story row.
func (s *Story) State(now time.Time) StoryState {
	switch {
	case s.IsActive && now.After(s.ExpiresAt):
		return StateExpired
	case s.IsActive:
		return StateActive
	default:
		return StateDeleted
	}
}
