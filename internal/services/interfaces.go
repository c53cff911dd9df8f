package services

import (
	"context"
	"time"

	"story-backend/internal/models"
)

// StoryStore persists stories and their mentions
type StoryStore interface {
	Create(ctx context.Context, s *models.Story) error
	Upsert(ctx context.Context, s *models.Story) error
	GetByID(ctx context.Context, id string) (*models.Story, error)
	Delete(ctx context.Context, id string) error
	DeleteInactive(ctx context.Context, id string) error
	Deactivate(ctx context.Context, id string) (bool, error)
	ListFeedPage(ctx context.Context, viewerID string, now time.Time, after *models.FeedCursor, limit int) ([]*models.Story, error)
	ListActiveByOwner(ctx context.Context, ownerID string) ([]*models.Story, error)
	ListExpired(ctx context.Context, now time.Time) ([]*models.Story, error)
	SumActiveSize(ctx context.Context, ownerID string) (int64, error)
	IncrementCounter(ctx context.Context, id string, counter models.StoryCounter) error
	UpdatePrivacy(ctx context.Context, id string, privacy models.PrivacySetting) error
	UpdateExpiration(ctx context.Context, id string, hours int, expiresAt time.Time) error
	AddMentions(ctx context.Context, storyID string, userIDs []string) error
	DeleteMentions(ctx context.Context, storyID string) error
}

// RelationStore answers the relation questions asked by the visibility resolver
type RelationStore interface {
	Add(ctx context.Context, rel *models.Relation) error
	Remove(ctx context.Context, kind models.RelationKind, ownerID, targetID string) error
	Facts(ctx context.Context, story *models.Story, viewerID string) (models.RelationFacts, error)
	SetCustomList(ctx context.Context, storyID string, viewerIDs []string) error
	DeleteCustomList(ctx context.Context, storyID string) error
	FollowerIDs(ctx context.Context, userID string) ([]string, error)
}

// EngagementStore persists views, reactions and replies
type EngagementStore interface {
	UpsertView(ctx context.Context, v *models.StoryView) (bool, error)
	ListViews(ctx context.Context, storyID string) ([]*models.StoryView, error)
	CountViews(ctx context.Context, storyID string) (int, error)
	AddReaction(ctx context.Context, r *models.StoryReaction) error
	AddReply(ctx context.Context, r *models.StoryReply) error
}

// ElementStore persists interactive elements and responses
type ElementStore interface {
	Create(ctx context.Context, e *models.InteractiveElement) error
	GetByID(ctx context.Context, id string) (*models.InteractiveElement, error)
	ListByStory(ctx context.Context, storyID string) ([]*models.InteractiveElement, error)
	DeleteByStory(ctx context.Context, storyID string) error
	UpsertResponse(ctx context.Context, r *models.InteractiveResponse) error
	ListResponses(ctx context.Context, elementID string) ([]*models.InteractiveResponse, error)
}

// ArchiveStore persists archived story copies
type ArchiveStore interface {
	Insert(ctx context.Context, a *models.ArchivedStory) (bool, error)
	GetByID(ctx context.Context, id string) (*models.ArchivedStory, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*models.ArchivedStory, error)
	Delete(ctx context.Context, id string) error
	SumSize(ctx context.Context, ownerID string) (int64, int, error)
}

// BlobStore keeps media objects addressed by key
type BlobStore interface {
	Upload(ctx context.Context, key, contentType string, data []byte) error
	Delete(ctx context.Context, key string) error
	PublicURL(key string) string
}

// ThreadStore holds the private conversations replies are appended to
type ThreadStore interface {
	GetOrCreateConversation(ctx context.Context, userID, otherID string, now time.Time) (*models.Conversation, error)
	AppendMessage(ctx context.Context, m *models.Message) error
}

// UserStore persists users
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	HandleExists(ctx context.Context, handle string) (bool, error)
	Exists(ctx context.Context, id string) (bool, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	GetPushToken(ctx context.Context, userID string) (*string, error)
}

// Publisher fans realtime events out to topic subscribers
type Publisher interface {
	Publish(topic string, event Event)
	PublishToUsers(userIDs []string, event Event)
}

// Notifier delivers a device push notification to a user
type Notifier interface {
	Notify(ctx context.Context, userID string, n PushNotification) error
}
