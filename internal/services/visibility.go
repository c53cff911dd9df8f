package services

import (
	"context"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"
)

// Reasons reported by the visibility resolver
const (
	ReasonInactive        = "story is no longer active"
	ReasonExpired         = "story has expired"
	ReasonBlocked         = "viewer is blocked by the owner"
	ReasonHidden          = "story is hidden from the viewer"
	ReasonOwner           = "owner"
	ReasonPublic          = "public story"
	ReasonFollower        = "viewer follows the owner"
	ReasonNotFollower     = "viewer does not follow the owner"
	ReasonCloseFriend     = "viewer is a close friend"
	ReasonNotCloseFriend  = "viewer is not a close friend"
	ReasonInCustomList    = "viewer is on the custom list"
	ReasonNotInCustomList = "viewer is not on the custom list"
	ReasonUnknownPrivacy  = "unknown privacy setting"
)

// Decision is the outcome of a visibility check
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason"`
}

func allow(reason string) Decision { return Decision{Allowed: true, Reason: reason} }
func deny(reason string) Decision  { return Decision{Allowed: false, Reason: reason} }

// VisibilityResolver decides who can see a story
type VisibilityResolver struct {
	stories   StoryStore
	relations RelationStore
	now       func() time.Time
}

// NewVisibilityResolver creates a new visibility resolver
func NewVisibilityResolver(stories StoryStore, relations RelationStore, now func() time.Time) *VisibilityResolver {
	if now == nil {
		now = time.Now
	}
	return &VisibilityResolver{stories: stories, relations: relations, now: now}
}

// Decide applies the privacy rules to a story and the facts about its viewer.
// Rules are evaluated most restrictive first: a block beats everything, a hide
// beats follower and close friend status, and only then do ownership and the
// privacy tier grant access.
func Decide(story *models.Story, viewerID string, facts models.RelationFacts, now time.Time) Decision {
	switch {
	case !story.IsActive:
		return deny(ReasonInactive)
	case IsExpiredAt(story.ExpiresAt, now):
		return deny(ReasonExpired)
	case facts.BlockedByOwner:
		return deny(ReasonBlocked)
	case facts.HiddenByOwner:
		return deny(ReasonHidden)
	case story.OwnerID == viewerID:
		return allow(ReasonOwner)
	}

	switch story.Privacy {
	case models.PrivacyPublic:
		return allow(ReasonPublic)
	case models.PrivacyFollowers:
		if facts.FollowsOwner {
			return allow(ReasonFollower)
		}
		return deny(ReasonNotFollower)
	case models.PrivacyCloseFriends:
		if facts.CloseFriend {
			return allow(ReasonCloseFriend)
		}
		return deny(ReasonNotCloseFriend)
	case models.PrivacyCustom:
		if facts.InCustomList {
			return allow(ReasonInCustomList)
		}
		return deny(ReasonNotInCustomList)
	default:
		return deny(ReasonUnknownPrivacy)
	}
}

// Check decides visibility for an already loaded story
func (r *VisibilityResolver) Check(ctx context.Context, story *models.Story, viewerID string) (Decision, error) {
	facts, err := r.relations.Facts(ctx, story, viewerID)
	if err != nil {
		return Decision{}, err
	}
	return Decide(story, viewerID, facts, r.now()), nil
}

// CanViewStory loads a story and decides whether viewerID may see it
func (r *VisibilityResolver) CanViewStory(ctx context.Context, storyID, viewerID string) (bool, error) {
	story, err := r.stories.GetByID(ctx, storyID)
	if err != nil {
		return false, err
	}
	d, err := r.Check(ctx, story, viewerID)
	if err != nil {
		return false, err
	}
	return d.Allowed, nil
}

// VisibleStory loads a story for viewerID. Inactive and expired stories are
// reported as not found; other denials are authorization errors.
func (r *VisibilityResolver) VisibleStory(ctx context.Context, viewerID, storyID string) (*models.Story, error) {
	story, err := r.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	d, err := r.Check(ctx, story, viewerID)
	if err != nil {
		return nil, err
	}
	if !d.Allowed {
		if d.Reason == ReasonInactive || d.Reason == ReasonExpired {
			return nil, apperrors.NotFound("story", storyID)
		}
		return nil, apperrors.Wrap(apperrors.KindAuthorization, apperrors.ErrNotVisible, "story is not visible: %s", d.Reason)
	}
	return story, nil
}

// Filter keeps the stories viewerID may see, preserving order
func (r *VisibilityResolver) Filter(ctx context.Context, viewerID string, stories []*models.Story) ([]*models.Story, error) {
	visible := make([]*models.Story, 0, len(stories))
	for _, s := range stories {
		d, err := r.Check(ctx, s, viewerID)
		if err != nil {
			return nil, err
		}
		if d.Allowed {
			visible = append(visible, s)
		}
	}
	return visible, nil
}
