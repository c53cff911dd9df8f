package services

import (
	"context"
	"testing"
	"time"

	"story-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	active := func(privacy models.PrivacySetting) *models.Story {
		return &models.Story{
			ID:        "s1",
			OwnerID:   "owner",
			Privacy:   privacy,
			IsActive:  true,
			CreatedAt: testNow.Add(-time.Hour),
			ExpiresAt: testNow.Add(23 * time.Hour),
		}
	}
	inactive := active(models.PrivacyPublic)
	inactive.IsActive = false
	expired := active(models.PrivacyPublic)
	expired.ExpiresAt = testNow.Add(-time.Second)

	tests := []struct {
		name    string
		story   *models.Story
		viewer  string
		facts   models.RelationFacts
		allowed bool
		reason  string
	}{
		{"inactive beats owner", inactive, "owner", models.RelationFacts{}, false, ReasonInactive},
		{"expired public", expired, "viewer", models.RelationFacts{}, false, ReasonExpired},
		{"owner sees own story", active(models.PrivacyCloseFriends), "owner", models.RelationFacts{}, true, ReasonOwner},
		{"public", active(models.PrivacyPublic), "viewer", models.RelationFacts{}, true, ReasonPublic},
		{"blocked follower", active(models.PrivacyFollowers), "viewer",
			models.RelationFacts{FollowsOwner: true, BlockedByOwner: true}, false, ReasonBlocked},
		{"blocked on public", active(models.PrivacyPublic), "viewer",
			models.RelationFacts{BlockedByOwner: true}, false, ReasonBlocked},
		{"hidden close friend", active(models.PrivacyCloseFriends), "viewer",
			models.RelationFacts{CloseFriend: true, HiddenByOwner: true}, false, ReasonHidden},
		{"follower", active(models.PrivacyFollowers), "viewer",
			models.RelationFacts{FollowsOwner: true}, true, ReasonFollower},
		{"non follower", active(models.PrivacyFollowers), "viewer",
			models.RelationFacts{}, false, ReasonNotFollower},
		{"close friend", active(models.PrivacyCloseFriends), "viewer",
			models.RelationFacts{CloseFriend: true}, true, ReasonCloseFriend},
		{"follower is not a close friend", active(models.PrivacyCloseFriends), "viewer",
			models.RelationFacts{FollowsOwner: true}, false, ReasonNotCloseFriend},
		{"custom list member", active(models.PrivacyCustom), "viewer",
			models.RelationFacts{InCustomList: true}, true, ReasonInCustomList},
		{"custom list outsider", active(models.PrivacyCustom), "viewer",
			models.RelationFacts{FollowsOwner: true, CloseFriend: true}, false, ReasonNotInCustomList},
		{"unknown privacy", active("secret"), "viewer", models.RelationFacts{}, false, ReasonUnknownPrivacy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Decide(tt.story, tt.viewer, tt.facts, testNow)
			assert.Equal(t, tt.allowed, d.Allowed)
			assert.Equal(t, tt.reason, d.Reason)
		})
	}
}

func TestVisibilityResolverUsesRelations(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	env.addStory("s1", "owner", models.PrivacyFollowers, time.Hour)

	ok, err := env.visibility.CanViewStory(ctx, "s1", "viewer")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, env.relSvc.Add(ctx, models.RelationFollow, "viewer", "owner"))
	ok, err = env.visibility.CanViewStory(ctx, "s1", "viewer")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, env.relSvc.Add(ctx, models.RelationBlock, "owner", "viewer"))
	ok, err = env.visibility.CanViewStory(ctx, "s1", "viewer")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, env.relSvc.Remove(ctx, models.RelationBlock, "owner", "viewer"))
	ok, err = env.visibility.CanViewStory(ctx, "s1", "viewer")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestVisibilityFilterPreservesOrder(t *testing.T) {
	env := newTestEnv()
	stories := []*models.Story{
		env.addStory("a", "owner", models.PrivacyPublic, time.Hour),
		env.addStory("b", "owner", models.PrivacyCloseFriends, time.Hour),
		env.addStory("c", "owner", models.PrivacyPublic, time.Hour),
	}

	visible, err := env.visibility.Filter(context.Background(), "viewer", stories)
	require.NoError(t, err)
	require.Len(t, visible, 2)
	assert.Equal(t, "a", visible[0].ID)
	assert.Equal(t, "c", visible[1].ID)
}
