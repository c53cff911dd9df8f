package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletionRate(t *testing.T) {
	assert.Equal(t, 70.0, CompletionRate(10, 7))
	assert.Equal(t, 100.0, CompletionRate(3, 3))
	assert.Equal(t, 0.0, CompletionRate(0, 0))
}

func TestExitRate(t *testing.T) {
	next := 30
	assert.Equal(t, 40.0, ExitRate(50, &next, 0))

	more := 80
	assert.Equal(t, 0.0, ExitRate(50, &more, 10), "more viewers on the next story clamps to zero")

	assert.Equal(t, 20.0, ExitRate(50, nil, 10), "last story uses incomplete views")
	assert.Equal(t, 0.0, ExitRate(0, nil, 0))
}

func TestClickThroughRate(t *testing.T) {
	assert.Equal(t, 25.0, ClickThroughRate(5, 20, true))
	assert.Equal(t, 0.0, ClickThroughRate(5, 20, false))
	assert.Equal(t, 0.0, ClickThroughRate(0, 0, true))
}

func TestSummariseDurations(t *testing.T) {
	d := func(v float64) *float64 { return &v }
	views := []*models.StoryView{
		{DurationSeconds: d(2)},
		{DurationSeconds: d(4)},
		{DurationSeconds: d(6)},
		{},
	}
	stats, err := SummariseDurations(views)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Samples)
	assert.Equal(t, 4.0, stats.Average)
	assert.InDelta(t, 4.0, stats.P50, 0.1)

	empty, err := SummariseDurations(nil)
	require.NoError(t, err)
	assert.Equal(t, DurationStats{}, empty)
}

func TestGetAnalytics(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.addStory("first", "owner", models.PrivacyPublic, 3*time.Hour)
	env.addStory("second", "owner", models.PrivacyPublic, 2*time.Hour)
	env.addViews("first", 10, 7)
	env.addViews("second", 6, 6)

	link := &models.InteractiveElement{ID: "link", StoryID: "first", Type: models.ElementLink,
		Data: json.RawMessage(`{"url":"https://example.com"}`)}
	poll := &models.InteractiveElement{ID: "poll", StoryID: "first", Type: models.ElementPoll, Position: 1,
		Data: json.RawMessage(`{"question":"Tea or coffee?","options":["tea","coffee"]}`)}
	require.NoError(t, env.elements.Create(ctx, link))
	require.NoError(t, env.elements.Create(ctx, poll))
	for i, viewer := range []string{"v1", "v2"} {
		require.NoError(t, env.elements.UpsertResponse(ctx, &models.InteractiveResponse{
			ID: "click-" + itoa(i), ElementID: "link", ViewerID: viewer, Data: json.RawMessage(`{"clicked":true}`),
		}))
	}
	require.NoError(t, env.elements.UpsertResponse(ctx, &models.InteractiveResponse{
		ID: "vote", ElementID: "poll", ViewerID: "v1", Data: json.RawMessage(`{"option":"tea"}`),
	}))

	snap, err := env.analytics.GetAnalytics(ctx, "owner", "first")
	require.NoError(t, err)
	assert.Equal(t, 10, snap.TotalViews)
	assert.Equal(t, 7, snap.CompletedViews)
	assert.Equal(t, 70.0, snap.CompletionRate)
	assert.Equal(t, 40.0, snap.ExitRate)
	assert.Equal(t, 2, snap.LinkClicks)
	assert.Equal(t, 20.0, snap.ClickThroughRate)
	require.Len(t, snap.Polls, 1)
	assert.Equal(t, 1, snap.Polls[0].TotalVotes)
	assert.Len(t, snap.Viewers, 10)
	assert.Equal(t, testNow, snap.ExportedAt)

	last, err := env.analytics.GetAnalytics(ctx, "owner", "second")
	require.NoError(t, err)
	assert.Equal(t, 0.0, last.ExitRate)
	assert.Equal(t, 0.0, last.ClickThroughRate)
	assert.Empty(t, last.Polls)
}

// ctxEngagementStore fails reads once its context is done, like a real pool
type ctxEngagementStore struct {
	EngagementStore
}

func (s ctxEngagementStore) ListViews(ctx context.Context, storyID string) ([]*models.StoryView, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.EngagementStore.ListViews(ctx, storyID)
}

func TestGetAnalyticsIgnoresCallerCancellation(t *testing.T) {
	env := newTestEnv()
	env.addStory("s1", "owner", models.PrivacyPublic, time.Hour)
	env.addViews("s1", 4, 2)
	svc := NewAnalyticsService(env.stories, ctxEngagementStore{env.engagement}, env.elements, func() time.Time { return env.now })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	snap, err := svc.GetAnalytics(ctx, "owner", "s1")
	require.NoError(t, err)
	assert.Equal(t, 4, snap.TotalViews)
	assert.Equal(t, 50.0, snap.CompletionRate)
}

func TestGetAnalyticsRequiresOwner(t *testing.T) {
	env := newTestEnv()
	env.addStory("s1", "owner", models.PrivacyPublic, time.Hour)

	_, err := env.analytics.GetAnalytics(context.Background(), "viewer", "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)

	_, err = env.analytics.GetViewerList(context.Background(), "viewer", "s1")
	assert.ErrorIs(t, err, apperrors.ErrNotOwner)
}

func TestGetViewerList(t *testing.T) {
	env := newTestEnv()
	env.addStory("s1", "owner", models.PrivacyPublic, time.Hour)
	env.addViews("s1", 3, 1)

	views, err := env.analytics.GetViewerList(context.Background(), "owner", "s1")
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, "viewer-0", views[0].ViewerID)
	assert.Equal(t, "viewer-2", views[2].ViewerID)
}
