package services

import (
	"context"
	"fmt"
	"time"

	"story-backend/internal/models"

	"github.com/DataDog/sketches-go/ddsketch"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
)

const sketchRelativeAccuracy = 0.01

// CompletionRate is completed / total * 100, or 0 without views
func CompletionRate(totalViews, completedViews int) float64 {
	if totalViews == 0 {
		return 0
	}
	return float64(completedViews) * 100 / float64(totalViews)
}

// ExitRate is the share of this story's viewers who did not go on to the next
// story in the owner's sequence. For the last story it is the share of
// incomplete views. A next story with more viewers yields 0.
func ExitRate(viewersOfThis int, viewersOfNext *int, incompleteViews int) float64 {
	if viewersOfThis == 0 {
		return 0
	}
	if viewersOfNext == nil {
		return float64(incompleteViews) * 100 / float64(viewersOfThis)
	}
	exits := max(0, viewersOfThis-*viewersOfNext)
	return float64(exits) * 100 / float64(viewersOfThis)
}

// ClickThroughRate is link responses / total views * 100, or 0 without views
// or link elements
func ClickThroughRate(linkResponses, totalViews int, hasLinks bool) float64 {
	if totalViews == 0 || !hasLinks {
		return 0
	}
	return float64(linkResponses) * 100 / float64(totalViews)
}

// DurationStats summarises how long viewers watched
type DurationStats struct {
	Samples int     `json:"samples"`
	Average float64 `json:"average_seconds"`
	P50     float64 `json:"p50_seconds"`
	P90     float64 `json:"p90_seconds"`
}

// SummariseDurations computes the mean exactly and the quantiles with a DDSketch
func SummariseDurations(views []*models.StoryView) (DurationStats, error) {
	var stats DurationStats
	sketch, err := ddsketch.NewDefaultDDSketch(sketchRelativeAccuracy)
	if err != nil {
		return stats, fmt.Errorf("failed to create sketch: %w", err)
	}

	var sum float64
	for _, v := range views {
		if v.DurationSeconds == nil {
			continue
		}
		if err := sketch.Add(*v.DurationSeconds); err != nil {
			return stats, fmt.Errorf("failed to add duration: %w", err)
		}
		sum += *v.DurationSeconds
		stats.Samples++
	}
	if stats.Samples == 0 {
		return stats, nil
	}

	stats.Average = sum / float64(stats.Samples)
	if stats.P50, err = sketch.GetValueAtQuantile(0.5); err != nil {
		return stats, fmt.Errorf("failed to read p50: %w", err)
	}
	if stats.P90, err = sketch.GetValueAtQuantile(0.9); err != nil {
		return stats, fmt.Errorf("failed to read p90: %w", err)
	}
	return stats, nil
}

// AnalyticsSnapshot is everything the owner sees about one story
type AnalyticsSnapshot struct {
	StoryID          string              `json:"story_id"`
	OwnerID          string              `json:"owner_id"`
	TotalViews       int                 `json:"total_views"`
	CompletedViews   int                 `json:"completed_views"`
	ReactionCount    int                 `json:"reaction_count"`
	ReplyCount       int                 `json:"reply_count"`
	LinkClicks       int                 `json:"link_clicks"`
	CompletionRate   float64             `json:"completion_rate"`
	ExitRate         float64             `json:"exit_rate"`
	ClickThroughRate float64             `json:"click_through_rate"`
	ViewDuration     DurationStats       `json:"view_duration"`
	Viewers          []*models.StoryView `json:"viewers"`
	Polls            []*PollResult       `json:"polls"`
	ExportedAt       time.Time           `json:"exported_at"`
}

// AnalyticsService derives engagement metrics for story owners
type AnalyticsService struct {
	stories    StoryStore
	engagement EngagementStore
	elements   ElementStore
	now        func() time.Time
	inflight   singleflight.Group
}

// NewAnalyticsService creates a new analytics service
func NewAnalyticsService(stories StoryStore, engagement EngagementStore, elements ElementStore, now func() time.Time) *AnalyticsService {
	if now == nil {
		now = time.Now
	}
	return &AnalyticsService{
		stories:    stories,
		engagement: engagement,
		elements:   elements,
		now:        now,
	}
}

// GetViewerList returns one view per viewer, most recent first
func (s *AnalyticsService) GetViewerList(ctx context.Context, requesterID, storyID string) ([]*models.StoryView, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(story.OwnerID, requesterID); err != nil {
		return nil, err
	}
	return s.engagement.ListViews(ctx, storyID)
}

// GetAnalytics returns the owner's analytics snapshot of a story. Concurrent
// requests for the same story share one computation.
func (s *AnalyticsService) GetAnalytics(ctx context.Context, requesterID, storyID string) (*AnalyticsSnapshot, error) {
	story, err := s.stories.GetByID(ctx, storyID)
	if err != nil {
		return nil, err
	}
	if err := requireOwner(story.OwnerID, requesterID); err != nil {
		return nil, err
	}

	// coalesced callers share the result, so one caller's cancellation must
	// not fail the others
	v, err, _ := s.inflight.Do(storyID, func() (any, error) {
		return s.snapshot(context.WithoutCancel(ctx), story)
	})
	if err != nil {
		return nil, err
	}
	return v.(*AnalyticsSnapshot), nil
}

func (s *AnalyticsService) snapshot(ctx context.Context, story *models.Story) (*AnalyticsSnapshot, error) {
	var (
		views    []*models.StoryView
		elements []*models.InteractiveElement
		sequence []*models.Story
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		views, err = s.engagement.ListViews(gctx, story.ID)
		return err
	})
	g.Go(func() error {
		var err error
		elements, err = s.elements.ListByStory(gctx, story.ID)
		return err
	})
	g.Go(func() error {
		var err error
		sequence, err = s.stories.ListActiveByOwner(gctx, story.OwnerID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := &AnalyticsSnapshot{
		StoryID:       story.ID,
		OwnerID:       story.OwnerID,
		TotalViews:    len(views),
		ReactionCount: story.ReactionCount,
		ReplyCount:    story.ReplyCount,
		Viewers:       views,
		Polls:         []*PollResult{},
		ExportedAt:    s.now().UTC(),
	}
	if snap.Viewers == nil {
		snap.Viewers = []*models.StoryView{}
	}
	for _, v := range views {
		if v.Completed {
			snap.CompletedViews++
		}
	}
	snap.CompletionRate = CompletionRate(snap.TotalViews, snap.CompletedViews)

	exit, err := s.exitRate(ctx, story.ID, sequence, snap.TotalViews, snap.TotalViews-snap.CompletedViews)
	if err != nil {
		return nil, err
	}
	snap.ExitRate = exit

	hasLinks := false
	for _, e := range elements {
		switch e.Type {
		case models.ElementLink:
			hasLinks = true
			responses, err := s.elements.ListResponses(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			snap.LinkClicks += len(responses)
		case models.ElementPoll:
			responses, err := s.elements.ListResponses(ctx, e.ID)
			if err != nil {
				return nil, err
			}
			poll, err := TallyPoll(e, responses)
			if err != nil {
				return nil, err
			}
			snap.Polls = append(snap.Polls, poll)
		}
	}
	snap.ClickThroughRate = ClickThroughRate(snap.LinkClicks, snap.TotalViews, hasLinks)

	if snap.ViewDuration, err = SummariseDurations(views); err != nil {
		return nil, err
	}
	return snap, nil
}

// exitRate locates the story in the owner's chronological sequence. A story
// that is no longer in the active sequence counts as the last one.
func (s *AnalyticsService) exitRate(ctx context.Context, storyID string, sequence []*models.Story, viewers, incomplete int) (float64, error) {
	for i, st := range sequence {
		if st.ID != storyID {
			continue
		}
		if i == len(sequence)-1 {
			break
		}
		next, err := s.engagement.CountViews(ctx, sequence[i+1].ID)
		if err != nil {
			return 0, err
		}
		return ExitRate(viewers, &next, incomplete), nil
	}
	return ExitRate(viewers, nil, incomplete), nil
}
