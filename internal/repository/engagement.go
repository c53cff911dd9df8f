package repository

import (
	"context"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// EngagementRepository handles views, reactions and replies
type EngagementRepository struct {
	db *pgxpool.Pool
}

// NewEngagementRepository creates a new engagement repository
func NewEngagementRepository(db *pgxpool.Pool) *EngagementRepository {
	return &EngagementRepository{db: db}
}

// UpsertView records a view keyed by (story, viewer). A re-view refreshes
// viewed_at and duration; completed never goes back to false.
// It reports whether a new row was inserted.
func (r *EngagementRepository) UpsertView(ctx context.Context, v *models.StoryView) (bool, error) {
	query := `
		INSERT INTO story_views (id, story_id, viewer_id, viewed_at, duration_seconds, completed)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (story_id, viewer_id) DO UPDATE SET
			viewed_at = EXCLUDED.viewed_at,
			duration_seconds = COALESCE(EXCLUDED.duration_seconds, story_views.duration_seconds),
			completed = story_views.completed OR EXCLUDED.completed
		RETURNING (xmax = 0)
	`
	var inserted bool
	err := r.db.QueryRow(ctx, query,
		v.ID, v.StoryID, v.ViewerID, v.ViewedAt, v.DurationSeconds, v.Completed,
	).Scan(&inserted)
	if err != nil {
		return false, apperrors.Transient("record story view", err)
	}
	return inserted, nil
}

// ListViews returns the viewers of a story, most recent first
func (r *EngagementRepository) ListViews(ctx context.Context, storyID string) ([]*models.StoryView, error) {
	query := `
		SELECT id, story_id, viewer_id, viewed_at, duration_seconds, completed
		FROM story_views
		WHERE story_id = $1
		ORDER BY viewed_at DESC, id ASC
	`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		return nil, apperrors.Transient("list story views", err)
	}
	defer rows.Close()

	var views []*models.StoryView
	for rows.Next() {
		var v models.StoryView
		if err := rows.Scan(&v.ID, &v.StoryID, &v.ViewerID, &v.ViewedAt, &v.DurationSeconds, &v.Completed); err != nil {
			return nil, apperrors.Transient("scan story view", err)
		}
		views = append(views, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("list story views", err)
	}
	return views, nil
}

// CountViews returns the number of distinct viewers of a story
func (r *EngagementRepository) CountViews(ctx context.Context, storyID string) (int, error) {
	var n int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM story_views WHERE story_id = $1`, storyID).Scan(&n)
	if err != nil {
		return 0, apperrors.Transient("count story views", err)
	}
	return n, nil
}

// AddReaction appends a reaction
func (r *EngagementRepository) AddReaction(ctx context.Context, reaction *models.StoryReaction) error {
	query := `
		INSERT INTO story_reactions (id, story_id, user_id, reaction_type, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query,
		reaction.ID, reaction.StoryID, reaction.UserID, reaction.ReactionType, reaction.CreatedAt,
	)
	if err != nil {
		return apperrors.Transient("add story reaction", err)
	}
	return nil
}

// AddReply appends a reply
func (r *EngagementRepository) AddReply(ctx context.Context, reply *models.StoryReply) error {
	query := `
		INSERT INTO story_replies (id, story_id, user_id, body, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.Exec(ctx, query, reply.ID, reply.StoryID, reply.UserID, reply.Body, reply.CreatedAt)
	if err != nil {
		return apperrors.Transient("add story reply", err)
	}
	return nil
}
