package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const storyColumns = `id, owner_id, media_key, media_url, media_type, thumbnail_key, content,
	privacy_setting, duration_hours, created_at, expires_at, is_active, file_size_bytes,
	view_count, reaction_count, reply_count`

// StoryRepository handles database operations for stories
type StoryRepository struct {
	db *pgxpool.Pool
}

// NewStoryRepository creates a new story repository
func NewStoryRepository(db *pgxpool.Pool) *StoryRepository {
	return &StoryRepository{db: db}
}

func scanStory(row pgx.Row) (*models.Story, error) {
	var s models.Story
	err := row.Scan(
		&s.ID, &s.OwnerID, &s.MediaKey, &s.MediaURL, &s.MediaType, &s.ThumbnailKey, &s.Content,
		&s.Privacy, &s.DurationHours, &s.CreatedAt, &s.ExpiresAt, &s.IsActive, &s.FileSizeBytes,
		&s.ViewCount, &s.ReactionCount, &s.ReplyCount,
	)
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func collectStories(rows pgx.Rows) ([]*models.Story, error) {
	defer rows.Close()

	var stories []*models.Story
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

// Create inserts a new story
func (r *StoryRepository) Create(ctx context.Context, s *models.Story) error {
	query := `
		INSERT INTO stories (` + storyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.OwnerID, s.MediaKey, s.MediaURL, s.MediaType, s.ThumbnailKey, s.Content,
		s.Privacy, s.DurationHours, s.CreatedAt, s.ExpiresAt, s.IsActive, s.FileSizeBytes,
		s.ViewCount, s.ReactionCount, s.ReplyCount,
	)
	if err != nil {
		return apperrors.Transient("create story", err)
	}
	return nil
}

// Upsert inserts the story, or overwrites the row with the same id
func (r *StoryRepository) Upsert(ctx context.Context, s *models.Story) error {
	query := `
		INSERT INTO stories (` + storyColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		ON CONFLICT (id) DO UPDATE SET
			media_key = EXCLUDED.media_key,
			media_url = EXCLUDED.media_url,
			media_type = EXCLUDED.media_type,
			thumbnail_key = EXCLUDED.thumbnail_key,
			content = EXCLUDED.content,
			privacy_setting = EXCLUDED.privacy_setting,
			duration_hours = EXCLUDED.duration_hours,
			created_at = EXCLUDED.created_at,
			expires_at = EXCLUDED.expires_at,
			is_active = EXCLUDED.is_active,
			file_size_bytes = EXCLUDED.file_size_bytes,
			view_count = EXCLUDED.view_count,
			reaction_count = EXCLUDED.reaction_count,
			reply_count = EXCLUDED.reply_count
	`
	_, err := r.db.Exec(ctx, query,
		s.ID, s.OwnerID, s.MediaKey, s.MediaURL, s.MediaType, s.ThumbnailKey, s.Content,
		s.Privacy, s.DurationHours, s.CreatedAt, s.ExpiresAt, s.IsActive, s.FileSizeBytes,
		s.ViewCount, s.ReactionCount, s.ReplyCount,
	)
	if err != nil {
		return apperrors.Transient("upsert story", err)
	}
	return nil
}

// GetByID retrieves a story by ID, active or not
func (r *StoryRepository) GetByID(ctx context.Context, id string) (*models.Story, error) {
	query := `SELECT ` + storyColumns + ` FROM stories WHERE id = $1`
	s, err := scanStory(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("story", id)
		}
		return nil, apperrors.Transient("get story", err)
	}
	return s, nil
}

// Delete removes a story row. Deleting a missing row is not an error.
func (r *StoryRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1`, id); err != nil {
		return apperrors.Transient("delete story", err)
	}
	return nil
}

// DeleteInactive removes a story row only once it has left the active set
func (r *StoryRepository) DeleteInactive(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM stories WHERE id = $1 AND NOT is_active`, id); err != nil {
		return apperrors.Transient("delete inactive story", err)
	}
	return nil
}

// Deactivate flips is_active off. It reports whether the row was active before.
func (r *StoryRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	result, err := r.db.Exec(ctx, `UPDATE stories SET is_active = FALSE WHERE id = $1 AND is_active`, id)
	if err != nil {
		return false, apperrors.Transient("deactivate story", err)
	}
	return result.RowsAffected() > 0, nil
}

// ListFeedPage returns one page of active, unexpired stories that viewerID
// may see, most recent first, starting strictly after the cursor. The
// relation predicate mirrors services.Decide so pages are not padded with
// stories the resolver would drop.
func (r *StoryRepository) ListFeedPage(ctx context.Context, viewerID string, now time.Time, after *models.FeedCursor, limit int) ([]*models.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories s
		WHERE s.is_active AND s.expires_at >= $2
			AND ($3::TIMESTAMPTZ IS NULL OR (s.created_at, s.id) < ($3::TIMESTAMPTZ, $4))
			AND NOT EXISTS (SELECT 1 FROM blocks b WHERE b.blocker_id = s.owner_id AND b.blocked_id = $1)
			AND NOT EXISTS (SELECT 1 FROM hidden_viewers h WHERE h.owner_id = s.owner_id AND h.viewer_id = $1)
			AND (
				s.owner_id = $1
				OR s.privacy_setting = 'public'
				OR (s.privacy_setting = 'followers' AND EXISTS (
					SELECT 1 FROM follows f WHERE f.follower_id = $1 AND f.followee_id = s.owner_id))
				OR (s.privacy_setting = 'close_friends' AND EXISTS (
					SELECT 1 FROM close_friends c WHERE c.owner_id = s.owner_id AND c.friend_id = $1))
				OR (s.privacy_setting = 'custom' AND EXISTS (
					SELECT 1 FROM story_custom_viewers v WHERE v.story_id = s.id AND v.viewer_id = $1))
			)
		ORDER BY s.created_at DESC, s.id DESC
		LIMIT $5
	`
	var afterAt *time.Time
	var afterID string
	if after != nil {
		afterAt = &after.CreatedAt
		afterID = after.ID
	}
	rows, err := r.db.Query(ctx, query, viewerID, now, afterAt, afterID, limit)
	if err != nil {
		return nil, apperrors.Transient("list feed stories", err)
	}
	stories, err := collectStories(rows)
	if err != nil {
		return nil, apperrors.Transient("scan feed stories", err)
	}
	return stories, nil
}

// ListActiveByOwner returns an owner's active stories in chronological order
func (r *StoryRepository) ListActiveByOwner(ctx context.Context, ownerID string) ([]*models.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE owner_id = $1 AND is_active
		ORDER BY created_at ASC, id ASC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperrors.Transient("list owner stories", err)
	}
	stories, err := collectStories(rows)
	if err != nil {
		return nil, apperrors.Transient("scan owner stories", err)
	}
	return stories, nil
}

// ListExpired returns active stories whose expiration is in the past
func (r *StoryRepository) ListExpired(ctx context.Context, now time.Time) ([]*models.Story, error) {
	query := `
		SELECT ` + storyColumns + `
		FROM stories
		WHERE is_active AND expires_at < $1
		ORDER BY expires_at ASC
	`
	rows, err := r.db.Query(ctx, query, now)
	if err != nil {
		return nil, apperrors.Transient("list expired stories", err)
	}
	stories, err := collectStories(rows)
	if err != nil {
		return nil, apperrors.Transient("scan expired stories", err)
	}
	return stories, nil
}

// SumActiveSize returns the total size of an owner's active stories
func (r *StoryRepository) SumActiveSize(ctx context.Context, ownerID string) (int64, error) {
	query := `SELECT COALESCE(SUM(file_size_bytes), 0)::BIGINT FROM stories WHERE owner_id = $1 AND is_active`
	var sum int64
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&sum); err != nil {
		return 0, apperrors.Transient("sum active story sizes", err)
	}
	return sum, nil
}

// IncrementCounter bumps one of the story counters in a single statement
func (r *StoryRepository) IncrementCounter(ctx context.Context, id string, counter models.StoryCounter) error {
	switch counter {
	case models.CounterViews, models.CounterReactions, models.CounterReplies:
	default:
		return fmt.Errorf("unknown story counter %q", counter)
	}
	query := fmt.Sprintf(`UPDATE stories SET %[1]s = %[1]s + 1 WHERE id = $1`, counter)
	result, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return apperrors.Transient("increment "+string(counter), err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("story", id)
	}
	return nil
}

// UpdatePrivacy changes the privacy tier of a story
func (r *StoryRepository) UpdatePrivacy(ctx context.Context, id string, privacy models.PrivacySetting) error {
	result, err := r.db.Exec(ctx, `UPDATE stories SET privacy_setting = $1 WHERE id = $2`, privacy, id)
	if err != nil {
		return apperrors.Transient("update story privacy", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("story", id)
	}
	return nil
}

// UpdateExpiration stores a new duration together with its recomputed deadline
func (r *StoryRepository) UpdateExpiration(ctx context.Context, id string, hours int, expiresAt time.Time) error {
	query := `UPDATE stories SET duration_hours = $1, expires_at = $2 WHERE id = $3`
	result, err := r.db.Exec(ctx, query, hours, expiresAt, id)
	if err != nil {
		return apperrors.Transient("update story duration", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.NotFound("story", id)
	}
	return nil
}

// AddMentions records the users mentioned by a story
func (r *StoryRepository) AddMentions(ctx context.Context, storyID string, userIDs []string) error {
	if len(userIDs) == 0 {
		return nil
	}
	query := `
		INSERT INTO story_mentions (story_id, user_id)
		SELECT $1, unnest($2::TEXT[])
		ON CONFLICT DO NOTHING
	`
	if _, err := r.db.Exec(ctx, query, storyID, userIDs); err != nil {
		return apperrors.Transient("add story mentions", err)
	}
	return nil
}

// DeleteMentions removes every mention of a story
func (r *StoryRepository) DeleteMentions(ctx context.Context, storyID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM story_mentions WHERE story_id = $1`, storyID); err != nil {
		return apperrors.Transient("delete story mentions", err)
	}
	return nil
}
