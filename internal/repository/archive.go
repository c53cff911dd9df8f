package repository

import (
	"context"
	"errors"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const archiveColumns = `id, story_id, owner_id, media_key, media_url, media_type, thumbnail_key,
	content, privacy_setting, duration_hours, file_size_bytes, view_count, reaction_count,
	reply_count, created_at, expires_at, archived_at, reason`

// ArchiveRepository handles archived story copies
type ArchiveRepository struct {
	db *pgxpool.Pool
}

// NewArchiveRepository creates a new archive repository
func NewArchiveRepository(db *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

func scanArchived(row pgx.Row) (*models.ArchivedStory, error) {
	var a models.ArchivedStory
	err := row.Scan(
		&a.ID, &a.StoryID, &a.OwnerID, &a.MediaKey, &a.MediaURL, &a.MediaType, &a.ThumbnailKey,
		&a.Content, &a.Privacy, &a.DurationHours, &a.FileSizeBytes, &a.ViewCount, &a.ReactionCount,
		&a.ReplyCount, &a.CreatedAt, &a.ExpiresAt, &a.ArchivedAt, &a.Reason,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// Insert stores an archive copy. A story already archived is left as is;
// the return value reports whether a new row was written.
func (r *ArchiveRepository) Insert(ctx context.Context, a *models.ArchivedStory) (bool, error) {
	query := `
		INSERT INTO archived_stories (` + archiveColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		ON CONFLICT (story_id) DO NOTHING
	`
	result, err := r.db.Exec(ctx, query,
		a.ID, a.StoryID, a.OwnerID, a.MediaKey, a.MediaURL, a.MediaType, a.ThumbnailKey,
		a.Content, a.Privacy, a.DurationHours, a.FileSizeBytes, a.ViewCount, a.ReactionCount,
		a.ReplyCount, a.CreatedAt, a.ExpiresAt, a.ArchivedAt, a.Reason,
	)
	if err != nil {
		return false, apperrors.Transient("archive story", err)
	}
	return result.RowsAffected() > 0, nil
}

// GetByID retrieves an archive entry by ID
func (r *ArchiveRepository) GetByID(ctx context.Context, id string) (*models.ArchivedStory, error) {
	query := `SELECT ` + archiveColumns + ` FROM archived_stories WHERE id = $1`
	a, err := scanArchived(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("archived story", id)
		}
		return nil, apperrors.Transient("get archived story", err)
	}
	return a, nil
}

// ListByOwner returns an owner's archive, newest story first
func (r *ArchiveRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.ArchivedStory, error) {
	query := `
		SELECT ` + archiveColumns + `
		FROM archived_stories
		WHERE owner_id = $1
		ORDER BY created_at DESC, id ASC
	`
	rows, err := r.db.Query(ctx, query, ownerID)
	if err != nil {
		return nil, apperrors.Transient("list archived stories", err)
	}
	defer rows.Close()

	var archived []*models.ArchivedStory
	for rows.Next() {
		a, err := scanArchived(rows)
		if err != nil {
			return nil, apperrors.Transient("scan archived story", err)
		}
		archived = append(archived, a)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("list archived stories", err)
	}
	return archived, nil
}

// Delete removes an archive entry. Deleting a missing row is not an error.
func (r *ArchiveRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM archived_stories WHERE id = $1`, id); err != nil {
		return apperrors.Transient("delete archived story", err)
	}
	return nil
}

// SumSize returns the recorded size of an owner's archive together with the
// number of entries that carry no size.
func (r *ArchiveRepository) SumSize(ctx context.Context, ownerID string) (int64, int, error) {
	query := `
		SELECT COALESCE(SUM(file_size_bytes), 0)::BIGINT,
		       COUNT(*) FILTER (WHERE file_size_bytes = 0)
		FROM archived_stories
		WHERE owner_id = $1
	`
	var sum int64
	var unknown int
	if err := r.db.QueryRow(ctx, query, ownerID).Scan(&sum, &unknown); err != nil {
		return 0, 0, apperrors.Transient("sum archived story sizes", err)
	}
	return sum, unknown, nil
}
