package repository

import (
	"context"
	"errors"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ElementRepository handles interactive elements and their responses
type ElementRepository struct {
	db *pgxpool.Pool
}

// NewElementRepository creates a new element repository
func NewElementRepository(db *pgxpool.Pool) *ElementRepository {
	return &ElementRepository{db: db}
}

// Create inserts an element
func (r *ElementRepository) Create(ctx context.Context, e *models.InteractiveElement) error {
	query := `
		INSERT INTO interactive_elements (id, story_id, element_type, data, position, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := r.db.Exec(ctx, query, e.ID, e.StoryID, e.Type, []byte(e.Data), e.Position, e.CreatedAt)
	if err != nil {
		return apperrors.Transient("create interactive element", err)
	}
	return nil
}

// GetByID retrieves an element by ID
func (r *ElementRepository) GetByID(ctx context.Context, id string) (*models.InteractiveElement, error) {
	query := `
		SELECT id, story_id, element_type, data, position, created_at
		FROM interactive_elements
		WHERE id = $1
	`
	var e models.InteractiveElement
	var data []byte
	err := r.db.QueryRow(ctx, query, id).Scan(&e.ID, &e.StoryID, &e.Type, &data, &e.Position, &e.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("element", id)
		}
		return nil, apperrors.Transient("get interactive element", err)
	}
	e.Data = data
	return &e, nil
}

// ListByStory returns a story's elements in display order
func (r *ElementRepository) ListByStory(ctx context.Context, storyID string) ([]*models.InteractiveElement, error) {
	query := `
		SELECT id, story_id, element_type, data, position, created_at
		FROM interactive_elements
		WHERE story_id = $1
		ORDER BY position ASC, created_at ASC
	`
	rows, err := r.db.Query(ctx, query, storyID)
	if err != nil {
		return nil, apperrors.Transient("list interactive elements", err)
	}
	defer rows.Close()

	var elements []*models.InteractiveElement
	for rows.Next() {
		var e models.InteractiveElement
		var data []byte
		if err := rows.Scan(&e.ID, &e.StoryID, &e.Type, &data, &e.Position, &e.CreatedAt); err != nil {
			return nil, apperrors.Transient("scan interactive element", err)
		}
		e.Data = data
		elements = append(elements, &e)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("list interactive elements", err)
	}
	return elements, nil
}

// DeleteByStory removes every element of a story
func (r *ElementRepository) DeleteByStory(ctx context.Context, storyID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM interactive_elements WHERE story_id = $1`, storyID); err != nil {
		return apperrors.Transient("delete interactive elements", err)
	}
	return nil
}

// UpsertResponse replaces the viewer's previous response, if any
func (r *ElementRepository) UpsertResponse(ctx context.Context, resp *models.InteractiveResponse) error {
	query := `
		INSERT INTO interactive_responses (id, element_id, viewer_id, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (element_id, viewer_id) DO UPDATE SET
			data = EXCLUDED.data,
			updated_at = EXCLUDED.updated_at
	`
	_, err := r.db.Exec(ctx, query,
		resp.ID, resp.ElementID, resp.ViewerID, []byte(resp.Data), resp.CreatedAt, resp.UpdatedAt,
	)
	if err != nil {
		return apperrors.Transient("record interactive response", err)
	}
	return nil
}

// ListResponses returns every response to an element
func (r *ElementRepository) ListResponses(ctx context.Context, elementID string) ([]*models.InteractiveResponse, error) {
	query := `
		SELECT id, element_id, viewer_id, data, created_at, updated_at
		FROM interactive_responses
		WHERE element_id = $1
		ORDER BY updated_at DESC
	`
	rows, err := r.db.Query(ctx, query, elementID)
	if err != nil {
		return nil, apperrors.Transient("list interactive responses", err)
	}
	defer rows.Close()

	var responses []*models.InteractiveResponse
	for rows.Next() {
		var resp models.InteractiveResponse
		var data []byte
		if err := rows.Scan(&resp.ID, &resp.ElementID, &resp.ViewerID, &data, &resp.CreatedAt, &resp.UpdatedAt); err != nil {
			return nil, apperrors.Transient("scan interactive response", err)
		}
		resp.Data = data
		responses = append(responses, &resp)
	}
	if err := rows.Err(); err != nil {
		return nil, apperrors.Transient("list interactive responses", err)
	}
	return responses, nil
}
