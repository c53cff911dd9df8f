package repository

import (
	"context"
	"fmt"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type relationTable struct {
	name   string
	owner  string
	target string
}

var relationTables = map[models.RelationKind]relationTable{
	models.RelationFollow:      {name: "follows", owner: "follower_id", target: "followee_id"},
	models.RelationCloseFriend: {name: "close_friends", owner: "owner_id", target: "friend_id"},
	models.RelationBlock:       {name: "blocks", owner: "blocker_id", target: "blocked_id"},
	models.RelationHidden:      {name: "hidden_viewers", owner: "owner_id", target: "viewer_id"},
}

// RelationRepository handles the relation sets consulted by the visibility resolver
type RelationRepository struct {
	db *pgxpool.Pool
}

// NewRelationRepository creates a new relation repository
func NewRelationRepository(db *pgxpool.Pool) *RelationRepository {
	return &RelationRepository{db: db}
}

func tableFor(kind models.RelationKind) (relationTable, error) {
	t, ok := relationTables[kind]
	if !ok {
		return relationTable{}, fmt.Errorf("unknown relation kind %q", kind)
	}
	return t, nil
}

// Add creates a relation; adding an existing one is a no-op
func (r *RelationRepository) Add(ctx context.Context, rel *models.Relation) error {
	t, err := tableFor(rel.Kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(
		`INSERT INTO %s (%s, %s, created_at) VALUES ($1, $2, $3) ON CONFLICT DO NOTHING`,
		t.name, t.owner, t.target,
	)
	if _, err := r.db.Exec(ctx, query, rel.OwnerID, rel.TargetID, rel.CreatedAt); err != nil {
		return apperrors.Transient("add "+string(rel.Kind), err)
	}
	return nil
}

// Remove deletes a relation; removing a missing one is a no-op
func (r *RelationRepository) Remove(ctx context.Context, kind models.RelationKind, ownerID, targetID string) error {
	t, err := tableFor(kind)
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s = $1 AND %s = $2`, t.name, t.owner, t.target)
	if _, err := r.db.Exec(ctx, query, ownerID, targetID); err != nil {
		return apperrors.Transient("remove "+string(kind), err)
	}
	return nil
}

// Facts evaluates every relation between a story and a viewer in one round trip
func (r *RelationRepository) Facts(ctx context.Context, story *models.Story, viewerID string) (models.RelationFacts, error) {
	query := `
		SELECT
			EXISTS(SELECT 1 FROM blocks WHERE blocker_id = $1 AND blocked_id = $2),
			EXISTS(SELECT 1 FROM hidden_viewers WHERE owner_id = $1 AND viewer_id = $2),
			EXISTS(SELECT 1 FROM follows WHERE follower_id = $2 AND followee_id = $1),
			EXISTS(SELECT 1 FROM close_friends WHERE owner_id = $1 AND friend_id = $2),
			EXISTS(SELECT 1 FROM story_custom_viewers WHERE story_id = $3 AND viewer_id = $2)
	`
	var f models.RelationFacts
	err := r.db.QueryRow(ctx, query, story.OwnerID, viewerID, story.ID).Scan(
		&f.BlockedByOwner, &f.HiddenByOwner, &f.FollowsOwner, &f.CloseFriend, &f.InCustomList,
	)
	if err != nil {
		return models.RelationFacts{}, apperrors.Transient("evaluate story privacy", err)
	}
	return f, nil
}

// SetCustomList replaces the custom allow-list of a story
func (r *RelationRepository) SetCustomList(ctx context.Context, storyID string, viewerIDs []string) error {
	tx, err := r.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return apperrors.Transient("begin custom list update", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM story_custom_viewers WHERE story_id = $1`, storyID); err != nil {
		return apperrors.Transient("clear custom list", err)
	}
	if len(viewerIDs) > 0 {
		query := `
			INSERT INTO story_custom_viewers (story_id, viewer_id)
			SELECT $1, unnest($2::TEXT[])
			ON CONFLICT DO NOTHING
		`
		if _, err := tx.Exec(ctx, query, storyID, viewerIDs); err != nil {
			return apperrors.Transient("insert custom list", err)
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return apperrors.Transient("commit custom list", err)
	}
	return nil
}

// DeleteCustomList removes the custom allow-list of a story
func (r *RelationRepository) DeleteCustomList(ctx context.Context, storyID string) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM story_custom_viewers WHERE story_id = $1`, storyID); err != nil {
		return apperrors.Transient("delete custom list", err)
	}
	return nil
}

// FollowerIDs returns the ids of everyone following a user
func (r *RelationRepository) FollowerIDs(ctx context.Context, userID string) ([]string, error) {
	rows, err := r.db.Query(ctx, `SELECT follower_id FROM follows WHERE followee_id = $1`, userID)
	if err != nil {
		return nil, apperrors.Transient("list followers", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, apperrors.Transient("scan followers", err)
	}
	return ids, nil
}
