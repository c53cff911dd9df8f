package services

import (
	"context"
	"fmt"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// RelationService manages follows, close friends, blocks and hidden viewers
type RelationService struct {
	relations RelationStore
	users     UserStore
	now       func() time.Time
}

// NewRelationService creates a new relation service
func NewRelationService(relations RelationStore, users UserStore, now func() time.Time) *RelationService {
	if now == nil {
		now = time.Now
	}
	return &RelationService{relations: relations, users: users, now: now}
}

func (s *RelationService) checkTarget(ctx context.Context, kind models.RelationKind, ownerID, targetID string) error {
	if targetID == "" {
		return apperrors.Validation("target user is required")
	}
	// Check if user is trying to relate to themselves
	if ownerID == targetID {
		return apperrors.Validation("cannot %s yourself", kind)
	}
	exists, err := s.users.Exists(ctx, targetID)
	if err != nil {
		return err
	}
	if !exists {
		return apperrors.NotFound("user", targetID)
	}
	return nil
}

// Add creates a relation from ownerID to targetID
func (s *RelationService) Add(ctx context.Context, kind models.RelationKind, ownerID, targetID string) error {
	if err := s.checkTarget(ctx, kind, ownerID, targetID); err != nil {
		return err
	}
	rel := &models.Relation{
		Kind:      kind,
		OwnerID:   ownerID,
		TargetID:  targetID,
		CreatedAt: s.now(),
	}
	if err := s.relations.Add(ctx, rel); err != nil {
		return fmt.Errorf("failed to add %s: %w", kind, err)
	}

	log.Info().
		Str("kind", string(kind)).
		Str("owner_id", ownerID).
		Str("target_id", targetID).
		Msg("Relation added")
	return nil
}

// Remove deletes a relation from ownerID to targetID
func (s *RelationService) Remove(ctx context.Context, kind models.RelationKind, ownerID, targetID string) error {
	if ownerID == targetID {
		return apperrors.Validation("cannot %s yourself", kind)
	}
	if err := s.relations.Remove(ctx, kind, ownerID, targetID); err != nil {
		return fmt.Errorf("failed to remove %s: %w", kind, err)
	}
	return nil
}
