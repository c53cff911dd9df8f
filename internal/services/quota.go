package services

import (
	"context"

	"story-backend/internal/apperrors"
)

// QuotaLevel is the notification level derived from quota usage
type QuotaLevel string

const (
	QuotaNone     QuotaLevel = "none"
	QuotaWarning  QuotaLevel = "warning"
	QuotaCritical QuotaLevel = "critical"
	QuotaExceeded QuotaLevel = "exceeded"
)

// LevelFor maps a usage percentage to a notification level. Boundaries are inclusive.
func LevelFor(percentageUsed float64) QuotaLevel {
	switch {
	case percentageUsed >= 100:
		return QuotaExceeded
	case percentageUsed >= 95:
		return QuotaCritical
	case percentageUsed >= 80:
		return QuotaWarning
	default:
		return QuotaNone
	}
}

// StorageQuota is a user's storage usage, computed on demand
type StorageQuota struct {
	UserID         string     `json:"user_id"`
	UsedBytes      int64      `json:"used_bytes"`
	ActiveBytes    int64      `json:"active_bytes"`
	ArchivedBytes  int64      `json:"archived_bytes"`
	LimitBytes     int64      `json:"limit_bytes"`
	AvailableBytes int64      `json:"available_bytes"`
	PercentageUsed float64    `json:"percentage_used"`
	Level          QuotaLevel `json:"level"`
}

// CanUpload reports whether sizeBytes still fits in the quota
func (q *StorageQuota) CanUpload(sizeBytes int64) bool {
	return q.AvailableBytes >= sizeBytes
}

// QuotaService enforces the per-user storage ceiling
type QuotaService struct {
	stories          StoryStore
	archive          ArchiveStore
	limitBytes       int64
	archivedEstimate int64
}

// NewQuotaService creates a new quota service. archivedEstimate is charged for
// archive rows that carry no recorded size.
func NewQuotaService(stories StoryStore, archive ArchiveStore, limitBytes, archivedEstimate int64) *QuotaService {
	return &QuotaService{
		stories:          stories,
		archive:          archive,
		limitBytes:       limitBytes,
		archivedEstimate: archivedEstimate,
	}
}

// GetStorageQuota sums the user's active and archived story sizes
func (s *QuotaService) GetStorageQuota(ctx context.Context, userID string) (*StorageQuota, error) {
	active, err := s.stories.SumActiveSize(ctx, userID)
	if err != nil {
		return nil, err
	}
	archived, unknown, err := s.archive.SumSize(ctx, userID)
	if err != nil {
		return nil, err
	}
	archived += int64(unknown) * s.archivedEstimate

	return NewStorageQuota(userID, active, archived, s.limitBytes), nil
}

// NewStorageQuota derives the quota figures from raw usage
func NewStorageQuota(userID string, active, archived, limit int64) *StorageQuota {
	used := active + archived
	q := &StorageQuota{
		UserID:         userID,
		UsedBytes:      used,
		ActiveBytes:    active,
		ArchivedBytes:  archived,
		LimitBytes:     limit,
		AvailableBytes: max(0, limit-used),
	}
	if limit > 0 {
		q.PercentageUsed = float64(used) * 100 / float64(limit)
	} else if used > 0 {
		q.PercentageUsed = 100
	}
	q.Level = LevelFor(q.PercentageUsed)
	return q
}

// CanUpload reports whether the user can store sizeBytes more
func (s *QuotaService) CanUpload(ctx context.Context, userID string, sizeBytes int64) (bool, error) {
	q, err := s.GetStorageQuota(ctx, userID)
	if err != nil {
		return false, err
	}
	return q.CanUpload(sizeBytes), nil
}

// EnforceQuota fails with ErrQuotaExceeded when sizeBytes does not fit
func (s *QuotaService) EnforceQuota(ctx context.Context, userID string, sizeBytes int64) error {
	q, err := s.GetStorageQuota(ctx, userID)
	if err != nil {
		return err
	}
	if !q.CanUpload(sizeBytes) {
		return apperrors.Wrap(apperrors.KindAuthorization, apperrors.ErrQuotaExceeded,
			"storage quota exceeded: used %d of %d bytes, upload needs %d", q.UsedBytes, q.LimitBytes, sizeBytes)
	}
	return nil
}
