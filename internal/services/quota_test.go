package services

import (
	"context"
	"testing"
	"time"

	"story-backend/internal/apperrors"
	"story-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const mb = 1024 * 1024

func TestLevelFor(t *testing.T) {
	tests := []struct {
		pct  float64
		want QuotaLevel
	}{
		{0, QuotaNone},
		{79.99, QuotaNone},
		{80, QuotaWarning},
		{94.9, QuotaWarning},
		{95, QuotaCritical},
		{99.99, QuotaCritical},
		{100, QuotaExceeded},
		{140, QuotaExceeded},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, LevelFor(tt.pct), "pct=%v", tt.pct)
	}
}

func TestNewStorageQuota(t *testing.T) {
	tests := []struct {
		name      string
		active    int64
		archived  int64
		level     QuotaLevel
		available int64
	}{
		{"warning", 60 * mb, 25 * mb, QuotaWarning, 15 * mb},
		{"critical", 90 * mb, 6 * mb, QuotaCritical, 4 * mb},
		{"exceeded", 100 * mb, 5 * mb, QuotaExceeded, 0},
		{"empty", 0, 0, QuotaNone, 100 * mb},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := NewStorageQuota("owner", tt.active, tt.archived, 100*mb)
			assert.Equal(t, tt.active+tt.archived, q.UsedBytes)
			assert.Equal(t, tt.level, q.Level)
			assert.Equal(t, tt.available, q.AvailableBytes)
		})
	}
}

func TestGetStorageQuotaCountsArchivedEstimate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	s := env.addStory("active", "owner", models.PrivacyPublic, time.Hour)
	s.FileSizeBytes = 10 * mb
	env.stories.put(s)
	_, err := env.archive.Insert(ctx, &models.ArchivedStory{ID: "a1", StoryID: "x1", OwnerID: "owner", FileSizeBytes: 20 * mb})
	require.NoError(t, err)
	_, err = env.archive.Insert(ctx, &models.ArchivedStory{ID: "a2", StoryID: "x2", OwnerID: "owner"})
	require.NoError(t, err)

	q, err := env.quota.GetStorageQuota(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, int64(10*mb), q.ActiveBytes)
	assert.Equal(t, int64(20*mb+testEstimate), q.ArchivedBytes)
	assert.Equal(t, int64(35*mb), q.UsedBytes)
	assert.Equal(t, QuotaNone, q.Level)
}

func TestEnforceQuota(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	s := env.addStory("active", "owner", models.PrivacyPublic, time.Hour)
	s.FileSizeBytes = 96 * mb
	env.stories.put(s)

	q, err := env.quota.GetStorageQuota(ctx, "owner")
	require.NoError(t, err)
	assert.Equal(t, QuotaCritical, q.Level)

	require.NoError(t, env.quota.EnforceQuota(ctx, "owner", 4*mb))

	ok, err := env.quota.CanUpload(ctx, "owner", 5*mb)
	require.NoError(t, err)
	assert.False(t, ok)

	err = env.quota.EnforceQuota(ctx, "owner", 5*mb)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrQuotaExceeded)

	assert.NoError(t, env.quota.EnforceQuota(ctx, "someone-else", 5*mb))
}
