package services

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

type expirationSweep interface {
	ArchiveExpiredStories(ctx context.Context) (*SweepResult, error)
}

// Sweeper runs the expiration sweep on a fixed interval
type Sweeper struct {
	stories  expirationSweep
	interval time.Duration
}

// NewSweeper creates a new sweeper
func NewSweeper(stories expirationSweep, interval time.Duration) *Sweeper {
	return &Sweeper{stories: stories, interval: interval}
}

// Run sweeps once immediately and then on every tick until ctx is cancelled
func (s *Sweeper) Run(ctx context.Context) {
	log.Info().Dur("interval", s.interval).Msg("Expiration sweeper started")

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		s.SweepOnce(ctx)

		select {
		case <-ctx.Done():
			log.Info().Msg("Expiration sweeper stopped")
			return
		case <-ticker.C:
		}
	}
}

// SweepOnce runs a single sweep and logs its outcome
func (s *Sweeper) SweepOnce(ctx context.Context) {
	start := time.Now()
	result, err := s.stories.ArchiveExpiredStories(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Expiration sweep failed, retrying on next run")
		return
	}
	if result.Expired == 0 {
		return
	}

	log.Info().
		Int("expired", result.Expired).
		Int("archived", result.Archived).
		Int("failed", len(result.Errors)).
		Dur("took", time.Since(start)).
		Msg("Expiration sweep finished")
}
