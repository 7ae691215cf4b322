package curation

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/observability"
	"github.com/ddalkkak/course-service/internal/repository"
)

// DefaultPacing is the minimum spacing between consecutive curation calls.
const DefaultPacing = time.Second

// Runner drives the Curator across a set of places, one at a time, with a
// mandatory pacing delay between calls. Per-item failures are isolated: a
// persistence error skips that place and the batch continues.
type Runner struct {
	curator *Curator
	places  repository.PlaceRepository
	pacing  time.Duration
	logger  zerolog.Logger
	metrics *observability.Metrics
}

// NewRunner creates a Runner. A non-positive pacing falls back to DefaultPacing.
func NewRunner(curator *Curator, places repository.PlaceRepository, pacing time.Duration, logger zerolog.Logger, metrics *observability.Metrics) *Runner {
	if pacing <= 0 {
		pacing = DefaultPacing
	}
	return &Runner{
		curator: curator,
		places:  places,
		pacing:  pacing,
		logger:  logger.With().Str("component", "curation_runner").Logger(),
		metrics: metrics,
	}
}

// CurateAll curates every place in the input sequentially and returns the
// number persisted successfully. Curation itself never fails (the curator
// falls back to a default judgment); only persistence failures reduce the
// count. The pacing delay runs between consecutive calls even on success.
func (r *Runner) CurateAll(ctx context.Context, places []*domain.Place) int {
	curated := 0

	for i, place := range places {
		if i > 0 {
			select {
			case <-ctx.Done():
				r.logger.Warn().
					Err(ctx.Err()).
					Int("curated", curated).
					Int("remaining", len(places)-i).
					Msg("curation batch interrupted")
				return curated
			case <-time.After(r.pacing):
			}
		}

		result := r.curator.Curate(ctx, place)
		place.ApplyCuration(result, time.Now().UTC())

		if _, err := r.places.Save(ctx, place); err != nil {
			r.logger.Error().
				Err(err).
				Str("kakao_place_id", place.KakaoPlaceID).
				Msg("failed to persist curation, skipping place")
			continue
		}
		curated++
	}

	return curated
}

// CurateUncurated selects every place whose curation is unset (up to
// batchSize when positive) and curates them. It returns the number curated
// and the number that were pending.
func (r *Runner) CurateUncurated(ctx context.Context, batchSize int) (curated, pending int, err error) {
	places, err := r.places.ListUncurated(ctx, batchSize)
	if err != nil {
		return 0, 0, err
	}

	r.logger.Info().Int("pending", len(places)).Msg("starting re-curation batch")
	curated = r.CurateAll(ctx, places)
	return curated, len(places), nil
}
