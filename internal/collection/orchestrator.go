package collection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/ddalkkak/course-service/internal/curation"
	"github.com/ddalkkak/course-service/internal/domain"
	"github.com/ddalkkak/course-service/internal/observability"
	"github.com/ddalkkak/course-service/internal/placesearch"
	"github.com/ddalkkak/course-service/internal/repository"
)

const (
	// DefaultQuotaPerRegion caps how many new places one run collects per region.
	DefaultQuotaPerRegion = 100

	// DefaultSearchRadius is the search radius in meters around a region center.
	DefaultSearchRadius = 2000
)

// Searcher is the slice of the place-search client the orchestrator uses.
type Searcher interface {
	Search(ctx context.Context, q placesearch.Query) ([]placesearch.Hit, error)
}

// Config tunes a collection run.
type Config struct {
	// QuotaPerRegion caps new places per region per run.
	// Defaults to DefaultQuotaPerRegion.
	QuotaPerRegion int

	// SearchRadius is the search radius in meters. Defaults to DefaultSearchRadius.
	SearchRadius int

	// CurationBatchSize bounds re-curation batches. Non-positive means all.
	CurationBatchSize int
}

func (c *Config) applyDefaults() {
	if c.QuotaPerRegion <= 0 {
		c.QuotaPerRegion = DefaultQuotaPerRegion
	}
	if c.SearchRadius <= 0 {
		c.SearchRadius = DefaultSearchRadius
	}
}

// Orchestrator walks the fixed region and keyword tables, deduplicates hits
// against the store by external id, persists new places, and feeds them to
// the curation runner.
type Orchestrator struct {
	searcher Searcher
	places   repository.PlaceRepository
	runner   *curation.Runner
	config   Config
	logger   zerolog.Logger
	metrics  *observability.Metrics
}

// NewOrchestrator creates a collection orchestrator.
func NewOrchestrator(searcher Searcher, places repository.PlaceRepository, runner *curation.Runner, cfg Config, logger zerolog.Logger, metrics *observability.Metrics) *Orchestrator {
	cfg.applyDefaults()
	return &Orchestrator{
		searcher: searcher,
		places:   places,
		runner:   runner,
		config:   cfg,
		logger:   logger.With().Str("component", "collection").Logger(),
		metrics:  metrics,
	}
}

// CollectRegion collects new places for one region. For each keyword it
// searches "<region> <keyword>" around the region center, skips hits already
// stored under the same external id, and persists the rest tagged with the
// region. Collection stops once the per-region quota is reached. A keyword
// search failure is logged and the remaining keywords still run.
func (o *Orchestrator) CollectRegion(ctx context.Context, region string) ([]*domain.Place, error) {
	center, ok := RegionCoordinate(region)
	if !ok {
		return nil, domain.NewValidationError("region", fmt.Sprintf("unsupported region %q", region))
	}

	logger := observability.WithRegionContext(o.logger, region)
	collected := make([]*domain.Place, 0, o.config.QuotaPerRegion)
	duplicates := 0

keywords:
	for _, keyword := range searchKeywords {
		if err := ctx.Err(); err != nil {
			return collected, err
		}
		if len(collected) >= o.config.QuotaPerRegion {
			logger.Info().Int("quota", o.config.QuotaPerRegion).Msg("region quota reached")
			break
		}

		start := time.Now()
		hits, err := o.searcher.Search(ctx, placesearch.Query{
			Keyword:   region + " " + keyword,
			Longitude: center.Longitude,
			Latitude:  center.Latitude,
			Radius:    o.config.SearchRadius,
		})
		o.metrics.RecordSearchRequest(region, keyword, time.Since(start).Seconds())
		if err != nil {
			o.metrics.RecordSearchRequestFailed(region, "search")
			logger.Warn().Err(err).Str("keyword", keyword).Msg("keyword search failed, continuing with next keyword")
			continue
		}

		for _, hit := range hits {
			if len(collected) >= o.config.QuotaPerRegion {
				logger.Info().Int("quota", o.config.QuotaPerRegion).Msg("region quota reached")
				break keywords
			}

			_, err := o.places.FindByExternalID(ctx, hit.ExternalID)
			if err == nil {
				duplicates++
				continue
			}
			if !errors.Is(err, domain.ErrNotFound) {
				logger.Warn().Err(err).Str("kakao_place_id", hit.ExternalID).Msg("dedup lookup failed, skipping hit")
				continue
			}

			place := hitToPlace(hit, region)
			saved, err := o.places.Save(ctx, place)
			if err != nil {
				logger.Error().Err(err).Str("kakao_place_id", hit.ExternalID).Msg("failed to persist place, skipping")
				continue
			}
			collected = append(collected, saved)
		}
	}

	o.metrics.RecordPlacesCollected(region, len(collected))
	o.metrics.RecordPlacesDuplicate(region, duplicates)
	logger.Info().
		Int("collected", len(collected)).
		Int("duplicates", duplicates).
		Msg("region collection finished")
	return collected, nil
}

// CollectAndCurate runs collection over every region in order and then curates
// each region's new places. A failing region is logged and does not stop
// later regions. It returns how many places were collected and how many of
// those were curated and persisted.
func (o *Orchestrator) CollectAndCurate(ctx context.Context) (collected, curated int) {
	failed := 0

	for _, region := range regionOrder {
		places, err := o.CollectRegion(ctx, region)
		if err != nil {
			failed++
			o.logger.Error().Err(err).Str("region", region).Msg("region collection failed, continuing with next region")
			continue
		}

		collected += len(places)
		curated += o.runner.CurateAll(ctx, places)
	}

	outcome := "success"
	if failed > 0 {
		outcome = "partial"
	}
	if failed == len(regionOrder) {
		outcome = "failure"
	}
	o.metrics.RecordCollectionRun(outcome)

	o.logger.Info().
		Int("collected", collected).
		Int("curated", curated).
		Int("failed_regions", failed).
		Msg("collection run finished")
	return collected, curated
}

// Recurate selects places whose curation is still unset and runs the curation
// batch over them. It returns how many were curated and how many were pending.
func (o *Orchestrator) Recurate(ctx context.Context) (curated, pending int, err error) {
	return o.runner.CurateUncurated(ctx, o.config.CurationBatchSize)
}

// hitToPlace maps a search hit onto a new uncurated place.
func hitToPlace(hit placesearch.Hit, region string) *domain.Place {
	return &domain.Place{
		KakaoPlaceID:      hit.ExternalID,
		Name:              hit.Name,
		AddressName:       hit.AddressName,
		RoadAddressName:   hit.RoadAddressName,
		CategoryName:      hit.CategoryName,
		CategoryGroupCode: hit.CategoryGroupCode,
		Latitude:          hit.Latitude,
		Longitude:         hit.Longitude,
		PlaceURL:          hit.PlaceURL,
		Phone:             hit.Phone,
		Region:            region,
	}
}
