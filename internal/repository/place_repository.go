package repository

import (
	"context"

	"github.com/ddalkkak/course-service/internal/domain"
)

// PlaceRepository manages Place persistence.
type PlaceRepository interface {
	// FindByExternalID returns the place with the given provider id, or a
	// domain.NotFoundError when no such place exists.
	FindByExternalID(ctx context.Context, kakaoPlaceID string) (*domain.Place, error)

	// Save inserts the place or updates the existing row with the same
	// provider id. The returned place carries the assigned id and timestamps.
	Save(ctx context.Context, place *domain.Place) (*domain.Place, error)

	// ListByRegion returns all places tagged with the region.
	ListByRegion(ctx context.Context, region string) ([]*domain.Place, error)

	// ListUncurated returns up to limit places whose curation is unset.
	// A non-positive limit returns all of them.
	ListUncurated(ctx context.Context, limit int) ([]*domain.Place, error)

	// CountByRegion returns how many places are stored for the region.
	CountByRegion(ctx context.Context, region string) (int, error)
}
