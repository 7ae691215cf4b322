package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/ddalkkak/course-service/internal/domain"
)

// Compile-time interface verification.
var _ PlaceRepository = (*PgPlaceRepository)(nil)

// placeColumns is the column list shared by all place queries.
const placeColumns = `id, kakao_place_id, name, address_name, road_address_name,
		category_name, category_group_code, phone, place_url,
		latitude, longitude, region,
		date_score, mood_tags, price_range, best_time, recommendation, curated_at,
		created_at, updated_at`

// PgPlaceRepository is a PostgreSQL implementation of PlaceRepository.
type PgPlaceRepository struct {
	db DBTX
}

// NewPgPlaceRepository creates a new PostgreSQL place repository.
func NewPgPlaceRepository(db DBTX) *PgPlaceRepository {
	return &PgPlaceRepository{db: db}
}

// Save inserts a new place or updates the existing row based on kakao_place_id.
func (r *PgPlaceRepository) Save(ctx context.Context, place *domain.Place) (*domain.Place, error) {
	if place == nil {
		return nil, domain.NewValidationError("place", "place cannot be nil")
	}
	if place.KakaoPlaceID == "" {
		return nil, domain.NewValidationError("kakao_place_id", "external id is required")
	}

	var (
		dateScore      *int
		moodTagsJSON   []byte
		priceRange     *string
		bestTime       *string
		recommendation *string
		curatedAt      *time.Time
		err            error
	)
	if place.Curation != nil {
		c := place.Curation
		dateScore = &c.DateScore
		priceRange = &c.PriceRange
		bestTime = &c.BestTime
		recommendation = &c.Recommendation
		curatedAt = &c.CuratedAt
		moodTagsJSON, err = json.Marshal(c.MoodTags)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal mood tags: %w", err)
		}
	}

	now := time.Now().UTC()

	query := `
		INSERT INTO places (
			kakao_place_id, name, address_name, road_address_name,
			category_name, category_group_code, phone, place_url,
			latitude, longitude, region,
			date_score, mood_tags, price_range, best_time, recommendation, curated_at,
			created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19
		)
		ON CONFLICT (kakao_place_id) DO UPDATE SET
			name = EXCLUDED.name,
			address_name = EXCLUDED.address_name,
			road_address_name = EXCLUDED.road_address_name,
			category_name = EXCLUDED.category_name,
			category_group_code = EXCLUDED.category_group_code,
			phone = EXCLUDED.phone,
			place_url = EXCLUDED.place_url,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			region = EXCLUDED.region,
			date_score = COALESCE(EXCLUDED.date_score, places.date_score),
			mood_tags = COALESCE(EXCLUDED.mood_tags, places.mood_tags),
			price_range = COALESCE(EXCLUDED.price_range, places.price_range),
			best_time = COALESCE(EXCLUDED.best_time, places.best_time),
			recommendation = COALESCE(EXCLUDED.recommendation, places.recommendation),
			curated_at = COALESCE(EXCLUDED.curated_at, places.curated_at),
			updated_at = NOW()
		RETURNING id, created_at, updated_at`

	err = r.db.QueryRow(ctx, query,
		place.KakaoPlaceID,
		place.Name,
		place.AddressName,
		place.RoadAddressName,
		place.CategoryName,
		place.CategoryGroupCode,
		place.Phone,
		place.PlaceURL,
		place.Latitude,
		place.Longitude,
		place.Region,
		dateScore,
		moodTagsJSON,
		priceRange,
		bestTime,
		recommendation,
		curatedAt,
		now,
		now,
	).Scan(&place.ID, &place.CreatedAt, &place.UpdatedAt)

	if err != nil {
		return nil, fmt.Errorf("failed to upsert place: %w", err)
	}

	return place, nil
}

// FindByExternalID retrieves a place by its provider-assigned identifier.
func (r *PgPlaceRepository) FindByExternalID(ctx context.Context, kakaoPlaceID string) (*domain.Place, error) {
	if kakaoPlaceID == "" {
		return nil, domain.NewValidationError("kakao_place_id", "external id is required")
	}

	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE kakao_place_id = $1`

	row := r.db.QueryRow(ctx, query, kakaoPlaceID)
	place, err := scanPlace(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.NewNotFoundError("place", kakaoPlaceID)
		}
		return nil, fmt.Errorf("failed to get place by external id: %w", err)
	}

	return place, nil
}

// ListByRegion returns all places tagged with the region, newest first.
func (r *PgPlaceRepository) ListByRegion(ctx context.Context, region string) ([]*domain.Place, error) {
	if region == "" {
		return nil, domain.NewValidationError("region", "region is required")
	}

	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE region = $1
		ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query, region)
	if err != nil {
		return nil, fmt.Errorf("failed to list places by region: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// ListUncurated returns up to limit places with no curation, oldest first so
// the longest-waiting places are curated before newly collected ones.
func (r *PgPlaceRepository) ListUncurated(ctx context.Context, limit int) ([]*domain.Place, error) {
	query := `SELECT ` + placeColumns + `
		FROM places
		WHERE curated_at IS NULL
		ORDER BY created_at ASC`

	var (
		rows pgx.Rows
		err  error
	)
	if limit > 0 {
		rows, err = r.db.Query(ctx, query+` LIMIT $1`, limit)
	} else {
		rows, err = r.db.Query(ctx, query)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list uncurated places: %w", err)
	}
	defer rows.Close()

	return scanPlaces(rows)
}

// CountByRegion returns the number of places stored for the region.
func (r *PgPlaceRepository) CountByRegion(ctx context.Context, region string) (int, error) {
	if region == "" {
		return 0, domain.NewValidationError("region", "region is required")
	}

	var count int
	err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM places WHERE region = $1`, region).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count places by region: %w", err)
	}

	return count, nil
}

// scanPlace scans a single place row, reassembling the nullable curation
// columns into a Curation value when curated_at is set.
func scanPlace(row pgx.Row) (*domain.Place, error) {
	var (
		place          domain.Place
		dateScore      *int
		moodTagsJSON   []byte
		priceRange     *string
		bestTime       *string
		recommendation *string
		curatedAt      *time.Time
	)

	err := row.Scan(
		&place.ID,
		&place.KakaoPlaceID,
		&place.Name,
		&place.AddressName,
		&place.RoadAddressName,
		&place.CategoryName,
		&place.CategoryGroupCode,
		&place.Phone,
		&place.PlaceURL,
		&place.Latitude,
		&place.Longitude,
		&place.Region,
		&dateScore,
		&moodTagsJSON,
		&priceRange,
		&bestTime,
		&recommendation,
		&curatedAt,
		&place.CreatedAt,
		&place.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if curatedAt != nil {
		curation := domain.Curation{CuratedAt: *curatedAt}
		if dateScore != nil {
			curation.DateScore = *dateScore
		}
		if priceRange != nil {
			curation.PriceRange = *priceRange
		}
		if bestTime != nil {
			curation.BestTime = *bestTime
		}
		if recommendation != nil {
			curation.Recommendation = *recommendation
		}
		if len(moodTagsJSON) > 0 {
			if err := json.Unmarshal(moodTagsJSON, &curation.MoodTags); err != nil {
				return nil, fmt.Errorf("failed to unmarshal mood tags: %w", err)
			}
		}
		place.Curation = &curation
	}

	return &place, nil
}

// scanPlaces scans all rows of a place query.
func scanPlaces(rows pgx.Rows) ([]*domain.Place, error) {
	places := make([]*domain.Place, 0)
	for rows.Next() {
		place, err := scanPlace(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan place: %w", err)
		}
		places = append(places, place)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate places: %w", err)
	}
	return places, nil
}
