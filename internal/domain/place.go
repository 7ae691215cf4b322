package domain

import (
	"time"
)

// Region tags for the fixed set of supported neighborhoods.
const (
	RegionHongdae = "홍대"
	RegionGangnam = "강남"
	RegionSeongsu = "성수"
	RegionYeonnam = "연남"
	RegionItaewon = "이태원"
)

// Price tiers for a curated place (estimated cost per person).
const (
	PriceLow  = "₩"
	PriceMid  = "₩₩"
	PriceHigh = "₩₩₩"
)

// Recommended time-of-day values for a curated place.
const (
	BestTimeMorning = "아침"
	BestTimeMidday  = "점심"
	BestTimeEvening = "저녁"
	BestTimeNight   = "야간"
)

// Curation constraints.
const (
	// MinDateScore and MaxDateScore bound the suitability score.
	MinDateScore = 1
	MaxDateScore = 10

	// MaxMoodTags is the maximum number of mood tags per place.
	MaxMoodTags = 3

	// MaxRecommendationRunes caps the free-text recommendation length.
	MaxRecommendationRunes = 50
)

// Curation holds the AI-derived date-suitability judgment for a place.
// It is nil on a Place until the curation batch has processed it.
type Curation struct {
	// DateScore is the 1-10 date suitability score.
	DateScore int `json:"date_score"`

	// MoodTags are up to MaxMoodTags short mood hashtags.
	MoodTags []string `json:"mood_tags"`

	// PriceRange is one of PriceLow, PriceMid, PriceHigh.
	PriceRange string `json:"price_range"`

	// BestTime is one of the BestTime* constants.
	BestTime string `json:"best_time"`

	// Recommendation is a one-sentence reason, at most MaxRecommendationRunes runes.
	Recommendation string `json:"recommendation"`

	// CuratedAt is when the curation was produced.
	CuratedAt time.Time `json:"curated_at"`
}

// Place is a point of interest collected from the place-search provider,
// optionally enriched with AI curation data.
type Place struct {
	ID int64

	// KakaoPlaceID is the stable identifier assigned by the search provider.
	// It is the dedup key: unique across the whole store.
	KakaoPlaceID string

	Name              string
	AddressName       string
	RoadAddressName   string
	CategoryName      string
	CategoryGroupCode string
	Latitude          float64
	Longitude         float64
	PlaceURL          string
	Phone             string

	// Region is one of the Region* constants.
	Region string

	// Curation is nil until the place has been curated.
	Curation *Curation

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Curated reports whether the place carries curation data.
func (p *Place) Curated() bool {
	return p.Curation != nil && !p.Curation.CuratedAt.IsZero()
}

// ApplyCuration overwrites the place's curation fields with a fresh
// curated-at timestamp.
func (p *Place) ApplyCuration(c Curation, now time.Time) {
	c.CuratedAt = now
	p.Curation = &c
}

// ValidPriceRange reports whether s is one of the fixed price tiers.
func ValidPriceRange(s string) bool {
	switch s {
	case PriceLow, PriceMid, PriceHigh:
		return true
	}
	return false
}

// ValidBestTime reports whether s is one of the fixed time-of-day values.
func ValidBestTime(s string) bool {
	switch s {
	case BestTimeMorning, BestTimeMidday, BestTimeEvening, BestTimeNight:
		return true
	}
	return false
}
