package placesearch

import (
	"strconv"
)

// searchResponse is the response body of the keyword search endpoint.
type searchResponse struct {
	Meta      searchMeta `json:"meta"`
	Documents []document `json:"documents"`
}

// searchMeta carries pagination info for a search page.
type searchMeta struct {
	TotalCount    int  `json:"total_count"`
	PageableCount int  `json:"pageable_count"`
	IsEnd         bool `json:"is_end"`
}

// document is a single place result as returned by the provider.
// Coordinates come back as decimal-degree strings.
type document struct {
	ID                string `json:"id"`
	PlaceName         string `json:"place_name"`
	CategoryName      string `json:"category_name"`
	CategoryGroupCode string `json:"category_group_code"`
	Phone             string `json:"phone"`
	AddressName       string `json:"address_name"`
	RoadAddressName   string `json:"road_address_name"`
	X                 string `json:"x"`
	Y                 string `json:"y"`
	PlaceURL          string `json:"place_url"`
}

// Hit is a single search result with coordinates parsed into floats.
type Hit struct {
	// ExternalID is the stable identifier assigned by the provider.
	ExternalID string

	Name              string
	CategoryName      string
	CategoryGroupCode string
	Phone             string
	AddressName       string
	RoadAddressName   string
	Longitude         float64
	Latitude          float64
	PlaceURL          string
}

// toHit converts a provider document into a Hit. Unparseable coordinates
// become zero values rather than failing the page.
func (d *document) toHit() Hit {
	lng, _ := strconv.ParseFloat(d.X, 64)
	lat, _ := strconv.ParseFloat(d.Y, 64)
	return Hit{
		ExternalID:        d.ID,
		Name:              d.PlaceName,
		CategoryName:      d.CategoryName,
		CategoryGroupCode: d.CategoryGroupCode,
		Phone:             d.Phone,
		AddressName:       d.AddressName,
		RoadAddressName:   d.RoadAddressName,
		Longitude:         lng,
		Latitude:          lat,
		PlaceURL:          d.PlaceURL,
	}
}
