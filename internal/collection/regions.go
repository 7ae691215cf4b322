// Package collection orchestrates place collection across the supported
// regions and hands freshly collected places to the curation batch.
package collection

import (
	"github.com/ddalkkak/course-service/internal/domain"
)

// Coordinate is a WGS84 reference point for a region.
type Coordinate struct {
	Longitude float64
	Latitude  float64
}

// regionOrder fixes the order regions are collected in.
var regionOrder = []string{
	domain.RegionHongdae,
	domain.RegionGangnam,
	domain.RegionSeongsu,
	domain.RegionYeonnam,
	domain.RegionItaewon,
}

// regionCoordinates maps each supported region to the center of its search
// circle.
var regionCoordinates = map[string]Coordinate{
	domain.RegionHongdae: {Longitude: 126.9244, Latitude: 37.5563},
	domain.RegionGangnam: {Longitude: 127.0276, Latitude: 37.4979},
	domain.RegionSeongsu: {Longitude: 127.0557, Latitude: 37.5443},
	domain.RegionYeonnam: {Longitude: 126.9264, Latitude: 37.5652},
	domain.RegionItaewon: {Longitude: 126.9942, Latitude: 37.5347},
}

// searchKeywords are appended to the region name to form the search queries
// for one region, in order.
var searchKeywords = []string{"카페", "레스토랑", "음식점", "바", "디저트"}

// Regions returns the supported regions in collection order.
func Regions() []string {
	return append([]string(nil), regionOrder...)
}

// RegionCoordinate returns the reference coordinate for a region and whether
// the region is supported.
func RegionCoordinate(region string) (Coordinate, bool) {
	c, ok := regionCoordinates[region]
	return c, ok
}
