package domain

import "time"

// DefaultRegionMargin is the half-width/half-height in degrees of the box
// drawn around an acquired place (about 1.1 km of latitude).
const DefaultRegionMargin = 0.01

// Region is an axis-aligned bounding box marking an already visited area.
type Region struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// RegionAround derives the region for a coordinate using a fixed margin.
// The box is not clamped to valid latitude/longitude ranges.
func RegionAround(lat, lon, margin float64) Region {
	return Region{
		MinLat: lat - margin,
		MaxLat: lat + margin,
		MinLon: lon - margin,
		MaxLon: lon + margin,
	}
}

// Contains reports whether the coordinate lies inside the box, bounds included.
func (r Region) Contains(lat, lon float64) bool {
	if lat < r.MinLat || lat > r.MaxLat {
		return false
	}
	return lon >= r.MinLon && lon <= r.MaxLon
}

// PlaceRecord is the result of a successful place resolution.
type PlaceRecord struct {
	Name string `json:"name"`
	// Country is empty when the lookup could not attribute the place to one.
	Country       string          `json:"country,omitempty"`
	Region        Region          `json:"region"`
	SourceReading PositionReading `json:"source_reading"`
}

// HasCountry reports whether the record carries a country.
func (p PlaceRecord) HasCountry() bool {
	return p.Country != ""
}

// AcquisitionEntry is the audit view of an acquired place.
type AcquisitionEntry struct {
	Place      PlaceRecord
	AcquiredAt time.Time
}
