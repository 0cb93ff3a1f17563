package service

import "github.com/placebadges/acquisition/internal/core/domain"

// RegionIndex is the set of regions around already acquired places. It only
// grows, except through Clear. Not safe for concurrent use; the pipeline owns it.
type RegionIndex struct {
	regions []domain.Region
}

// NewRegionIndex returns an empty index.
func NewRegionIndex() *RegionIndex {
	return &RegionIndex{}
}

// Intersects reports whether the reading falls inside any stored region.
func (x *RegionIndex) Intersects(r domain.PositionReading) bool {
	for _, reg := range x.regions {
		if reg.Contains(r.Latitude, r.Longitude) {
			return true
		}
	}
	return false
}

// Add appends a region. Overlapping regions are kept as they are.
func (x *RegionIndex) Add(reg domain.Region) {
	x.regions = append(x.regions, reg)
}

// Clear removes every region.
func (x *RegionIndex) Clear() {
	x.regions = nil
}

// Len returns the number of stored regions.
func (x *RegionIndex) Len() int {
	return len(x.regions)
}

// Regions returns a copy of the stored regions in insertion order.
func (x *RegionIndex) Regions() []domain.Region {
	out := make([]domain.Region, len(x.regions))
	copy(out, x.regions)
	return out
}
