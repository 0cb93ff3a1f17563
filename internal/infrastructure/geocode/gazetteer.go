package geocode

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/pkg/metrics"
)

// DefaultOfflineRadiusKm is the farthest an offline match may be.
const DefaultOfflineRadiusKm = 50.0

//go:embed data/places.json
var embeddedPlaces []byte

// GazetteerPlace is a populated place centroid.
type GazetteerPlace struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
}

// Gazetteer implements ports.PlaceLookup from an in-memory list of place
// centroids: the nearest centroid within the radius wins.
type Gazetteer struct {
	places   []GazetteerPlace
	radiusKm float64
}

// NewGazetteer loads the embedded place list.
func NewGazetteer(radiusKm float64) (*Gazetteer, error) {
	var places []GazetteerPlace
	if err := json.Unmarshal(embeddedPlaces, &places); err != nil {
		return nil, fmt.Errorf("gazetteer: load embedded places: %w", err)
	}
	return NewGazetteerFrom(places, radiusKm), nil
}

// NewGazetteerFrom builds a gazetteer over places.
func NewGazetteerFrom(places []GazetteerPlace, radiusKm float64) *Gazetteer {
	if radiusKm <= 0 {
		radiusKm = DefaultOfflineRadiusKm
	}
	return &Gazetteer{places: places, radiusKm: radiusKm}
}

// Len returns the number of known places.
func (g *Gazetteer) Len() int {
	return len(g.places)
}

func (g *Gazetteer) Lookup(ctx context.Context, lat, lon float64) (domain.PlaceRecord, error) {
	if err := ctx.Err(); err != nil {
		return domain.PlaceRecord{}, err
	}

	best := -1
	bestKm := g.radiusKm
	for i, p := range g.places {
		d := domain.DistanceMeters(lat, lon, p.Latitude, p.Longitude) / 1000
		if d <= bestKm {
			best, bestKm = i, d
		}
	}
	if best < 0 {
		metrics.LookupRequestsTotal.WithLabelValues("gazetteer", string(domain.KindNoResultFound)).Inc()
		return domain.PlaceRecord{}, fmt.Errorf("gazetteer: nothing within %.0f km: %w", g.radiusKm, domain.ErrNoResultFound)
	}
	metrics.LookupRequestsTotal.WithLabelValues("gazetteer", "ok").Inc()
	p := g.places[best]
	return domain.PlaceRecord{Name: p.Name, Country: p.Country}, nil
}
