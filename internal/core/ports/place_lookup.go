package ports

import (
	"context"

	"github.com/placebadges/acquisition/internal/core/domain"
)

// PlaceLookup turns a coordinate into a named place. Only Name and Country of
// the returned record are meaningful; the resolver fills in the rest.
//
// Implementations must be safe to call from any goroutine and should return
// errors wrapping the domain resolution failures (ErrNetworkUnavailable,
// ErrLookupTimeout, ErrMalformedResponse, ErrNoResultFound).
type PlaceLookup interface {
	Lookup(ctx context.Context, lat, lon float64) (domain.PlaceRecord, error)
}

// PlaceLookupFunc adapts a function to PlaceLookup.
type PlaceLookupFunc func(ctx context.Context, lat, lon float64) (domain.PlaceRecord, error)

// Lookup calls f.
func (f PlaceLookupFunc) Lookup(ctx context.Context, lat, lon float64) (domain.PlaceRecord, error) {
	return f(ctx, lat, lon)
}
