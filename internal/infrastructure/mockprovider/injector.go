// Package mockprovider is a synthetic positioning source used to drive the
// acquisition pipeline without hardware or network access.
package mockprovider

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

var ErrStopped = errors.New("mock provider is stopped")

// Fixture is a named canned position.
type Fixture struct {
	Name      string  `json:"name"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

const (
	FixturePlaceOne       = "place_one"
	FixturePlaceNoCountry = "place_no_country"
	FixturePlaceTwo       = "place_two"
)

// Fixtures lists the canned positions in replay order.
var Fixtures = []Fixture{
	{Name: FixturePlaceOne, Latitude: 37.422, Longitude: -122.084},
	{Name: FixturePlaceNoCountry, Latitude: 0, Longitude: 0},
	{Name: FixturePlaceTwo, Latitude: 38.996667, Longitude: -76.9275},
}

// FixtureNames returns the fixture names in replay order.
func FixtureNames() []string {
	names := make([]string, len(Fixtures))
	for i, f := range Fixtures {
		names[i] = f.Name
	}
	return names
}

// FixtureByName returns the fixture called name.
func FixtureByName(name string) (Fixture, error) {
	for _, f := range Fixtures {
		if f.Name == name {
			return f, nil
		}
	}
	return Fixture{}, fmt.Errorf("%w: %q", domain.ErrUnknownFixture, name)
}

// Injector implements ports.PositioningSource. Pushed readings are stamped
// with the injected clock and handed to the subscriber on the caller's
// goroutine, so a push returns once the subscriber has handled it.
//
// Unlike a real provider the injector does not throttle by interval or
// distance: every accepted push is delivered.
type Injector struct {
	clock clock.Clock
	log   zerolog.Logger

	mu      sync.Mutex
	running bool
	cb      ports.ReadingCallback
	last    *domain.PositionReading
}

// NewInjector returns a stopped injector. A nil clock selects the system clock.
func NewInjector(clk clock.Clock, log zerolog.Logger) *Injector {
	if clk == nil {
		clk = clock.System{}
	}
	return &Injector{clock: clk, log: log.With().Str("component", "mock_provider").Logger()}
}

// Start makes the injector accept pushes.
func (i *Injector) Start() {
	i.mu.Lock()
	i.running = true
	i.mu.Unlock()
	i.log.Info().Msg("mock provider started")
}

// Stop makes the injector reject pushes.
func (i *Injector) Stop() {
	i.mu.Lock()
	i.running = false
	i.mu.Unlock()
	i.log.Info().Msg("mock provider stopped")
}

// Running reports whether pushes are accepted.
func (i *Injector) Running() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.running
}

func (i *Injector) Subscribe(minIntervalMillis int64, minDistanceMeters float64, cb ports.ReadingCallback) error {
	i.mu.Lock()
	i.cb = cb
	i.mu.Unlock()
	i.log.Debug().
		Int64("min_interval_ms", minIntervalMillis).
		Float64("min_distance_m", minDistanceMeters).
		Msg("subscribed")
	return nil
}

func (i *Injector) Unsubscribe() error {
	i.mu.Lock()
	i.cb = nil
	i.mu.Unlock()
	return nil
}

func (i *Injector) LastKnownReading() (domain.PositionReading, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.last == nil {
		return domain.PositionReading{}, false
	}
	return *i.last, true
}

// PushReading synthesises a reading at (lat, lon) stamped with the current
// clock time and delivers it to the subscriber.
func (i *Injector) PushReading(lat, lon float64) (domain.PositionReading, error) {
	i.mu.Lock()
	if !i.running {
		i.mu.Unlock()
		return domain.PositionReading{}, ErrStopped
	}
	r := domain.NewPositionReading(lat, lon, i.clock.Now(), true)
	i.last = &r
	cb := i.cb
	i.mu.Unlock()

	i.log.Debug().Float64("lat", lat).Float64("lon", lon).Int64("ts", r.TimestampMillis).Msg("reading injected")
	if cb != nil {
		cb(r)
	}
	return r, nil
}

// PushFixture pushes the fixture called name.
func (i *Injector) PushFixture(name string) (domain.PositionReading, error) {
	f, err := FixtureByName(name)
	if err != nil {
		return domain.PositionReading{}, err
	}
	return i.PushReading(f.Latitude, f.Longitude)
}

// Run pushes the named fixtures one per tick of interval, then returns. It
// stops early when ctx is cancelled or a push fails.
func (i *Injector) Run(ctx context.Context, interval time.Duration, names []string) error {
	for _, name := range names {
		if _, err := FixtureByName(name); err != nil {
			return err
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for _, name := range names {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
		if _, err := i.PushFixture(name); err != nil {
			return fmt.Errorf("replay %s: %w", name, err)
		}
	}
	return nil
}
