package ports

import "github.com/placebadges/acquisition/internal/core/domain"

// ReadingCallback receives readings pushed by a positioning source.
type ReadingCallback func(reading domain.PositionReading)

// PositioningSource is a provider of position readings the pipeline can
// subscribe to. Implementations deliver readings on their own goroutine.
type PositioningSource interface {
	// Subscribe registers cb for readings at least minIntervalMillis apart or
	// minDistanceMeters away from the previously delivered one.
	Subscribe(minIntervalMillis int64, minDistanceMeters float64, cb ReadingCallback) error
	Unsubscribe() error
	// LastKnownReading returns the most recent reading the source has seen, if any.
	LastKnownReading() (domain.PositionReading, bool)
}
