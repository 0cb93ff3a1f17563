package ports

import (
	"context"

	"github.com/placebadges/acquisition/internal/core/domain"
)

// AcquisitionSink receives the pipeline notifications. Methods are called on
// the pipeline goroutine: they must return quickly and must not call back
// into the pipeline.
type AcquisitionSink interface {
	OnPlaceAcquired(place domain.PlaceRecord)
	OnDuplicateDetected()
	OnNoCurrentReading()
}

// ResetObserver is implemented by sinks that keep state to drop on ResetAll.
type ResetObserver interface {
	OnReset()
}

// AcquisitionLog is the audit trail of acquired places.
type AcquisitionLog interface {
	InsertAcquisition(ctx context.Context, entry domain.AcquisitionEntry) error
}
