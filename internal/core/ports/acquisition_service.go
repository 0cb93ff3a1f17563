package ports

import (
	"context"

	"github.com/placebadges/acquisition/internal/core/domain"
)

// PipelineState is the acquisition pipeline state machine position.
type PipelineState string

const (
	StateIdle               PipelineState = "idle"
	StateAwaitingResolution PipelineState = "awaiting_resolution"
)

// PipelineSnapshot is a consistent view of the pipeline taken on its goroutine.
type PipelineSnapshot struct {
	State        PipelineState
	Current      *domain.PositionReading // nil when no fresh reading
	RegionCount  int
	InFlightTask string // empty when Idle
}

// AcquisitionService is what the transport layer uses to drive the pipeline.
type AcquisitionService interface {
	OnReading(ctx context.Context, reading domain.PositionReading) error
	AcquireNow(ctx context.Context) error
	ResetAll(ctx context.Context) error
	Snapshot(ctx context.Context) (PipelineSnapshot, error)
}
