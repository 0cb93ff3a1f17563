package queue

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/pkg/metrics"
)

const defaultBuffer = 256

// ErrQueueFull is returned when the reading buffer has no room left.
var ErrQueueFull = errors.New("reading queue is full")

// Dispatcher buffers readings received over HTTP and forwards them to the
// acquisition service from a single worker, preserving arrival order.
type Dispatcher struct {
	readings chan domain.PositionReading
	service  ports.AcquisitionService
	log      zerolog.Logger
}

// NewDispatcher creates a Dispatcher holding up to buffer pending readings.
// If buffer <= 0, defaultBuffer is used.
func NewDispatcher(buffer int, service ports.AcquisitionService, log zerolog.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Dispatcher{
		readings: make(chan domain.PositionReading, buffer),
		service:  service,
		log:      log.With().Str("component", "dispatcher").Logger(),
	}
}

// Start launches the worker goroutine. It stops when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	go d.runWorker(ctx)
}

// Enqueue adds a reading without blocking. The depth gauge is raised before
// the send so the worker never decrements it first.
func (d *Dispatcher) Enqueue(r domain.PositionReading) error {
	metrics.ReadingsQueueDepth.Inc()
	select {
	case d.readings <- r:
		return nil
	default:
		metrics.ReadingsQueueDepth.Dec()
		return ErrQueueFull
	}
}

// EnqueueBatch enqueues readings in order. It stops at the first reading that
// does not fit and reports how many were accepted.
func (d *Dispatcher) EnqueueBatch(readings []domain.PositionReading) (int, error) {
	for i, r := range readings {
		if err := d.Enqueue(r); err != nil {
			return i, err
		}
	}
	return len(readings), nil
}

// Pending returns the number of readings waiting to be forwarded.
func (d *Dispatcher) Pending() int {
	return len(d.readings)
}

func (d *Dispatcher) runWorker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case r := <-d.readings:
			metrics.ReadingsQueueDepth.Dec()
			if err := d.service.OnReading(ctx, r); err != nil {
				d.log.Error().Err(err).
					Int64("ts", r.TimestampMillis).
					Msg("reading forwarding failed")
			}
		}
	}
}
