package service

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

// Sinks fans pipeline notifications out to several sinks in order.
// The zero value discards everything.
type Sinks []ports.AcquisitionSink

func (s Sinks) OnPlaceAcquired(place domain.PlaceRecord) {
	for _, sink := range s {
		sink.OnPlaceAcquired(place)
	}
}

func (s Sinks) OnDuplicateDetected() {
	for _, sink := range s {
		sink.OnDuplicateDetected()
	}
}

func (s Sinks) OnNoCurrentReading() {
	for _, sink := range s {
		sink.OnNoCurrentReading()
	}
}

// OnReset forwards to every sink implementing ports.ResetObserver.
func (s Sinks) OnReset() {
	for _, sink := range s {
		if ro, ok := sink.(ports.ResetObserver); ok {
			ro.OnReset()
		}
	}
}

// LogSink writes every notification to the structured log.
type LogSink struct {
	log zerolog.Logger
}

func NewLogSink(log zerolog.Logger) *LogSink {
	return &LogSink{log: log.With().Str("component", "sink").Logger()}
}

func (s *LogSink) OnPlaceAcquired(place domain.PlaceRecord) {
	s.log.Info().
		Str("place", place.Name).
		Str("country", place.Country).
		Float64("lat", place.SourceReading.Latitude).
		Float64("lon", place.SourceReading.Longitude).
		Msg("new place")
}

func (s *LogSink) OnDuplicateDetected() {
	s.log.Info().Msg("already acquired here")
}

func (s *LogSink) OnNoCurrentReading() {
	s.log.Info().Msg("no current position")
}

func (s *LogSink) OnReset() {
	s.log.Info().Msg("places reset")
}

// DefaultAuditTimeout bounds a single audit insert.
const DefaultAuditTimeout = 5 * time.Second

// AuditSink records acquired places in an AcquisitionLog. Inserts run in the
// background so the pipeline goroutine never waits on storage; failures are
// logged and otherwise ignored.
type AuditSink struct {
	store   ports.AcquisitionLog
	clock   clock.Clock
	timeout time.Duration
	log     zerolog.Logger
	wg      sync.WaitGroup
}

func NewAuditSink(store ports.AcquisitionLog, clk clock.Clock, timeout time.Duration, log zerolog.Logger) *AuditSink {
	if clk == nil {
		clk = clock.System{}
	}
	if timeout <= 0 {
		timeout = DefaultAuditTimeout
	}
	return &AuditSink{
		store:   store,
		clock:   clk,
		timeout: timeout,
		log:     log.With().Str("component", "audit").Logger(),
	}
}

func (s *AuditSink) OnPlaceAcquired(place domain.PlaceRecord) {
	entry := domain.AcquisitionEntry{Place: place, AcquiredAt: s.clock.Now().UTC()}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if err := s.store.InsertAcquisition(ctx, entry); err != nil {
			s.log.Warn().Err(err).Str("place", place.Name).Msg("failed to record acquisition")
		}
	}()
}

func (s *AuditSink) OnDuplicateDetected() {}

func (s *AuditSink) OnNoCurrentReading() {}

// Close waits for pending inserts.
func (s *AuditSink) Close() {
	s.wg.Wait()
}
