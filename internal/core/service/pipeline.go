package service

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/pkg/clock"
	"github.com/placebadges/acquisition/internal/pkg/metrics"
)

const (
	// DefaultMinIntervalMillis is the minimum time between provider updates.
	DefaultMinIntervalMillis = 5000
	// DefaultMinDistanceMeters is the minimum distance between provider updates.
	DefaultMinDistanceMeters = 1000.0

	eventBuffer = 64
)

// PipelineConfig holds the explicit pipeline settings.
type PipelineConfig struct {
	// NetworkAvailable is passed to every resolution the pipeline starts.
	NetworkAvailable  bool
	MinIntervalMillis int64
	MinDistanceMeters float64
}

type eventKind int

const (
	evReading eventKind = iota
	evSeed
	evOutcome
	evAcquire
	evReset
	evSnapshot
)

type event struct {
	kind    eventKind
	reading domain.PositionReading
	outcome domain.ResolutionOutcome
	reply   chan eventReply
}

type eventReply struct {
	err      error
	snapshot ports.PipelineSnapshot
}

// Pipeline turns incoming readings into place acquisitions.
//
// Every state change happens on a single goroutine started by Start: the
// freshness tracker, the region index and the state machine are only touched
// there. Public methods submit events to that goroutine and wait until they
// have been handled, so readings are processed in arrival order. Resolution
// outcomes are marshaled back through the same channel.
type Pipeline struct {
	cfg      PipelineConfig
	tracker  *FreshnessTracker
	index    *RegionIndex
	resolver ports.PlaceResolver
	sink     ports.AcquisitionSink
	clock    clock.Clock
	log      zerolog.Logger

	events  chan event
	stopped chan struct{}
	started atomic.Bool

	mu      sync.Mutex
	sources []ports.PositioningSource

	// owned by the loop goroutine
	state    ports.PipelineState
	inflight ports.ResolutionHandle
}

// NewPipeline wires a pipeline. A nil sink discards notifications and a nil
// clock selects the system clock.
func NewPipeline(
	cfg PipelineConfig,
	tracker *FreshnessTracker,
	index *RegionIndex,
	resolver ports.PlaceResolver,
	sink ports.AcquisitionSink,
	clk clock.Clock,
	log zerolog.Logger,
) *Pipeline {
	if cfg.MinIntervalMillis <= 0 {
		cfg.MinIntervalMillis = DefaultMinIntervalMillis
	}
	if cfg.MinDistanceMeters <= 0 {
		cfg.MinDistanceMeters = DefaultMinDistanceMeters
	}
	if sink == nil {
		sink = Sinks{}
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Pipeline{
		cfg:      cfg,
		tracker:  tracker,
		index:    index,
		resolver: resolver,
		sink:     sink,
		clock:    clk,
		log:      log.With().Str("component", "pipeline").Logger(),
		events:   make(chan event, eventBuffer),
		stopped:  make(chan struct{}),
		state:    ports.StateIdle,
	}
}

// Start launches the pipeline goroutine. It stops when ctx is cancelled,
// cancelling any in-flight resolution. Calling Start again has no effect.
func (p *Pipeline) Start(ctx context.Context) {
	if !p.started.CompareAndSwap(false, true) {
		return
	}
	go p.run(ctx)
}

// Stopped is closed once the pipeline goroutine has exited.
func (p *Pipeline) Stopped() <-chan struct{} {
	return p.stopped
}

func (p *Pipeline) run(ctx context.Context) {
	defer close(p.stopped)
	defer p.cancelInFlight("pipeline stopped")

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-p.events:
			p.handle(ev)
		}
	}
}

// OnReading feeds a provider reading into the pipeline.
func (p *Pipeline) OnReading(ctx context.Context, r domain.PositionReading) error {
	_, err := p.submit(ctx, event{kind: evReading, reading: r})
	return err
}

// AcquireNow is the manual acquisition request. It returns ErrNoCurrentReading,
// ErrAlreadyAcquired or ErrResolutionInFlight when the request is rejected.
func (p *Pipeline) AcquireNow(ctx context.Context) error {
	rep, err := p.submit(ctx, event{kind: evAcquire})
	if err != nil {
		return err
	}
	return rep.err
}

// ResetAll clears the acquired regions and cancels any in-flight resolution.
func (p *Pipeline) ResetAll(ctx context.Context) error {
	_, err := p.submit(ctx, event{kind: evReset})
	return err
}

// Snapshot returns the pipeline state as seen by its goroutine.
func (p *Pipeline) Snapshot(ctx context.Context) (ports.PipelineSnapshot, error) {
	rep, err := p.submit(ctx, event{kind: evSnapshot})
	if err != nil {
		return ports.PipelineSnapshot{}, err
	}
	return rep.snapshot, nil
}

// Attach seeds the tracker with the source's last known reading and
// subscribes to its updates.
func (p *Pipeline) Attach(ctx context.Context, src ports.PositioningSource) error {
	if last, ok := src.LastKnownReading(); ok {
		if _, err := p.submit(ctx, event{kind: evSeed, reading: last}); err != nil {
			return fmt.Errorf("attach source: %w", err)
		}
	}

	cb := func(r domain.PositionReading) {
		if err := p.OnReading(context.Background(), r); err != nil {
			p.log.Warn().Err(err).Msg("provider reading dropped")
		}
	}
	if err := src.Subscribe(p.cfg.MinIntervalMillis, p.cfg.MinDistanceMeters, cb); err != nil {
		return fmt.Errorf("attach source: %w", err)
	}

	p.mu.Lock()
	p.sources = append(p.sources, src)
	p.mu.Unlock()
	return nil
}

// Detach unsubscribes from every attached source.
func (p *Pipeline) Detach() error {
	p.mu.Lock()
	sources := p.sources
	p.sources = nil
	p.mu.Unlock()

	var firstErr error
	for _, src := range sources {
		if err := src.Unsubscribe(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("detach source: %w", err)
		}
	}
	return firstErr
}

func (p *Pipeline) submit(ctx context.Context, ev event) (eventReply, error) {
	if !p.started.Load() {
		return eventReply{}, domain.ErrPipelineStopped
	}
	ev.reply = make(chan eventReply, 1)

	select {
	case p.events <- ev:
	case <-p.stopped:
		return eventReply{}, domain.ErrPipelineStopped
	case <-ctx.Done():
		return eventReply{}, ctx.Err()
	}

	select {
	case rep := <-ev.reply:
		return rep, nil
	case <-p.stopped:
		return eventReply{}, domain.ErrPipelineStopped
	case <-ctx.Done():
		return eventReply{}, ctx.Err()
	}
}

// deliverOutcome is the resolver callback. It runs on a resolver goroutine
// and only forwards the outcome to the pipeline goroutine.
func (p *Pipeline) deliverOutcome(out domain.ResolutionOutcome) {
	select {
	case p.events <- event{kind: evOutcome, outcome: out}:
	case <-p.stopped:
	}
}

func (p *Pipeline) handle(ev event) {
	var rep eventReply

	switch ev.kind {
	case evReading:
		p.handleReading(ev.reading)
	case evSeed:
		if p.tracker.Seed(ev.reading, p.clock.Now()) {
			p.log.Debug().Int64("ts", ev.reading.TimestampMillis).Msg("seeded with last known reading")
		}
	case evOutcome:
		p.handleOutcome(ev.outcome)
	case evAcquire:
		rep.err = p.handleAcquire()
	case evReset:
		p.handleReset()
	case evSnapshot:
		rep.snapshot = p.snapshot()
	}

	if ev.reply != nil {
		ev.reply <- rep
	}
}

func (p *Pipeline) handleReading(r domain.PositionReading) {
	res := p.tracker.Update(r)
	metrics.ReadingsTotal.WithLabelValues(string(res)).Inc()
	p.log.Debug().
		Float64("lat", r.Latitude).
		Float64("lon", r.Longitude).
		Int64("ts", r.TimestampMillis).
		Str("result", string(res)).
		Msg("reading applied")

	if p.state != ports.StateIdle {
		return
	}

	current, ok := p.currentFresh()
	if !ok {
		return
	}
	if p.index.Intersects(current) {
		metrics.DuplicatesTotal.Inc()
		p.sink.OnDuplicateDetected()
		return
	}
	p.startResolution(current)
}

func (p *Pipeline) handleAcquire() error {
	if p.state != ports.StateIdle {
		return domain.ErrResolutionInFlight
	}
	current, ok := p.currentFresh()
	if !ok {
		p.sink.OnNoCurrentReading()
		return domain.ErrNoCurrentReading
	}
	if p.index.Intersects(current) {
		metrics.DuplicatesTotal.Inc()
		p.sink.OnDuplicateDetected()
		return domain.ErrAlreadyAcquired
	}
	p.startResolution(current)
	return nil
}

func (p *Pipeline) handleOutcome(out domain.ResolutionOutcome) {
	if p.inflight == nil || p.inflight.ID() != out.TaskID {
		metrics.StaleOutcomesTotal.Inc()
		p.log.Debug().Str("task", out.TaskID).Msg("stale resolution outcome ignored")
		return
	}
	p.inflight = nil
	p.state = ports.StateIdle

	switch out.Status {
	case domain.TaskSucceeded:
		p.index.Add(out.Place.Region)
		metrics.RegionsIndexed.Set(float64(p.index.Len()))
		metrics.PlacesAcquiredTotal.WithLabelValues(strconv.FormatBool(out.Place.HasCountry())).Inc()
		p.log.Info().
			Str("task", out.TaskID).
			Str("place", out.Place.Name).
			Str("country", out.Place.Country).
			Msg("place acquired")
		p.sink.OnPlaceAcquired(*out.Place)
	case domain.TaskFailed:
		p.log.Warn().Err(out.Err).
			Str("task", out.TaskID).
			Str("reason", string(out.Kind())).
			Msg("place resolution failed")
	default:
		p.log.Info().Str("task", out.TaskID).Msg("place resolution cancelled")
	}
}

func (p *Pipeline) handleReset() {
	p.cancelInFlight("reset")
	p.index.Clear()
	metrics.RegionsIndexed.Set(0)
	if ro, ok := p.sink.(ports.ResetObserver); ok {
		ro.OnReset()
	}
	p.log.Info().Msg("acquired places reset")
}

func (p *Pipeline) startResolution(r domain.PositionReading) {
	p.inflight = p.resolver.ResolveAsync(r, p.cfg.NetworkAvailable, p.deliverOutcome)
	p.state = ports.StateAwaitingResolution
	p.log.Info().
		Str("task", p.inflight.ID()).
		Float64("lat", r.Latitude).
		Float64("lon", r.Longitude).
		Bool("network", p.cfg.NetworkAvailable).
		Msg("place resolution started")
}

func (p *Pipeline) cancelInFlight(reason string) {
	if p.inflight != nil {
		p.log.Debug().Str("task", p.inflight.ID()).Str("reason", reason).Msg("cancelling in-flight resolution")
		p.inflight.Cancel()
		p.inflight = nil
	}
	p.state = ports.StateIdle
}

func (p *Pipeline) currentFresh() (domain.PositionReading, bool) {
	held := p.tracker.Held()
	current, ok := p.tracker.CurrentFresh(p.clock.Now())
	if held && !ok {
		metrics.StaleReadingsTotal.Inc()
		p.log.Debug().Msg("current reading expired")
	}
	return current, ok
}

func (p *Pipeline) snapshot() ports.PipelineSnapshot {
	s := ports.PipelineSnapshot{
		State:       p.state,
		RegionCount: p.index.Len(),
	}
	if current, ok := p.currentFresh(); ok {
		s.Current = &current
	}
	if p.inflight != nil {
		s.InFlightTask = p.inflight.ID()
	}
	return s
}
