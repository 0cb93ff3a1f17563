package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/pkg/metrics"
)

// DefaultResolveTimeout bounds a single resolution, lookups included.
const DefaultResolveTimeout = 30 * time.Second

// ResolverConfig tunes a PlaceResolver.
type ResolverConfig struct {
	// Timeout bounds each resolution task. Defaults to DefaultResolveTimeout.
	Timeout time.Duration
	// RegionMargin is the half-size in degrees of the region built around a
	// resolved place. Defaults to domain.DefaultRegionMargin.
	RegionMargin float64
}

// PlaceResolver implements ports.PlaceResolver on top of a remote lookup and
// an offline fallback. Either lookup may be nil.
type PlaceResolver struct {
	remote  ports.PlaceLookup
	offline ports.PlaceLookup
	timeout time.Duration
	margin  float64
	log     zerolog.Logger
}

// NewPlaceResolver returns a resolver using remote when the network is
// available and offline otherwise.
func NewPlaceResolver(remote, offline ports.PlaceLookup, cfg ResolverConfig, log zerolog.Logger) *PlaceResolver {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultResolveTimeout
	}
	if cfg.RegionMargin <= 0 {
		cfg.RegionMargin = domain.DefaultRegionMargin
	}
	return &PlaceResolver{
		remote:  remote,
		offline: offline,
		timeout: cfg.Timeout,
		margin:  cfg.RegionMargin,
		log:     log.With().Str("component", "place_resolver").Logger(),
	}
}

// ResolveAsync starts a resolution task and returns its handle immediately.
func (r *PlaceResolver) ResolveAsync(reading domain.PositionReading, networkAvailable bool, deliver func(domain.ResolutionOutcome)) ports.ResolutionHandle {
	ctx, stop := context.WithTimeout(context.Background(), r.timeout)
	task := newResolutionTask(reading, stop)

	metrics.ResolutionsStartedTotal.WithLabelValues(networkLabel(networkAvailable)).Inc()
	go r.run(ctx, task, networkAvailable, deliver)
	return task
}

func (r *PlaceResolver) run(ctx context.Context, task *resolutionTask, online bool, deliver func(domain.ResolutionOutcome)) {
	defer task.stop()

	if !task.markRunning() {
		return
	}

	var out domain.ResolutionOutcome
	place, err := r.resolve(ctx, task.reading, online)
	if err != nil {
		out = domain.Failed(task.id, err)
	} else {
		out = domain.Succeeded(task.id, place)
	}

	if !task.finish(out) {
		// Cancelled while the lookup was running; the outcome is dropped.
		r.log.Debug().Str("task", task.id).Msg("late resolution outcome suppressed")
		return
	}
	metrics.ResolutionOutcomesTotal.WithLabelValues(string(out.Status), string(out.Kind())).Inc()

	if deliver != nil {
		deliver(out)
	}
}

func (r *PlaceResolver) resolve(ctx context.Context, reading domain.PositionReading, online bool) (domain.PlaceRecord, error) {
	if online && r.remote != nil {
		place, err := r.lookup(ctx, r.remote, "remote", reading)
		if err == nil {
			return place, nil
		}
		if !errors.Is(err, domain.ErrNetworkUnavailable) {
			return domain.PlaceRecord{}, err
		}
		r.log.Debug().Err(err).Msg("remote lookup unavailable, falling back to offline data")
	}

	if r.offline == nil {
		return domain.PlaceRecord{}, fmt.Errorf("resolve: %w", domain.ErrNetworkUnavailable)
	}
	place, err := r.lookup(ctx, r.offline, "offline", reading)
	if err != nil {
		if errors.Is(err, domain.ErrLookupTimeout) || errors.Is(err, context.Canceled) {
			return domain.PlaceRecord{}, err
		}
		// Without the network a missing local name is reported as unavailability.
		return domain.PlaceRecord{}, fmt.Errorf("resolve offline: %w: %v", domain.ErrNetworkUnavailable, err)
	}
	return place, nil
}

type lookupResult struct {
	place domain.PlaceRecord
	err   error
}

// lookup runs l under ctx and gives up when ctx ends even if l does not
// honour cancellation.
func (r *PlaceResolver) lookup(ctx context.Context, l ports.PlaceLookup, source string, reading domain.PositionReading) (domain.PlaceRecord, error) {
	start := time.Now()
	defer func() {
		metrics.ResolutionDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	}()

	ch := make(chan lookupResult, 1)
	go func() {
		p, err := l.Lookup(ctx, reading.Latitude, reading.Longitude)
		ch <- lookupResult{place: p, err: err}
	}()

	var res lookupResult
	select {
	case res = <-ch:
	case <-ctx.Done():
		res = lookupResult{err: ctx.Err()}
	}

	if res.err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) && !errors.Is(res.err, domain.ErrLookupTimeout) {
			return domain.PlaceRecord{}, fmt.Errorf("%s lookup: %w: %v", source, domain.ErrLookupTimeout, res.err)
		}
		return domain.PlaceRecord{}, fmt.Errorf("%s lookup: %w", source, res.err)
	}

	name := strings.TrimSpace(res.place.Name)
	if name == "" {
		return domain.PlaceRecord{}, fmt.Errorf("%s lookup: %w", source, domain.ErrNoResultFound)
	}
	return domain.PlaceRecord{
		Name:          name,
		Country:       strings.TrimSpace(res.place.Country),
		Region:        domain.RegionAround(reading.Latitude, reading.Longitude, r.margin),
		SourceReading: reading,
	}, nil
}

func networkLabel(online bool) string {
	if online {
		return "online"
	}
	return "offline"
}

// ---------------------------------------------------------------------------
// Resolution task
// ---------------------------------------------------------------------------

// resolutionTask is the ports.ResolutionHandle of one resolution. The first
// terminal transition wins; later ones are ignored.
type resolutionTask struct {
	id      string
	reading domain.PositionReading
	stop    context.CancelFunc
	done    chan struct{}

	mu      sync.Mutex
	status  domain.TaskStatus
	outcome domain.ResolutionOutcome
}

func newResolutionTask(reading domain.PositionReading, stop context.CancelFunc) *resolutionTask {
	return &resolutionTask{
		id:      uuid.NewString(),
		reading: reading,
		stop:    stop,
		done:    make(chan struct{}),
		status:  domain.TaskCreated,
	}
}

func (t *resolutionTask) ID() string { return t.id }

func (t *resolutionTask) Done() <-chan struct{} { return t.done }

func (t *resolutionTask) Status() domain.TaskStatus {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

func (t *resolutionTask) Outcome() domain.ResolutionOutcome {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.outcome
}

// Cancel moves a non-terminal task to Cancelled and aborts its lookup.
func (t *resolutionTask) Cancel() {
	if t.finish(domain.Cancelled(t.id)) {
		metrics.ResolutionOutcomesTotal.WithLabelValues(string(domain.TaskCancelled), string(domain.KindCancelled)).Inc()
	}
	t.stop()
}

func (t *resolutionTask) markRunning() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != domain.TaskCreated {
		return false
	}
	t.status = domain.TaskRunning
	return true
}

func (t *resolutionTask) finish(out domain.ResolutionOutcome) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status.Terminal() {
		return false
	}
	t.status = out.Status
	t.outcome = out
	close(t.done)
	return true
}
