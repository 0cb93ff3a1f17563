package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/core/service"
	"github.com/placebadges/acquisition/internal/infrastructure/config"
	"github.com/placebadges/acquisition/internal/infrastructure/mockprovider"
	"github.com/placebadges/acquisition/internal/pkg/clock"
	"github.com/placebadges/acquisition/pkg/logger"
)

type simulateOptions struct {
	fixtures []string
	interval time.Duration
	online   bool
	settle   time.Duration
}

func init() {
	opts := simulateOptions{}
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Replay mock fixtures through an in-process pipeline",
		Long: "Replays the named mock fixtures through an in-process pipeline and prints " +
			"every notification as a JSON line. Lookups use the embedded gazetteer unless --online is set.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Context())
			if err != nil {
				return err
			}
			log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "placebadges"})

			l, err := buildLookups(cmd.Context(), cfg, false, log)
			if err != nil {
				return err
			}
			return simulate(cmd.Context(), cmd.OutOrStdout(), cfg, l.remote, l.offline, opts, log)
		},
	}

	cmd.Flags().StringSliceVar(&opts.fixtures, "fixtures", mockprovider.FixtureNames(), "Fixtures to replay, in order")
	cmd.Flags().DurationVar(&opts.interval, "interval", time.Second, "Delay between fixtures")
	cmd.Flags().BoolVar(&opts.online, "online", false, "Resolve through GeoNames instead of the embedded gazetteer")
	cmd.Flags().DurationVar(&opts.settle, "settle", 35*time.Second, "How long to wait for the last resolution")

	RootCmd.AddCommand(cmd)
}

// simulate replays opts.fixtures and writes one JSON line per notification to out.
func simulate(ctx context.Context, out io.Writer, cfg *config.Config, remote, offline ports.PlaceLookup, opts simulateOptions, log zerolog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	sink := newJSONLinesSink(out)
	resolver := service.NewPlaceResolver(remote, offline, service.ResolverConfig{
		Timeout:      cfg.Acquisition.ResolveTimeout,
		RegionMargin: cfg.Acquisition.RegionMarginDeg,
	}, log)
	pipeline := service.NewPipeline(service.PipelineConfig{NetworkAvailable: opts.online},
		service.NewFreshnessTracker(cfg.Acquisition.StaleWindow), service.NewRegionIndex(),
		resolver, sink, clock.System{}, log)
	ctx, stopPipeline := runPipeline(ctx, pipeline)
	defer stopPipeline()

	inj := mockprovider.NewInjector(clock.System{}, log)
	inj.Start()
	if err := pipeline.Attach(ctx, inj); err != nil {
		return err
	}
	defer func() { _ = pipeline.Detach() }()

	if err := inj.Run(ctx, opts.interval, opts.fixtures); err != nil {
		return err
	}
	return waitIdle(ctx, pipeline, opts.settle)
}

// waitIdle polls until no resolution is in flight.
func waitIdle(ctx context.Context, svc ports.AcquisitionService, limit time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, limit)
	defer cancel()

	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()
	for {
		snap, err := svc.Snapshot(ctx)
		if err != nil {
			return err
		}
		if snap.State == ports.StateIdle {
			return nil
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("waiting for resolution: %w", ctx.Err())
		case <-ticker.C:
		}
	}
}

type notification struct {
	Event string              `json:"event"`
	Place *domain.PlaceRecord `json:"place,omitempty"`
}

// jsonLinesSink writes pipeline notifications as JSON lines.
type jsonLinesSink struct {
	mu  sync.Mutex
	enc *json.Encoder
}

func newJSONLinesSink(w io.Writer) *jsonLinesSink {
	return &jsonLinesSink{enc: json.NewEncoder(w)}
}

func (s *jsonLinesSink) write(n notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.enc.Encode(n)
}

func (s *jsonLinesSink) OnPlaceAcquired(p domain.PlaceRecord) {
	s.write(notification{Event: "place_acquired", Place: &p})
}

func (s *jsonLinesSink) OnDuplicateDetected() { s.write(notification{Event: "duplicate"}) }

func (s *jsonLinesSink) OnNoCurrentReading() { s.write(notification{Event: "no_current_reading"}) }

func (s *jsonLinesSink) OnReset() { s.write(notification{Event: "reset"}) }
