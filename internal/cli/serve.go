package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/placebadges/acquisition/internal/api"
	"github.com/placebadges/acquisition/internal/core/service"
	"github.com/placebadges/acquisition/internal/infrastructure/board"
	"github.com/placebadges/acquisition/internal/infrastructure/config"
	"github.com/placebadges/acquisition/internal/infrastructure/credentials"
	mongodb "github.com/placebadges/acquisition/internal/infrastructure/db/mongo"
	probes "github.com/placebadges/acquisition/internal/infrastructure/http/handlers"
	"github.com/placebadges/acquisition/internal/infrastructure/mockprovider"
	"github.com/placebadges/acquisition/internal/infrastructure/natsadapter"
	"github.com/placebadges/acquisition/internal/infrastructure/queue"
	"github.com/placebadges/acquisition/internal/pkg/clock"
	"github.com/placebadges/acquisition/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func init() {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the acquisition pipeline",
		RunE:  runServe,
	}

	RootCmd.AddCommand(cmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	log := logger.Init(logger.Options{Level: cfg.LogLevel, Pretty: cfg.LogPretty, Service: "placebadges"})

	if cfg.Auth.JWTSecret == "" {
		return errors.New("JWT_SECRET must be set")
	}
	if cfg.Auth.OperatorPasswordHash == "" {
		log.Warn().Msg("OPERATOR_PASSWORD_HASH not set, operator login is disabled")
	}

	clk := clock.System{}
	ready := probes.NewHealthDependenciesHandler()

	l, err := buildLookups(ctx, cfg, true, logger.Component("lookup"))
	if err != nil {
		return err
	}
	defer l.close()
	if l.rdb != nil {
		ready.Add("redis", probes.RedisCheck(l.rdb))
	}

	b := board.New(clk, 0)
	sinks := service.Sinks{b, service.NewLogSink(log)}

	client, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
		Timeout:  cfg.Mongo.Timeout,
	})
	switch {
	case errors.Is(err, mongodb.ErrDisabled):
		log.Info().Msg("MONGO_URI not set, acquisition audit disabled")
	case err != nil:
		return err
	default:
		defer func() { _ = client.Disconnect(context.Background()) }()
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			log.Warn().Err(err).Msg("acquisition indexes not created")
		}
		audit := service.NewAuditSink(mongodb.NewAcquisitionRepository(db), clk, 0, log)
		defer audit.Close()
		sinks = append(sinks, audit)
		ready.Add("mongo", probes.MongoCheck(db))
	}

	resolver := service.NewPlaceResolver(l.remote, l.offline, service.ResolverConfig{
		Timeout:      cfg.Acquisition.ResolveTimeout,
		RegionMargin: cfg.Acquisition.RegionMarginDeg,
	}, log)

	pipeline := service.NewPipeline(service.PipelineConfig{
		NetworkAvailable:  cfg.Acquisition.NetworkAvailable,
		MinIntervalMillis: cfg.Acquisition.MinIntervalMillis(),
		MinDistanceMeters: cfg.Acquisition.MinDistanceMeters,
	}, service.NewFreshnessTracker(cfg.Acquisition.StaleWindow), service.NewRegionIndex(), resolver, sinks, clk, log)
	runCtx, stopPipeline := runPipeline(ctx, pipeline)
	defer stopPipeline()
	defer func() { _ = pipeline.Detach() }()
	ready.Add("pipeline", func(ctx context.Context) error {
		_, err := pipeline.Snapshot(ctx)
		return err
	})

	deps := api.Dependencies{
		Log:         log,
		JWTSecret:   cfg.Auth.JWTSecret,
		Acquisition: pipeline,
		Board:       b,
		Ready:       ready,
		Clock:       clk,
		Auth: service.NewAuthService(
			credentials.NewStaticOperatorRepository(cfg.Auth.OperatorUser, cfg.Auth.OperatorPasswordHash),
			cfg.Auth.JWTSecret, cfg.Auth.TokenTTL),
	}

	if cfg.Acquisition.MockProvider {
		inj := mockprovider.NewInjector(clk, log)
		inj.Start()
		if err := pipeline.Attach(runCtx, inj); err != nil {
			return err
		}
		deps.Mock = inj
	}

	if cfg.NATS.URL != "" {
		src, err := natsadapter.Connect(cfg.NATS.URL, cfg.NATS.Subject, clk, log)
		if err != nil {
			return err
		}
		defer src.Close()
		if err := pipeline.Attach(runCtx, src); err != nil {
			return err
		}
		ready.Add("nats", probes.ConnectedCheck(src.Connected))
		log.Info().Str("url", cfg.NATS.URL).Str("subject", cfg.NATS.Subject).Msg("nats positioning source attached")
	}

	dispatcher := queue.NewDispatcher(0, pipeline, log)
	dispatcher.Start(runCtx)
	deps.Readings = dispatcher

	e := api.NewRouter(deps)

	serveErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	}

	log.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("http shutdown")
	}
	return nil
}

// runPipeline starts p on a child of ctx. The returned stop cancels it and
// waits for the pipeline goroutine, so sinks deferred earlier are closed
// only once no acquisition can reach them.
func runPipeline(ctx context.Context, p *service.Pipeline) (context.Context, func()) {
	runCtx, cancel := context.WithCancel(ctx)
	p.Start(runCtx)
	return runCtx, func() {
		cancel()
		<-p.Stopped()
	}
}
