package cli

import (
	"context"
	"errors"
	"fmt"

	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/infrastructure/config"
	redisdb "github.com/placebadges/acquisition/internal/infrastructure/db/redis"
	"github.com/placebadges/acquisition/internal/infrastructure/geocode"
)

// lookups are the place lookups the resolver is built from. remote is nil
// when no GeoNames account is configured; rdb is nil when the cache is off.
type lookups struct {
	remote  ports.PlaceLookup
	offline ports.PlaceLookup
	rdb     *goredis.Client
}

func (l lookups) close() {
	if l.rdb != nil {
		_ = l.rdb.Close()
	}
}

func buildLookups(ctx context.Context, cfg *config.Config, withCache bool, log zerolog.Logger) (lookups, error) {
	var l lookups

	gaz, err := geocode.NewGazetteer(cfg.Offline.RadiusKm)
	if err != nil {
		return l, fmt.Errorf("load gazetteer: %w", err)
	}
	l.offline = gaz
	log.Info().Int("places", gaz.Len()).Float64("radius_km", cfg.Offline.RadiusKm).Msg("offline gazetteer loaded")

	if cfg.GeoNames.Username == "" {
		log.Warn().Msg("GEONAMES_USERNAME not set, remote lookups disabled")
		return l, nil
	}
	l.remote = geocode.NewGeoNamesClient(geocode.GeoNamesOptions{
		BaseURL:  cfg.GeoNames.URL,
		Username: cfg.GeoNames.Username,
		Timeout:  cfg.GeoNames.Timeout,
	}, log)

	if !withCache {
		return l, nil
	}
	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
		PoolSize: cfg.Redis.PoolSize,
	})
	switch {
	case errors.Is(err, redisdb.ErrDisabled):
		log.Info().Msg("REDIS_ADDR not set, lookup cache disabled")
	case err != nil:
		return l, err
	default:
		l.rdb = rdb
		l.remote = redisdb.NewLookupCache(rdb, l.remote, cfg.Redis.CacheTTL, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("lookup cache enabled")
	}
	return l, nil
}
