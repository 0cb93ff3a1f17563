package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/pkg/metrics"
)

const defaultCacheTTL = 24 * time.Hour

// Store is the subset of *redis.Client used by LookupCache.
type Store interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// LookupCache decorates a ports.PlaceLookup with a Redis cache of
// successful results. Coordinates are rounded to three decimals (~110 m).
// Key format: placebadges:lookup:<lat>:<lon>
//
// Cache failures never fail a lookup; they only bypass the cache.
type LookupCache struct {
	store Store
	next  ports.PlaceLookup
	ttl   time.Duration
	log   zerolog.Logger
}

// NewLookupCache wraps next. A non-positive ttl selects 24 hours.
func NewLookupCache(store Store, next ports.PlaceLookup, ttl time.Duration, log zerolog.Logger) *LookupCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &LookupCache{
		store: store,
		next:  next,
		ttl:   ttl,
		log:   log.With().Str("component", "lookup_cache").Logger(),
	}
}

type cachedPlace struct {
	Name    string `json:"name"`
	Country string `json:"country,omitempty"`
}

func (c *LookupCache) Lookup(ctx context.Context, lat, lon float64) (domain.PlaceRecord, error) {
	key := c.key(lat, lon)

	raw, err := c.store.Get(ctx, key).Result()
	switch {
	case err == nil:
		var cp cachedPlace
		if jsonErr := json.Unmarshal([]byte(raw), &cp); jsonErr == nil && cp.Name != "" {
			metrics.LookupCacheTotal.WithLabelValues("hit").Inc()
			return domain.PlaceRecord{Name: cp.Name, Country: cp.Country}, nil
		}
		metrics.LookupCacheTotal.WithLabelValues("error").Inc()
		c.log.Warn().Str("key", key).Msg("discarding unreadable cache entry")
	case errors.Is(err, redis.Nil):
		metrics.LookupCacheTotal.WithLabelValues("miss").Inc()
	default:
		metrics.LookupCacheTotal.WithLabelValues("error").Inc()
		c.log.Warn().Err(err).Str("key", key).Msg("lookup cache read failed, querying backend")
	}

	place, err := c.next.Lookup(ctx, lat, lon)
	if err != nil {
		return domain.PlaceRecord{}, err
	}

	payload, err := json.Marshal(cachedPlace{Name: place.Name, Country: place.Country})
	if err == nil {
		if setErr := c.store.Set(ctx, key, payload, c.ttl).Err(); setErr != nil {
			c.log.Warn().Err(setErr).Str("key", key).Msg("failed to set lookup cache entry")
		}
	}
	return place, nil
}

func (c *LookupCache) key(lat, lon float64) string {
	return fmt.Sprintf("placebadges:lookup:%.3f:%.3f", lat, lon)
}
