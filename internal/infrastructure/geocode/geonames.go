// Package geocode turns coordinates into named places, remotely through the
// GeoNames web service and offline through an embedded gazetteer.
package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/pkg/metrics"
)

const (
	DefaultGeoNamesURL     = "http://api.geonames.org"
	DefaultGeoNamesTimeout = 10 * time.Second

	nearbyPlacePath = "/findNearbyPlaceNameJSON"
)

// GeoNamesOptions configures a GeoNamesClient.
type GeoNamesOptions struct {
	BaseURL  string
	Username string
	Timeout  time.Duration
	// HTTPClient overrides the client built from Timeout.
	HTTPClient *http.Client
}

// GeoNamesClient implements ports.PlaceLookup with the GeoNames
// findNearbyPlaceName service.
type GeoNamesClient struct {
	baseURL  string
	username string
	http     *http.Client
	log      zerolog.Logger
}

func NewGeoNamesClient(opts GeoNamesOptions, log zerolog.Logger) *GeoNamesClient {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultGeoNamesURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultGeoNamesTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	return &GeoNamesClient{
		baseURL:  strings.TrimRight(opts.BaseURL, "/"),
		username: opts.Username,
		http:     client,
		log:      log.With().Str("component", "geonames").Logger(),
	}
}

type nearbyResponse struct {
	GeoNames []nearbyPlace  `json:"geonames"`
	Status   *serviceStatus `json:"status"`
}

type nearbyPlace struct {
	Name        string `json:"name"`
	ToponymName string `json:"toponymName"`
	CountryName string `json:"countryName"`
	CountryCode string `json:"countryCode"`
}

type serviceStatus struct {
	Message string `json:"message"`
	Value   int    `json:"value"`
}

// Lookup queries the nearest populated place around (lat, lon).
func (c *GeoNamesClient) Lookup(ctx context.Context, lat, lon float64) (domain.PlaceRecord, error) {
	place, err := c.lookup(ctx, lat, lon)
	result := "ok"
	if err != nil {
		result = string(domain.KindOf(err))
	}
	metrics.LookupRequestsTotal.WithLabelValues("geonames", result).Inc()
	return place, err
}

func (c *GeoNamesClient) lookup(ctx context.Context, lat, lon float64) (domain.PlaceRecord, error) {
	q := url.Values{}
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lng", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("username", c.username)
	u := c.baseURL + nearbyPlacePath + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return domain.PlaceRecord{}, fmt.Errorf("geonames: build request: %w", err)
	}

	t0 := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug().Err(err).Msg("geonames request failed")
		return domain.PlaceRecord{}, classifyTransportError(ctx, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= http.StatusInternalServerError:
		return domain.PlaceRecord{}, fmt.Errorf("geonames: status %d: %w", resp.StatusCode, domain.ErrNetworkUnavailable)
	case resp.StatusCode != http.StatusOK:
		return domain.PlaceRecord{}, fmt.Errorf("geonames: status %d: %w", resp.StatusCode, domain.ErrMalformedResponse)
	}

	var body nearbyResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return domain.PlaceRecord{}, fmt.Errorf("geonames: decode: %w: %v", domain.ErrMalformedResponse, err)
	}
	c.log.Debug().
		Float64("lat", lat).
		Float64("lon", lon).
		Int("results", len(body.GeoNames)).
		Int64("duration_ms", time.Since(t0).Milliseconds()).
		Msg("geonames response")

	if body.Status != nil {
		return domain.PlaceRecord{}, fmt.Errorf("geonames: service error %d %q: %w", body.Status.Value, body.Status.Message, domain.ErrMalformedResponse)
	}
	if len(body.GeoNames) == 0 {
		return domain.PlaceRecord{}, fmt.Errorf("geonames: %w", domain.ErrNoResultFound)
	}

	first := body.GeoNames[0]
	name := first.Name
	if name == "" {
		name = first.ToponymName
	}
	if name == "" {
		return domain.PlaceRecord{}, fmt.Errorf("geonames: unnamed result: %w", domain.ErrNoResultFound)
	}
	return domain.PlaceRecord{Name: name, Country: first.CountryName}, nil
}

func classifyTransportError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf("geonames: %w", ctx.Err())
	}
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return fmt.Errorf("geonames: %w: %v", domain.ErrLookupTimeout, err)
	}
	return fmt.Errorf("geonames: %w: %v", domain.ErrNetworkUnavailable, err)
}
