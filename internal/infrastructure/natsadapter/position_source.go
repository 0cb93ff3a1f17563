// Package natsadapter feeds position readings published on NATS into the
// acquisition pipeline.
package natsadapter

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

const DefaultSubject = "placebadges.readings"

var ErrAlreadySubscribed = errors.New("position source already subscribed")

// Subscriber is the subset of *nats.Conn used by PositionSource.
type Subscriber interface {
	Subscribe(subject string, cb nats.MsgHandler) (*nats.Subscription, error)
}

// readingMessage is the JSON payload published by devices. A missing
// timestamp is filled in with the receive time.
type readingMessage struct {
	Latitude          *float64 `json:"latitude"`
	Longitude         *float64 `json:"longitude"`
	TimestampMillis   int64    `json:"timestamp_millis"`
	ProviderAvailable *bool    `json:"provider_available"`
}

// PositionSource implements ports.PositioningSource over a core NATS
// subscription. Readings closer than the subscription's minimum interval
// and minimum distance to the last delivered one are dropped.
type PositionSource struct {
	conn    *nats.Conn
	subs    Subscriber
	subject string
	clock   clock.Clock
	log     zerolog.Logger

	mu          sync.Mutex
	sub         *nats.Subscription
	cb          ports.ReadingCallback
	minInterval int64
	minDistance float64
	delivered   *domain.PositionReading
	last        *domain.PositionReading
}

// Connect dials NATS and returns a source for subject.
func Connect(url, subject string, clk clock.Clock, log zerolog.Logger) (*PositionSource, error) {
	conn, err := nats.Connect(url,
		nats.Name("placebadges"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2*time.Second),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect: %w", err)
	}
	s := NewPositionSource(conn, subject, clk, log)
	s.conn = conn
	return s, nil
}

// NewPositionSource builds a source on an existing subscriber.
func NewPositionSource(subs Subscriber, subject string, clk clock.Clock, log zerolog.Logger) *PositionSource {
	if subject == "" {
		subject = DefaultSubject
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &PositionSource{
		subs:    subs,
		subject: subject,
		clock:   clk,
		log:     log.With().Str("component", "nats_source").Str("subject", subject).Logger(),
	}
}

func (s *PositionSource) Subscribe(minIntervalMillis int64, minDistanceMeters float64, cb ports.ReadingCallback) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cb != nil {
		return ErrAlreadySubscribed
	}

	sub, err := s.subs.Subscribe(s.subject, s.handle)
	if err != nil {
		return fmt.Errorf("nats subscribe %s: %w", s.subject, err)
	}
	s.sub = sub
	s.cb = cb
	s.minInterval = minIntervalMillis
	s.minDistance = minDistanceMeters
	s.delivered = nil
	return nil
}

func (s *PositionSource) Unsubscribe() error {
	s.mu.Lock()
	sub := s.sub
	s.sub, s.cb = nil, nil
	s.mu.Unlock()

	if sub == nil {
		return nil
	}
	if err := sub.Unsubscribe(); err != nil {
		return fmt.Errorf("nats unsubscribe: %w", err)
	}
	return nil
}

func (s *PositionSource) LastKnownReading() (domain.PositionReading, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return domain.PositionReading{}, false
	}
	return *s.last, true
}

// Connected reports whether the underlying connection is up. A source built
// on a bare Subscriber is always considered connected.
func (s *PositionSource) Connected() bool {
	if s.conn == nil {
		return true
	}
	return s.conn.IsConnected()
}

// Close unsubscribes and drains the connection.
func (s *PositionSource) Close() {
	_ = s.Unsubscribe()
	if s.conn != nil {
		_ = s.conn.Drain()
	}
}

func (s *PositionSource) handle(msg *nats.Msg) {
	r, err := s.decode(msg.Data)
	if err != nil {
		s.log.Warn().Err(err).Msg("dropping malformed reading")
		return
	}

	s.mu.Lock()
	s.last = &r
	cb := s.cb
	if cb == nil || !s.admit(r) {
		s.mu.Unlock()
		return
	}
	s.delivered = &r
	s.mu.Unlock()

	cb(r)
}

func (s *PositionSource) decode(data []byte) (domain.PositionReading, error) {
	var m readingMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return domain.PositionReading{}, fmt.Errorf("decode reading: %w", err)
	}
	if m.Latitude == nil || m.Longitude == nil {
		return domain.PositionReading{}, errors.New("decode reading: missing coordinates")
	}
	if *m.Latitude < -90 || *m.Latitude > 90 || *m.Longitude < -180 || *m.Longitude > 180 {
		return domain.PositionReading{}, fmt.Errorf("decode reading: coordinates out of range (%f, %f)", *m.Latitude, *m.Longitude)
	}

	available := true
	if m.ProviderAvailable != nil {
		available = *m.ProviderAvailable
	}
	r := domain.PositionReading{
		Latitude:          *m.Latitude,
		Longitude:         *m.Longitude,
		TimestampMillis:   m.TimestampMillis,
		ProviderAvailable: available,
	}
	if r.TimestampMillis == 0 {
		r.TimestampMillis = s.clock.Now().UnixMilli()
	}
	return r, nil
}

// admit applies the subscription thresholds. Readings that do not move
// forward in time always pass so the freshness tracker can see conflicts.
// Caller holds s.mu.
func (s *PositionSource) admit(r domain.PositionReading) bool {
	if s.delivered == nil {
		return true
	}
	prev := *s.delivered
	if r.TimestampMillis <= prev.TimestampMillis {
		return true
	}
	if r.TimestampMillis-prev.TimestampMillis >= s.minInterval {
		return true
	}
	return r.DistanceTo(prev) >= s.minDistance
}
