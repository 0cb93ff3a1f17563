package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubLookup struct {
	place domain.PlaceRecord
	err   error
	calls atomic.Int32
	// block makes Lookup wait for ctx to end.
	block   bool
	started chan struct{}
}

func (l *stubLookup) Lookup(ctx context.Context, _, _ float64) (domain.PlaceRecord, error) {
	l.calls.Add(1)
	if l.started != nil {
		close(l.started)
	}
	if l.block {
		<-ctx.Done()
		return domain.PlaceRecord{}, ctx.Err()
	}
	return l.place, l.err
}

func named(name, country string) *stubLookup {
	return &stubLookup{place: domain.PlaceRecord{Name: name, Country: country}}
}

func failing(err error) *stubLookup {
	return &stubLookup{err: err}
}

func newTestResolver(remote, offline ports.PlaceLookup, timeout time.Duration) *PlaceResolver {
	return NewPlaceResolver(remote, offline, ResolverConfig{Timeout: timeout}, zerolog.Nop())
}

func resolveAndWait(t *testing.T, r *PlaceResolver, reading domain.PositionReading, online bool) (ports.ResolutionHandle, domain.ResolutionOutcome) {
	t.Helper()
	delivered := make(chan domain.ResolutionOutcome, 1)
	h := r.ResolveAsync(reading, online, func(out domain.ResolutionOutcome) { delivered <- out })

	select {
	case out := <-delivered:
		return h, out
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for resolution outcome")
	}
	return nil, domain.ResolutionOutcome{}
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestPlaceResolver_RemoteSuccess(t *testing.T) {
	remote := named("Mountain View", "United States")
	offline := named("unused", "")
	r := newTestResolver(remote, offline, time.Second)

	reading := readingAt(37.422, -122.084, 1000)
	h, out := resolveAndWait(t, r, reading, true)

	if out.Status != domain.TaskSucceeded {
		t.Fatalf("expected succeeded, got %s (%v)", out.Status, out.Err)
	}
	if out.TaskID != h.ID() {
		t.Errorf("outcome task %q does not match handle %q", out.TaskID, h.ID())
	}
	if out.Place.Name != "Mountain View" || out.Place.Country != "United States" {
		t.Errorf("unexpected place: %+v", out.Place)
	}
	if out.Place.SourceReading != reading {
		t.Errorf("expected source reading %+v, got %+v", reading, out.Place.SourceReading)
	}
	if !out.Place.Region.Contains(reading.Latitude, reading.Longitude) {
		t.Errorf("region %+v does not contain its source", out.Place.Region)
	}
	want := domain.RegionAround(37.422, -122.084, domain.DefaultRegionMargin)
	if out.Place.Region != want {
		t.Errorf("expected region %+v, got %+v", want, out.Place.Region)
	}
	if offline.calls.Load() != 0 {
		t.Errorf("offline lookup should not be used when remote succeeds")
	}

	<-h.Done()
	if h.Status() != domain.TaskSucceeded {
		t.Errorf("expected handle status succeeded, got %s", h.Status())
	}
	if h.Outcome().Place == nil {
		t.Errorf("expected handle outcome to carry the place")
	}
}

func TestPlaceResolver_OfflineModeSkipsRemote(t *testing.T) {
	remote := named("remote", "")
	offline := named("College Park", "United States")
	r := newTestResolver(remote, offline, time.Second)

	_, out := resolveAndWait(t, r, readingAt(38.996667, -76.9275, 1000), false)

	if out.Status != domain.TaskSucceeded || out.Place.Name != "College Park" {
		t.Fatalf("expected offline success, got %s", out)
	}
	if remote.calls.Load() != 0 {
		t.Errorf("remote lookup must not be called without network")
	}
}

func TestPlaceResolver_RemoteUnavailableFallsBackOffline(t *testing.T) {
	remote := failing(fmt.Errorf("dial: %w", domain.ErrNetworkUnavailable))
	offline := named("Mountain View", "United States")
	r := newTestResolver(remote, offline, time.Second)

	_, out := resolveAndWait(t, r, readingAt(37.422, -122.084, 1000), true)

	if out.Status != domain.TaskSucceeded || out.Place.Name != "Mountain View" {
		t.Fatalf("expected offline fallback to succeed, got %s", out)
	}
}

func TestPlaceResolver_RemoteFailuresArePassedThrough(t *testing.T) {
	cases := []struct {
		name string
		err  error
		kind domain.ErrorKind
	}{
		{"malformed", domain.ErrMalformedResponse, domain.KindMalformedResponse},
		{"no result", domain.ErrNoResultFound, domain.KindNoResultFound},
		{"unknown", errors.New("boom"), domain.KindUnknown},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			offline := named("fallback", "")
			r := newTestResolver(failing(tc.err), offline, time.Second)

			_, out := resolveAndWait(t, r, readingAt(1, 1, 1000), true)

			if out.Status != domain.TaskFailed {
				t.Fatalf("expected failed, got %s", out.Status)
			}
			if out.Kind() != tc.kind {
				t.Errorf("expected kind %s, got %s", tc.kind, out.Kind())
			}
			if offline.calls.Load() != 0 {
				t.Errorf("offline lookup should only be used on network unavailability")
			}
		})
	}
}

func TestPlaceResolver_EmptyNameIsNoResult(t *testing.T) {
	r := newTestResolver(named("  ", "France"), nil, time.Second)

	_, out := resolveAndWait(t, r, readingAt(1, 1, 1000), true)

	if !errors.Is(out.Err, domain.ErrNoResultFound) {
		t.Fatalf("expected ErrNoResultFound, got %v", out.Err)
	}
}

func TestPlaceResolver_OfflineMissIsNetworkUnavailable(t *testing.T) {
	r := newTestResolver(nil, failing(domain.ErrNoResultFound), time.Second)

	_, out := resolveAndWait(t, r, readingAt(0, 0, 1000), false)

	if !errors.Is(out.Err, domain.ErrNetworkUnavailable) {
		t.Fatalf("expected ErrNetworkUnavailable, got %v", out.Err)
	}
}

func TestPlaceResolver_NoOfflineLookupIsNetworkUnavailable(t *testing.T) {
	r := newTestResolver(named("remote", ""), nil, time.Second)

	_, out := resolveAndWait(t, r, readingAt(0, 0, 1000), false)

	if out.Kind() != domain.KindNetworkUnavailable {
		t.Fatalf("expected network_unavailable, got %s", out.Kind())
	}
}

func TestPlaceResolver_TimeoutFails(t *testing.T) {
	r := newTestResolver(&stubLookup{block: true}, nil, 20*time.Millisecond)

	h, out := resolveAndWait(t, r, readingAt(1, 1, 1000), true)

	if !errors.Is(out.Err, domain.ErrLookupTimeout) {
		t.Fatalf("expected ErrLookupTimeout, got %v", out.Err)
	}
	if h.Status() != domain.TaskFailed {
		t.Errorf("expected failed status, got %s", h.Status())
	}
}

func TestPlaceResolver_CancelSuppressesDelivery(t *testing.T) {
	lookup := &stubLookup{block: true, started: make(chan struct{})}
	r := newTestResolver(lookup, nil, time.Second)

	delivered := make(chan domain.ResolutionOutcome, 1)
	h := r.ResolveAsync(readingAt(1, 1, 1000), true, func(out domain.ResolutionOutcome) { delivered <- out })

	<-lookup.started
	h.Cancel()

	select {
	case <-h.Done():
	default:
		t.Fatal("expected Done to be closed after Cancel")
	}
	if h.Status() != domain.TaskCancelled {
		t.Errorf("expected cancelled, got %s", h.Status())
	}
	if h.Outcome().Kind() != domain.KindCancelled {
		t.Errorf("expected cancelled outcome, got %s", h.Outcome())
	}

	select {
	case out := <-delivered:
		t.Fatalf("cancelled task must not deliver, got %s", out)
	case <-time.After(100 * time.Millisecond):
	}

	// A second cancel is a no-op.
	h.Cancel()
	if h.Status() != domain.TaskCancelled {
		t.Errorf("status changed after second cancel: %s", h.Status())
	}
}

func TestPlaceResolver_CancelAfterCompletionKeepsOutcome(t *testing.T) {
	r := newTestResolver(named("Paris", "France"), nil, time.Second)

	h, _ := resolveAndWait(t, r, readingAt(48.85, 2.35, 1000), true)
	<-h.Done()
	h.Cancel()

	if h.Status() != domain.TaskSucceeded {
		t.Errorf("terminal status must not change, got %s", h.Status())
	}
}

func TestPlaceResolver_TaskIDsAreUnique(t *testing.T) {
	r := newTestResolver(named("x", ""), nil, time.Second)
	seen := map[string]bool{}
	for i := 0; i < 10; i++ {
		h, _ := resolveAndWait(t, r, readingAt(1, 1, int64(i)), true)
		if seen[h.ID()] {
			t.Fatalf("duplicate task id %s", h.ID())
		}
		seen[h.ID()] = true
	}
}
