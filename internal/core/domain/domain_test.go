package domain

import (
	"errors"
	"fmt"
	"math"
	"testing"
	"time"
)

func TestRegion_ContainsInclusive(t *testing.T) {
	r := RegionAround(10, 20, 0.5)

	cases := []struct {
		lat, lon float64
		want     bool
	}{
		{10, 20, true},
		{9.5, 19.5, true},
		{10.5, 20.5, true},
		{10.50001, 20, false},
		{10, 19.49999, false},
	}
	for _, tc := range cases {
		if got := r.Contains(tc.lat, tc.lon); got != tc.want {
			t.Errorf("Contains(%f, %f) = %v, want %v", tc.lat, tc.lon, got, tc.want)
		}
	}
}

func TestPositionReading_Ordering(t *testing.T) {
	a := NewPositionReading(1, 1, time.UnixMilli(5000), true)
	b := NewPositionReading(2, 2, time.UnixMilli(5000), true)
	c := NewPositionReading(3, 3, time.UnixMilli(6000), true)

	if a.After(b) || b.After(a) {
		t.Error("equal timestamps must not be ordered")
	}
	if !c.After(a) {
		t.Error("expected later reading to be after")
	}
	if got := a.AgeAt(time.UnixMilli(65000)); got != time.Minute {
		t.Errorf("expected age of 1m, got %s", got)
	}
}

func TestDistanceMeters(t *testing.T) {
	// One degree of latitude is roughly 111.2 km.
	d := DistanceMeters(0, 0, 1, 0)
	if math.Abs(d-111195) > 100 {
		t.Errorf("unexpected distance %f", d)
	}
	if DistanceMeters(37.422, -122.084, 37.422, -122.084) != 0 {
		t.Error("expected zero distance for the same point")
	}
}

func TestKindOf(t *testing.T) {
	cases := map[error]ErrorKind{
		nil: "",
		fmt.Errorf("x: %w", ErrNetworkUnavailable): KindNetworkUnavailable,
		ErrLookupTimeout:     KindLookupTimeout,
		ErrMalformedResponse: KindMalformedResponse,
		ErrNoResultFound:     KindNoResultFound,
		errors.New("other"):  KindUnknown,
	}
	for err, want := range cases {
		if got := KindOf(err); got != want {
			t.Errorf("KindOf(%v) = %s, want %s", err, got, want)
		}
	}
}

func TestResolutionOutcome_Kind(t *testing.T) {
	if k := Cancelled("t").Kind(); k != KindCancelled {
		t.Errorf("expected cancelled, got %s", k)
	}
	if k := Succeeded("t", PlaceRecord{Name: "x"}).Kind(); k != "" {
		t.Errorf("expected empty kind for success, got %s", k)
	}
	if k := Failed("t", ErrLookupTimeout).Kind(); k != KindLookupTimeout {
		t.Errorf("expected lookup_timeout, got %s", k)
	}
}
