package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubQueue struct {
	readings []domain.PositionReading
	capacity int
	err      error
}

func (q *stubQueue) Enqueue(r domain.PositionReading) error {
	if q.err != nil {
		return q.err
	}
	if q.capacity > 0 && len(q.readings) >= q.capacity {
		return errQueueFull
	}
	q.readings = append(q.readings, r)
	return nil
}

func (q *stubQueue) EnqueueBatch(rs []domain.PositionReading) (int, error) {
	for i, r := range rs {
		if err := q.Enqueue(r); err != nil {
			return i, err
		}
	}
	return len(rs), nil
}

var errQueueFull = errors.New("queue full")

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newReadingHandler(q *stubQueue) *ReadingHandler {
	return NewReadingHandler(q, clock.NewManual(testNow))
}

// ---------------------------------------------------------------------------
// Tests
// ---------------------------------------------------------------------------

func TestReadingHandler_Push_Defaults(t *testing.T) {
	e := newEcho()
	q := &stubQueue{}
	h := newReadingHandler(q)

	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings", `{"latitude":0,"longitude":0}`), rec)

	if err := h.Push(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if len(q.readings) != 1 {
		t.Fatalf("expected one queued reading, got %d", len(q.readings))
	}
	got := q.readings[0]
	if got.TimestampMillis != testNow.UnixMilli() {
		t.Errorf("expected server timestamp, got %d", got.TimestampMillis)
	}
	if !got.ProviderAvailable {
		t.Errorf("provider should default to available")
	}
}

func TestReadingHandler_Push_ExplicitFields(t *testing.T) {
	e := newEcho()
	q := &stubQueue{}
	h := newReadingHandler(q)

	body := `{"latitude":37.422,"longitude":-122.084,"timestamp_millis":1000,"provider_available":false}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings", body), rec)

	if err := h.Push(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	want := domain.PositionReading{Latitude: 37.422, Longitude: -122.084, TimestampMillis: 1000}
	if q.readings[0] != want {
		t.Fatalf("expected %+v, got %+v", want, q.readings[0])
	}
}

func TestReadingHandler_Push_Validation(t *testing.T) {
	cases := map[string]string{
		"missing latitude": `{"longitude":1}`,
		"latitude range":   `{"latitude":91,"longitude":1}`,
		"longitude range":  `{"latitude":1,"longitude":-181}`,
		"negative time":    `{"latitude":1,"longitude":1,"timestamp_millis":-5}`,
		"bad json":         `{"latitude":`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			e := newEcho()
			q := &stubQueue{}
			h := newReadingHandler(q)

			c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings", body), httptest.NewRecorder())

			err := h.Push(c)
			var he *echo.HTTPError
			if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %v", err)
			}
			if len(q.readings) != 0 {
				t.Errorf("nothing should be queued")
			}
		})
	}
}

func TestReadingHandler_Push_QueueErrorIsReturned(t *testing.T) {
	e := newEcho()
	h := newReadingHandler(&stubQueue{err: errQueueFull})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings", `{"latitude":1,"longitude":1}`), httptest.NewRecorder())

	if err := h.Push(c); !errors.Is(err, errQueueFull) {
		t.Fatalf("expected queue error, got %v", err)
	}
}

func TestReadingHandler_PushBatch_PreservesOrder(t *testing.T) {
	e := newEcho()
	q := &stubQueue{}
	h := newReadingHandler(q)

	body := `{"readings":[
		{"latitude":1,"longitude":1,"timestamp_millis":10},
		{"latitude":2,"longitude":2,"timestamp_millis":20},
		{"latitude":3,"longitude":3}
	]}`
	rec := httptest.NewRecorder()
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings/batch", body), rec)

	if err := h.PushBatch(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp acceptedResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if rec.Code != http.StatusAccepted || resp.Count != 3 {
		t.Fatalf("expected 202 with count 3, got %d %+v", rec.Code, resp)
	}
	for i, r := range q.readings {
		if r.Latitude != float64(i+1) {
			t.Fatalf("reading %d out of order: %+v", i, r)
		}
	}
	if q.readings[2].TimestampMillis != testNow.UnixMilli() {
		t.Errorf("missing timestamp should default to now")
	}
}

func TestReadingHandler_PushBatch_ValidatesEachReading(t *testing.T) {
	e := newEcho()
	q := &stubQueue{}
	h := newReadingHandler(q)

	body := `{"readings":[{"latitude":1,"longitude":1},{"latitude":100,"longitude":1}]}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings/batch", body), httptest.NewRecorder())

	err := h.PushBatch(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
	if len(q.readings) != 0 {
		t.Errorf("an invalid batch must not be partially queued")
	}
}

func TestReadingHandler_PushBatch_Empty(t *testing.T) {
	e := newEcho()
	h := newReadingHandler(&stubQueue{})

	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings/batch", `{"readings":[]}`), httptest.NewRecorder())

	var he *echo.HTTPError
	if err := h.PushBatch(c); !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}

func TestReadingHandler_PushBatch_QueueFull(t *testing.T) {
	e := newEcho()
	q := &stubQueue{capacity: 1}
	h := newReadingHandler(q)

	body := `{"readings":[{"latitude":1,"longitude":1},{"latitude":2,"longitude":2}]}`
	c := e.NewContext(jsonRequest(http.MethodPost, "/v1/readings/batch", body), httptest.NewRecorder())

	if err := h.PushBatch(c); !errors.Is(err, errQueueFull) {
		t.Fatalf("expected queue full, got %v", err)
	}
	if len(q.readings) != 1 {
		t.Errorf("accepted prefix should stay queued, got %d", len(q.readings))
	}
}
