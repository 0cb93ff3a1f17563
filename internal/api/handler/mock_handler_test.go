package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/infrastructure/mockprovider"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

func newMockHandler() (*MockHandler, *mockprovider.Injector) {
	inj := mockprovider.NewInjector(clock.NewManual(testNow), zerolog.Nop())
	return NewMockHandler(inj), inj
}

func TestMockHandler_StartStop(t *testing.T) {
	h, inj := newMockHandler()
	e := newEcho()

	rec := httptest.NewRecorder()
	if err := h.Start(e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/mock/start", nil), rec)); err != nil {
		t.Fatalf("start: %v", err)
	}
	var status mockStatusResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if !status.Running || !inj.Running() {
		t.Fatalf("expected provider running")
	}

	rec = httptest.NewRecorder()
	if err := h.Stop(e.NewContext(httptest.NewRequest(http.MethodPost, "/v1/mock/stop", nil), rec)); err != nil {
		t.Fatalf("stop: %v", err)
	}
	_ = json.Unmarshal(rec.Body.Bytes(), &status)
	if status.Running || inj.Running() {
		t.Fatalf("expected provider stopped")
	}
}

func TestMockHandler_PushReading(t *testing.T) {
	h, inj := newMockHandler()
	inj.Start()

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(jsonRequest(http.MethodPost, "/v1/mock/readings", `{"latitude":48.85,"longitude":2.35}`), rec)

	if err := h.PushReading(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}

	var resp mockReadingResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Reading.Latitude != 48.85 || resp.Reading.TimestampMillis != testNow.UnixMilli() {
		t.Fatalf("unexpected reading: %+v", resp.Reading)
	}
	if last, ok := inj.LastKnownReading(); !ok || last != resp.Reading {
		t.Fatalf("injector should remember the pushed reading")
	}
}

func TestMockHandler_PushReading_Stopped(t *testing.T) {
	h, _ := newMockHandler()

	c := newEcho().NewContext(jsonRequest(http.MethodPost, "/v1/mock/readings", `{"latitude":1,"longitude":1}`), httptest.NewRecorder())

	if err := h.PushReading(c); !errors.Is(err, mockprovider.ErrStopped) {
		t.Fatalf("expected ErrStopped, got %v", err)
	}
}

func TestMockHandler_PushFixture(t *testing.T) {
	h, inj := newMockHandler()
	inj.Start()

	rec := httptest.NewRecorder()
	c := newEcho().NewContext(httptest.NewRequest(http.MethodPost, "/v1/mock/fixtures/place_two", nil), rec)
	c.SetParamNames("name")
	c.SetParamValues(mockprovider.FixturePlaceTwo)

	if err := h.PushFixture(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}

	var resp mockReadingResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &resp)
	if resp.Reading.Latitude != 38.996667 || resp.Reading.Longitude != -76.9275 {
		t.Fatalf("unexpected fixture reading: %+v", resp.Reading)
	}
}

func TestMockHandler_PushFixture_Unknown(t *testing.T) {
	h, inj := newMockHandler()
	inj.Start()

	c := newEcho().NewContext(httptest.NewRequest(http.MethodPost, "/v1/mock/fixtures/atlantis", nil), httptest.NewRecorder())
	c.SetParamNames("name")
	c.SetParamValues("atlantis")

	err := h.PushFixture(c)
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %v", err)
	}
}
