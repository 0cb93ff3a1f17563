package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func serve(t *testing.T, h echo.HandlerFunc) (*httptest.ResponseRecorder, readinessResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/health/ready", nil), rec)
	if err := h(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	var body readinessResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &body)
	return rec, body
}

func TestLiveness(t *testing.T) {
	rec, _ := serve(t, NewHealthHandler().Liveness)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestReadiness_AllHealthy(t *testing.T) {
	h := NewHealthDependenciesHandler().
		Add("pipeline", func(context.Context) error { return nil }).
		Add("nats", ConnectedCheck(func() bool { return true }))

	rec, body := serve(t, h.Readiness)
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("expected ok, got %d %+v", rec.Code, body)
	}
	if len(body.Dependencies) != 2 {
		t.Errorf("expected two dependencies, got %+v", body.Dependencies)
	}
}

func TestReadiness_Degraded(t *testing.T) {
	h := NewHealthDependenciesHandler().
		Add("pipeline", func(context.Context) error { return nil }).
		Add("redis", func(context.Context) error { return errors.New("connection refused") }).
		Add("nats", ConnectedCheck(func() bool { return false }))

	rec, body := serve(t, h.Readiness)
	if rec.Code != http.StatusServiceUnavailable || body.Status != "degraded" {
		t.Fatalf("expected degraded, got %d %+v", rec.Code, body)
	}
	if body.Dependencies["redis"].Error != "connection refused" {
		t.Errorf("unexpected redis status %+v", body.Dependencies["redis"])
	}
	if body.Dependencies["nats"].Status != "unhealthy" {
		t.Errorf("unexpected nats status %+v", body.Dependencies["nats"])
	}
	if body.Dependencies["pipeline"].Status != "ok" {
		t.Errorf("unexpected pipeline status %+v", body.Dependencies["pipeline"])
	}
}

func TestReadiness_NoDependencies(t *testing.T) {
	rec, body := serve(t, NewHealthDependenciesHandler().Readiness)
	if rec.Code != http.StatusOK || body.Status != "ok" {
		t.Fatalf("expected ok, got %d %+v", rec.Code, body)
	}
}
