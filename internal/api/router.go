package api

import (
	"strings"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/placebadges/acquisition/internal/api/handler"
	"github.com/placebadges/acquisition/internal/api/middleware"
	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
	probes "github.com/placebadges/acquisition/internal/infrastructure/http/handlers"
	"github.com/placebadges/acquisition/internal/pkg/clock"
)

// Dependencies are the collaborators the HTTP surface is built from.
type Dependencies struct {
	Log       zerolog.Logger
	JWTSecret string

	Auth        ports.AuthService
	Acquisition ports.AcquisitionService
	Readings    handler.ReadingQueue
	Board       handler.PlaceBoard
	// Mock is optional; the /v1/mock routes are not registered without it.
	Mock  handler.MockProvider
	Ready *probes.HealthDependenciesHandler
	Clock clock.Clock

	// Registerer and Gatherer default to the prometheus globals.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)

	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}
	if deps.Ready == nil {
		deps.Ready = probes.NewHealthDependenciesHandler()
	}

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "placebadges",
		Subsystem:  "http",
		Registerer: deps.Registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || strings.HasPrefix(c.Path(), "/health")
		},
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	readingHandler := handler.NewReadingHandler(deps.Readings, deps.Clock)
	acquisitionHandler := handler.NewAcquisitionHandler(deps.Acquisition)
	placesHandler := handler.NewPlacesHandler(deps.Board)

	authMiddleware := middleware.Auth(deps.JWTSecret)
	operatorOnly := middleware.RBAC(domain.RoleOperator)
	anyRole := middleware.RBAC(domain.RoleOperator, domain.RoleDevice)

	// --- Auth routes ---
	e.POST("/auth/token", authHandler.Login)

	// --- Health probes and metrics (no auth required) ---
	healthHandler := probes.NewHealthHandler()
	e.GET("/health", healthHandler.Liveness)     // liveness  – is the process alive?
	e.GET("/health/ready", deps.Ready.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))

	// --- Versioned API ---
	v1 := e.Group("/v1", authMiddleware)

	v1.POST("/readings", readingHandler.Push, anyRole)
	v1.POST("/readings/batch", readingHandler.PushBatch, anyRole)

	v1.GET("/readings/current", acquisitionHandler.Current, operatorOnly)
	v1.POST("/acquire", acquisitionHandler.Acquire, operatorOnly)
	v1.POST("/reset", acquisitionHandler.Reset, operatorOnly)
	v1.GET("/places", placesHandler.List, operatorOnly)
	v1.POST("/devices/:id/token", authHandler.IssueDeviceToken, operatorOnly)

	if deps.Mock != nil {
		mockHandler := handler.NewMockHandler(deps.Mock)
		mock := v1.Group("/mock", operatorOnly)
		mock.POST("/start", mockHandler.Start)
		mock.POST("/stop", mockHandler.Stop)
		mock.POST("/readings", mockHandler.PushReading)
		mock.POST("/fixtures/:name", mockHandler.PushFixture)
	}

	return e
}
