package handler

import (
	"github.com/placebadges/acquisition/internal/core/domain"
	"github.com/placebadges/acquisition/internal/core/ports"
)

type readingRequest struct {
	Latitude  *float64 `json:"latitude"  validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
	// TimestampMillis defaults to the server clock when zero.
	TimestampMillis   int64 `json:"timestamp_millis" validate:"gte=0"`
	ProviderAvailable *bool `json:"provider_available"`
}

type batchReadingRequest struct {
	Readings []readingRequest `json:"readings" validate:"required,min=1,max=500,dive"`
}

type coordinateRequest struct {
	Latitude  *float64 `json:"latitude"  validate:"required,min=-90,max=90"`
	Longitude *float64 `json:"longitude" validate:"required,min=-180,max=180"`
}

type fixtureRequest struct {
	Name string `param:"name" validate:"required,oneof=place_one place_no_country place_two"`
}

type acceptedResponse struct {
	Message string `json:"message"`
	Count   int    `json:"count,omitempty"`
}

type snapshotResponse struct {
	State        string                  `json:"state"`
	Current      *domain.PositionReading `json:"current,omitempty"`
	RegionCount  int                     `json:"region_count"`
	InFlightTask string                  `json:"in_flight_task,omitempty"`
}

type mockStatusResponse struct {
	Running bool `json:"running"`
}

type mockReadingResponse struct {
	Reading domain.PositionReading `json:"reading"`
}

func toReading(req readingRequest, nowMillis int64) domain.PositionReading {
	available := true
	if req.ProviderAvailable != nil {
		available = *req.ProviderAvailable
	}
	ts := req.TimestampMillis
	if ts == 0 {
		ts = nowMillis
	}
	return domain.PositionReading{
		Latitude:          *req.Latitude,
		Longitude:         *req.Longitude,
		TimestampMillis:   ts,
		ProviderAvailable: available,
	}
}

func toSnapshotResponse(s ports.PipelineSnapshot) snapshotResponse {
	return snapshotResponse{
		State:        string(s.State),
		Current:      s.Current,
		RegionCount:  s.RegionCount,
		InFlightTask: s.InFlightTask,
	}
}
