// Package metrics defines and registers the custom Prometheus metrics of the
// place acquisition service. It is the single source of truth for metric
// names, labels, and help strings.
//
// Metrics are registered with the default registry through promauto on
// package initialisation.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "placebadges"

// ── Reading metrics ───────────────────────────────────────────────────────────

// ReadingsTotal counts readings applied to the freshness tracker.
// Label:
//   - result: "stored", "replaced" or "conflict"
var ReadingsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "readings_total",
		Help:      "Total number of position readings processed, by freshness update result.",
	},
	[]string{"result"},
)

// StaleReadingsTotal counts readings expired by the staleness window on access.
var StaleReadingsTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_readings_total",
		Help:      "Total number of current readings dropped because they exceeded the staleness window.",
	},
)

// ReadingsQueueDepth tracks readings waiting in the ingestion queue.
var ReadingsQueueDepth = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readings_queue_depth",
		Help:      "Current number of readings pending in the ingestion queue.",
	},
)

// ── Acquisition metrics ───────────────────────────────────────────────────────

// DuplicatesTotal counts readings that fell inside an already acquired region.
var DuplicatesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "duplicates_total",
		Help:      "Total number of readings rejected because the place was already acquired.",
	},
)

// PlacesAcquiredTotal counts acquired places.
// Label:
//   - has_country: "true" or "false"
var PlacesAcquiredTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "places_acquired_total",
		Help:      "Total number of places acquired.",
	},
	[]string{"has_country"},
)

// RegionsIndexed tracks the size of the duplicate region index.
var RegionsIndexed = promauto.NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "regions_indexed",
		Help:      "Current number of regions in the duplicate region index.",
	},
)

// ── Resolution metrics ────────────────────────────────────────────────────────

// ResolutionsStartedTotal counts resolution tasks started.
// Label:
//   - network: "online" or "offline"
var ResolutionsStartedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolutions_started_total",
		Help:      "Total number of place resolution tasks started.",
	},
	[]string{"network"},
)

// ResolutionOutcomesTotal counts terminal resolution outcomes.
// Labels:
//   - status: "succeeded", "failed" or "cancelled"
//   - reason: failure kind (e.g. "lookup_timeout"), empty on success
var ResolutionOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "resolution_outcomes_total",
		Help:      "Total number of place resolution outcomes, by status and failure reason.",
	},
	[]string{"status", "reason"},
)

// ResolutionDuration measures lookup latency from task start to terminal outcome.
// Label:
//   - source: "remote" or "offline"
var ResolutionDuration = promauto.NewHistogramVec(
	prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "resolution_duration_seconds",
		Help:      "Duration of place lookups.",
		Buckets:   prometheus.DefBuckets, // .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10
	},
	[]string{"source"},
)

// StaleOutcomesTotal counts outcomes discarded because their task was superseded.
var StaleOutcomesTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stale_outcomes_total",
		Help:      "Total number of resolution outcomes ignored because the task was no longer in flight.",
	},
)

// ── Lookup cache metrics ──────────────────────────────────────────────────────

// LookupCacheTotal counts lookup cache decisions.
// Label:
//   - result: "hit", "miss" or "error"
var LookupCacheTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_cache_total",
		Help:      "Total number of lookup cache checks, labelled by result.",
	},
	[]string{"result"},
)

// ── Lookup backend metrics ────────────────────────────────────────────────────

// LookupRequestsTotal counts place lookups by backend and result.
// Labels:
//   - source: "geonames" or "gazetteer"
//   - result: "ok" or a failure kind
var LookupRequestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "lookup_requests_total",
		Help:      "Total number of place lookups, by backend and result.",
	},
	[]string{"source", "result"},
)
