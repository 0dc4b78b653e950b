// Package metrics holds the orchestrator's domain Prometheus metrics: GPU
// lease/release counts, session state transitions, per-session queue depth,
// and model cache hit/miss counts. Registered the same way
// pkg/server/metrics.go and pkg/recipe/metrics.go register theirs.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// GPU allocator metrics
	GPULeasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpud_gpu_leases_total",
			Help: "Total number of GPU leases granted, by difficulty",
		},
		[]string{"difficulty"},
	)

	GPUReleasesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpud_gpu_releases_total",
			Help: "Total number of GPU releases, by difficulty",
		},
		[]string{"difficulty"},
	)

	// Session state machine metrics
	SessionStateTransitionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gpud_session_state_transitions_total",
			Help: "Total number of session state transitions, by the state transitioned into",
		},
		[]string{"status"},
	)

	SessionQueueDepth = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "gpud_session_queue_depth",
			Help: "Current number of requests buffered on a session's queue",
		},
		[]string{"session_id"},
	)

	// Model cache metrics
	ModelCacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpud_model_cache_hits_total",
			Help: "Total number of model cache hits (already populated on disk)",
		},
	)

	ModelCacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gpud_model_cache_misses_total",
			Help: "Total number of model cache misses (required a fetch)",
		},
	)
)
