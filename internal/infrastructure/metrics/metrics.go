// Package metrics provides Prometheus metrics for the generation-api service.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequests tracks HTTP requests by method, endpoint and status.
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_api_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// HTTPRequestDuration tracks HTTP request latency.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_api_http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// Attempts tracks provider attempts by outcome.
	Attempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_api_attempts_total",
			Help: "Total number of provider attempts",
		},
		[]string{"provider", "outcome"},
	)

	// Fallbacks tracks how often a chain advanced past its first candidate.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_api_fallbacks_total",
			Help: "Total number of chains that fell back past the first candidate",
		},
		[]string{"task"},
	)

	// Chains tracks completed chains by task and result.
	Chains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_api_chains_total",
			Help: "Total number of executed generation chains",
		},
		[]string{"task", "result"},
	)

	// ChainDuration tracks end-to-end chain execution time.
	ChainDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "generation_api_chain_duration_seconds",
			Help:    "Duration of generation chain executions",
			Buckets: []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"task"},
	)

	// RegistryRefreshes tracks capability refreshes by trigger and result.
	RegistryRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "generation_api_registry_refreshes_total",
			Help: "Total number of capability registry refreshes",
		},
		[]string{"trigger", "result"},
	)

	// RegistryRefreshDuration tracks how long a probe round takes.
	RegistryRefreshDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "generation_api_registry_refresh_duration_seconds",
			Help:    "Duration of capability registry probe rounds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// BackendsOnline reports per-backend reachability from the last refresh.
	BackendsOnline = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "generation_api_backends_online",
			Help: "Whether a backend was reachable in the last probe round (1 or 0)",
		},
		[]string{"backend"},
	)

	// ModelsAvailable reports available models per task from the snapshot.
	ModelsAvailable = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "generation_api_models_available",
			Help: "Number of available models per task kind in the current snapshot",
		},
		[]string{"task"},
	)
)

// RecordHTTPRequest records one served HTTP request.
func RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	HTTPRequests.WithLabelValues(method, endpoint, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordAttempt records one provider attempt.
func RecordAttempt(provider, outcome string) {
	Attempts.WithLabelValues(provider, outcome).Inc()
}

// RecordFallback records a chain advancing past its first candidate.
func RecordFallback(taskKind string) {
	Fallbacks.WithLabelValues(taskKind).Inc()
}

// RecordChain records a completed chain execution.
func RecordChain(taskKind, result string, duration time.Duration) {
	Chains.WithLabelValues(taskKind, result).Inc()
	ChainDuration.WithLabelValues(taskKind).Observe(duration.Seconds())
}

// RecordRefresh records a capability registry refresh.
func RecordRefresh(trigger, result string, duration time.Duration) {
	RegistryRefreshes.WithLabelValues(trigger, result).Inc()
	RegistryRefreshDuration.Observe(duration.Seconds())
}

// RecordBackendOnline sets the reachability gauge for a backend.
func RecordBackendOnline(backend string, online bool) {
	value := 0.0
	if online {
		value = 1.0
	}
	BackendsOnline.WithLabelValues(backend).Set(value)
}

// RecordModelsAvailable sets the per-task availability gauge.
func RecordModelsAvailable(taskKind string, count int) {
	ModelsAvailable.WithLabelValues(taskKind).Set(float64(count))
}
