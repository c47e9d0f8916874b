// Package metrics provides Prometheus instrumentation for tickplant.
//
// Key metrics:
//   - Gateway request counts and latencies per endpoint
//   - Session renewal outcomes
//   - Poll cycle outcomes, durations and ticks written
//   - Replay snapshots produced and data gaps
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// APIRequestsTotal counts gateway calls by endpoint and status class.
	APIRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickplant_api_requests_total",
		Help: "Total exchange API requests",
	}, []string{"method", "endpoint", "status"})

	// APIRequestDuration tracks gateway call latency by endpoint.
	APIRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "tickplant_api_request_duration_seconds",
		Help:    "Exchange API request duration in seconds",
		Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"method", "endpoint"})

	// SessionRenewals counts renewal attempts by result.
	SessionRenewals = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickplant_session_renewals_total",
		Help: "Session renewal attempts",
	}, []string{"result"})

	// PollCycles counts quote poll cycles by result.
	PollCycles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tickplant_poll_cycles_total",
		Help: "Quote poll cycles",
	}, []string{"result"})

	// PollCycleDuration tracks end-to-end poll cycle time.
	PollCycleDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tickplant_poll_cycle_duration_seconds",
		Help:    "Quote poll cycle duration in seconds",
		Buckets: prometheus.DefBuckets,
	})

	// TicksWritten counts rows appended to the tick store.
	TicksWritten = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickplant_ticks_written_total",
		Help: "Ticks appended to the tick store",
	})

	// ReplaySnapshots counts merged snapshots produced by the replay engine.
	ReplaySnapshots = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickplant_replay_snapshots_total",
		Help: "Merged snapshots produced by replay",
	})

	// ReplayDataGaps counts markets with no recorded history during replay.
	ReplayDataGaps = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tickplant_replay_data_gaps_total",
		Help: "Markets replayed without any recorded ticks",
	})
)

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// StatusClass collapses an HTTP status code into a low-cardinality label.
func StatusClass(code int) string {
	switch {
	case code == 0:
		return "transport_error"
	case code < 300:
		return "2xx"
	case code < 400:
		return "3xx"
	case code < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
