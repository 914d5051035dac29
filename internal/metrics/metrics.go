package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "webinar_archive"

// Sync results.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

var (
	// HTTP metrics
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
		},
		[]string{"method", "endpoint", "status"},
	)

	// Refresh metrics
	syncRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Total number of catalog refresh runs",
		},
		[]string{"result"},
	)

	syncDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of catalog refresh runs",
			Buckets:   prometheus.ExponentialBuckets(0.5, 2, 10),
		},
	)

	syncHitsDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_hits_dropped_total",
			Help:      "Upstream hits excluded from the catalog",
		},
	)

	catalogSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_size",
			Help:      "Number of records in the catalog after the last successful refresh",
		},
	)

	lastSyncTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_sync_timestamp_seconds",
			Help:      "Unix time of the last successful refresh",
		},
	)

	// Toggle metrics
	togglesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "toggles_total",
			Help:      "Total number of flag toggles",
		},
		[]string{"flag", "result"},
	)
)

func RecordHTTPRequest(method, endpoint string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	httpRequestDuration.WithLabelValues(method, endpoint, status).Observe(duration.Seconds())
}

// RecordSyncSuccess records a run that replaced the catalog.
func RecordSyncSuccess(duration time.Duration, kept, dropped int, at time.Time) {
	syncRunsTotal.WithLabelValues(ResultSuccess).Inc()
	syncDuration.Observe(duration.Seconds())
	syncHitsDropped.Add(float64(dropped))
	catalogSize.Set(float64(kept))
	lastSyncTimestamp.Set(float64(at.Unix()))
}

func RecordSyncFailure(duration time.Duration) {
	syncRunsTotal.WithLabelValues(ResultFailure).Inc()
	syncDuration.Observe(duration.Seconds())
}

func RecordToggle(flag string, ok bool) {
	result := ResultSuccess
	if !ok {
		result = ResultFailure
	}
	togglesTotal.WithLabelValues(flag, result).Inc()
}

func Handler() http.Handler {
	return promhttp.Handler()
}
