// Package metrics exposes Prometheus instrumentation for the service:
// HTTP traffic, pass prediction work, TLE dataset freshness, and the
// prediction cache.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattrack_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "sattrack_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	predictionDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "sattrack_prediction_duration_seconds",
			Help:    "Wall time of one pass prediction scan.",
			Buckets: prometheus.DefBuckets,
		},
	)

	predictionsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattrack_predictions_total",
			Help: "Total number of pass prediction scans.",
		},
	)

	passesFoundTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattrack_passes_found_total",
			Help: "Total number of passes emitted across all predictions.",
		},
	)

	tleDatasetSatellites = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sattrack_tle_dataset_satellites",
			Help: "Number of satellites in the current TLE dataset.",
		},
	)

	tleDatasetAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sattrack_tle_dataset_age_seconds",
			Help: "Age of the current TLE dataset in seconds.",
		},
	)

	tleFetchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sattrack_tle_fetch_total",
			Help: "TLE fetch attempts by result.",
		},
		[]string{"result"},
	)

	predictionCacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattrack_prediction_cache_hits_total",
			Help: "Prediction cache hits.",
		},
	)

	predictionCacheMisses = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattrack_prediction_cache_misses_total",
			Help: "Prediction cache misses.",
		},
	)

	predictionCacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "sattrack_prediction_cache_evictions_total",
			Help: "Prediction cache entries evicted.",
		},
	)

	predictionCacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "sattrack_prediction_cache_entries",
			Help: "Prediction cache entry count.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		predictionDuration,
		predictionsTotal,
		passesFoundTotal,
		tleDatasetSatellites,
		tleDatasetAgeSeconds,
		tleFetchTotal,
		predictionCacheHits,
		predictionCacheMisses,
		predictionCacheEvictions,
		predictionCacheEntries,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordPrediction records one completed prediction scan.
func RecordPrediction(duration time.Duration, passCount int) {
	predictionsTotal.Inc()
	predictionDuration.Observe(duration.Seconds())
	passesFoundTotal.Add(float64(passCount))
}

// SetTLEDatasetCount publishes the satellite count of the current dataset.
func SetTLEDatasetCount(n int) {
	tleDatasetSatellites.Set(float64(n))
}

// SetTLEDatasetAge publishes the dataset age in seconds.
func SetTLEDatasetAge(seconds float64) {
	tleDatasetAgeSeconds.Set(seconds)
}

// IncTLEFetch counts a fetch attempt; result is "success" or "error".
func IncTLEFetch(result string) {
	tleFetchTotal.WithLabelValues(result).Inc()
}

// IncPredictionCacheHits counts a prediction cache hit.
func IncPredictionCacheHits() { predictionCacheHits.Inc() }

// IncPredictionCacheMisses counts a prediction cache miss.
func IncPredictionCacheMisses() { predictionCacheMisses.Inc() }

// AddPredictionCacheEvictions counts evicted prediction cache entries.
func AddPredictionCacheEvictions(n int) { predictionCacheEvictions.Add(float64(n)) }

// SetPredictionCacheEntries publishes the prediction cache size.
func SetPredictionCacheEntries(n int) { predictionCacheEntries.Set(float64(n)) }

// knownRoutes are the exact paths this service serves.
var knownRoutes = map[string]bool{
	"/":                    true,
	"/healthz":             true,
	"/readyz":              true,
	"/metrics":             true,
	"/api/v1/passes":       true,
	"/api/v1/position":     true,
	"/api/v1/footprint":    true,
	"/api/v1/tle/metadata": true,
	"/api/v1/cache/stats":  true,
}

// normalizeRoute collapses unknown paths (bots, scanners, typos) into a
// single "other" label so they cannot blow up metric cardinality.
func normalizeRoute(path string) string {
	if knownRoutes[path] {
		return path
	}
	return "other"
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Middleware records request count and duration for each request.
func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(rw, r)

		duration := time.Since(start).Seconds()
		code := strconv.Itoa(rw.statusCode)
		route := normalizeRoute(r.URL.Path)

		httpRequestsTotal.WithLabelValues(route, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(route, r.Method).Observe(duration)
	})
}
