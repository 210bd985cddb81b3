package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	httpRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikenearby_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"path", "method", "code"},
	)

	httpDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bikenearby_http_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"path", "method"},
	)

	refreshCyclesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikenearby_refresh_cycles_total",
			Help: "Refresh cycles by outcome.",
		},
		[]string{"outcome"},
	)

	refreshDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "bikenearby_refresh_duration_seconds",
			Help:    "Duration of a full refresh cycle in seconds.",
			Buckets: prometheus.DefBuckets,
		},
	)

	regionFetchesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikenearby_region_fetches_total",
			Help: "Per-region fetches by outcome.",
		},
		[]string{"region", "outcome"},
	)

	droppedStationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikenearby_dropped_stations_total",
			Help: "Upstream station records dropped during merge, by reason.",
		},
		[]string{"reason"},
	)

	snapshotStations = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bikenearby_snapshot_stations",
			Help: "Number of stations in the published snapshot.",
		},
	)

	snapshotVersion = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bikenearby_snapshot_version",
			Help: "Version of the published snapshot.",
		},
	)

	snapshotAgeSeconds = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "bikenearby_snapshot_age_seconds",
			Help: "Seconds since the published snapshot was created.",
		},
	)

	indexBuildsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "bikenearby_index_builds_total",
			Help: "Spatial index builds.",
		},
	)

	nearbyCacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bikenearby_nearby_cache_lookups_total",
			Help: "Nearby result cache lookups by result.",
		},
		[]string{"result"},
	)
)

func init() {
	prometheus.MustRegister(
		httpRequestsTotal,
		httpDurationSeconds,
		refreshCyclesTotal,
		refreshDurationSeconds,
		regionFetchesTotal,
		droppedStationsTotal,
		snapshotStations,
		snapshotVersion,
		snapshotAgeSeconds,
		indexBuildsTotal,
		nearbyCacheLookups,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}

// RecordRefresh counts a finished cycle. outcome is one of "published",
// "skipped", "auth_failed" or "empty".
func RecordRefresh(outcome string, duration time.Duration) {
	refreshCyclesTotal.WithLabelValues(outcome).Inc()
	refreshDurationSeconds.Observe(duration.Seconds())
}

func RecordRegionFetch(region string, ok bool) {
	outcome := "ok"
	if !ok {
		outcome = "failed"
	}
	regionFetchesTotal.WithLabelValues(region, outcome).Inc()
}

func RecordDroppedStations(reason string, n int) {
	if n > 0 {
		droppedStationsTotal.WithLabelValues(reason).Add(float64(n))
	}
}

func SetSnapshot(version uint64, stations int) {
	snapshotVersion.Set(float64(version))
	snapshotStations.Set(float64(stations))
}

func SetSnapshotAge(age time.Duration) {
	snapshotAgeSeconds.Set(age.Seconds())
}

func RecordIndexBuild() {
	indexBuildsTotal.Inc()
}

func RecordNearbyCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	nearbyCacheLookups.WithLabelValues(result).Inc()
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
		path := routeLabel(r)

		httpRequestsTotal.WithLabelValues(path, r.Method, code).Inc()
		httpDurationSeconds.WithLabelValues(path, r.Method).Observe(duration)
	})
}

// routeLabel uses the matched chi pattern so static files and unknown paths
// do not explode label cardinality.
func routeLabel(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "other"
}
