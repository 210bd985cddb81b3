package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMiddlewareUsesRoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Get("/static/image/*", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/static/image/*", "GET", "404"))
	for _, name := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		req := httptest.NewRequest(http.MethodGet, "/static/image/"+name, nil)
		r.ServeHTTP(httptest.NewRecorder(), req)
	}
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("/static/image/*", "GET", "404"))

	assert.Equal(t, 3.0, after-before)
}

func TestMiddlewareUnmatchedRoute(t *testing.T) {
	h := Middleware(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))

	before := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "200"))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/wp-admin", nil))
	after := testutil.ToFloat64(httpRequestsTotal.WithLabelValues("other", "GET", "200"))

	assert.Equal(t, 1.0, after-before)
}

func TestDomainRecorders(t *testing.T) {
	SetSnapshot(7, 1234)
	assert.Equal(t, 7.0, testutil.ToFloat64(snapshotVersion))
	assert.Equal(t, 1234.0, testutil.ToFloat64(snapshotStations))

	SetSnapshotAge(90 * time.Second)
	assert.Equal(t, 90.0, testutil.ToFloat64(snapshotAgeSeconds))

	before := testutil.ToFloat64(droppedStationsTotal.WithLabelValues("missing_coordinates"))
	RecordDroppedStations("missing_coordinates", 3)
	RecordDroppedStations("missing_coordinates", 0)
	assert.Equal(t, 3.0, testutil.ToFloat64(droppedStationsTotal.WithLabelValues("missing_coordinates"))-before)

	before = testutil.ToFloat64(regionFetchesTotal.WithLabelValues("Taipei", "failed"))
	RecordRegionFetch("Taipei", false)
	assert.Equal(t, 1.0, testutil.ToFloat64(regionFetchesTotal.WithLabelValues("Taipei", "failed"))-before)

	before = testutil.ToFloat64(nearbyCacheLookups.WithLabelValues("hit"))
	RecordNearbyCacheLookup(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(nearbyCacheLookups.WithLabelValues("hit"))-before)
}

func TestHandlerExposesCollectors(t *testing.T) {
	RecordRefresh("published", time.Second)

	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "bikenearby_refresh_cycles_total")
	assert.Contains(t, rec.Body.String(), "bikenearby_snapshot_age_seconds")
}
