package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestPrometheusRecorder_Counts(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg, "test")

	pr.IncNavigation("version", ResultOK)
	pr.IncNavigation("version", ResultOK)
	pr.IncNavigation("topic", "unknown_catalog_entry")
	pr.ObserveRouteBuild(time.Millisecond, 6)
	pr.IncRenderCache(true)
	pr.SetSessions(3)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.navigations.WithLabelValues("version", ResultOK)))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.navigations.WithLabelValues("topic", "unknown_catalog_entry")))
	require.Equal(t, 6.0, testutil.ToFloat64(pr.routes))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.renderCache.WithLabelValues("hit")))
	require.Equal(t, 3.0, testutil.ToFloat64(pr.sessions))
}

func TestPrometheusRecorder_Handler(t *testing.T) {
	pr := NewPrometheusRecorder(nil, "")
	pr.IncManifestReload(true)

	rec := httptest.NewRecorder()
	pr.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, strings.Contains(rec.Body.String(), "docnav_manifest_reloads_total"))
}

func TestPrometheusRecorder_ObserveRequest(t *testing.T) {
	pr := NewPrometheusRecorder(nil, "test")
	pr.ObserveRequest("/api/selection", http.StatusOK, time.Millisecond)
	pr.ObserveRequest("/api/selection", http.StatusOK, time.Millisecond)
	pr.ObserveRequest("page", http.StatusNotFound, time.Millisecond)

	require.Equal(t, 2.0, testutil.ToFloat64(pr.requests.WithLabelValues("/api/selection", "200")))
	require.Equal(t, 1.0, testutil.ToFloat64(pr.requests.WithLabelValues("page", "404")))
}

func TestNoopRecorder_SatisfiesRecorder(t *testing.T) {
	var r Recorder = NoopRecorder{}
	r.IncNavigation("version", ResultOK)
	r.ObserveRender(time.Second, false)
}
