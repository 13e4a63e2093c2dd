package metrics

import (
	"net/http"
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder with client_golang collectors.
type PrometheusRecorder struct {
	reg             *prom.Registry
	navigations     *prom.CounterVec
	routeBuild      prom.Histogram
	routes          prom.Gauge
	contentFetches  *prom.CounterVec
	renderDuration  *prom.HistogramVec
	renderCache     *prom.CounterVec
	sessions        prom.Gauge
	manifestReloads *prom.CounterVec
	requests        *prom.CounterVec
	requestDuration *prom.HistogramVec
}

// NewPrometheusRecorder registers the collectors on reg, or on a fresh
// registry when reg is nil.
func NewPrometheusRecorder(reg *prom.Registry, namespace string) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	if namespace == "" {
		namespace = "docnav"
	}
	pr := &PrometheusRecorder{
		reg: reg,
		navigations: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "navigations_total",
			Help:      "Navigation attempts by kind and outcome",
		}, []string{"kind", "outcome"}),
		routeBuild: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "route_build_duration_seconds",
			Help:      "Time to compile the route table",
			Buckets:   prom.DefBuckets,
		}),
		routes: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of page routes in the current table",
		}),
		contentFetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "content_fetches_total",
			Help:      "Content fetches by source and outcome",
		}, []string{"source", "outcome"}),
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Markdown render duration",
			Buckets:   prom.DefBuckets,
		}, []string{"result"}),
		renderCache: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "render_cache_total",
			Help:      "Render cache lookups by result",
		}, []string{"result"}),
		sessions: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions",
			Help:      "Live navigation sessions",
		}),
		manifestReloads: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "manifest_reloads_total",
			Help:      "Manifest reloads by result",
		}, []string{"result"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern and status code",
		}, []string{"route", "code"}),
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration by route pattern",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
	}
	reg.MustRegister(pr.navigations, pr.routeBuild, pr.routes, pr.contentFetches,
		pr.renderDuration, pr.renderCache, pr.sessions, pr.manifestReloads,
		pr.requests, pr.requestDuration)
	return pr
}

// Handler serves the registry in the Prometheus exposition format.
func (p *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(p.reg, promhttp.HandlerOpts{EnableOpenMetrics: true})
}

func (p *PrometheusRecorder) IncNavigation(kind, outcome string) {
	p.navigations.WithLabelValues(kind, outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRouteBuild(d time.Duration, routes int) {
	p.routeBuild.Observe(d.Seconds())
	p.routes.Set(float64(routes))
}

func (p *PrometheusRecorder) IncContentFetch(source, outcome string) {
	p.contentFetches.WithLabelValues(source, outcome).Inc()
}

func (p *PrometheusRecorder) ObserveRender(d time.Duration, success bool) {
	p.renderDuration.WithLabelValues(result(success)).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncRenderCache(hit bool) {
	res := "miss"
	if hit {
		res = "hit"
	}
	p.renderCache.WithLabelValues(res).Inc()
}

func (p *PrometheusRecorder) SetSessions(n int) {
	p.sessions.Set(float64(n))
}

func (p *PrometheusRecorder) IncManifestReload(success bool) {
	p.manifestReloads.WithLabelValues(result(success)).Inc()
}

func (p *PrometheusRecorder) ObserveRequest(route string, status int, d time.Duration) {
	p.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
}

func result(success bool) string {
	if success {
		return ResultOK
	}
	return ResultError
}
