// Package prometheus instruments resolutions and proxy requests with
// Prometheus metrics.
package prometheus

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/fwojciec/carnet"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the collectors registered for the application.
type Metrics struct {
	registry *prometheus.Registry

	ResolutionsTotal   *prometheus.CounterVec
	ResolutionDuration prometheus.Histogram
	RendersTotal       *prometheus.CounterVec
	FieldsFound        *prometheus.CounterVec
	RequestsTotal      *prometheus.CounterVec
	RequestDuration    *prometheus.HistogramVec
}

// NewMetrics registers the application collectors, plus the Go runtime and
// process collectors, on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		ResolutionsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carnet_resolutions_total",
			Help: "Payload resolutions by outcome code.",
		}, []string{"code"}),
		ResolutionDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "carnet_resolution_duration_seconds",
			Help:    "Time to resolve a payload, including any render fallback.",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 40},
		}),
		RendersTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carnet_render_fallbacks_total",
			Help: "Headless render fallbacks by result (merged, kept, failed).",
		}, []string{"result"}),
		FieldsFound: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carnet_fields_found_total",
			Help: "Extracted non-empty fields by field name.",
		}, []string{"field"}),
		RequestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "carnet_http_requests_total",
			Help: "Proxy HTTP requests by method, route, and status.",
		}, []string{"method", "route", "status"}),
		RequestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "carnet_http_request_duration_seconds",
			Help:    "Proxy HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

// Registry returns the registry holding the collectors.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registered metrics in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Middleware records request counts and latency per chi route pattern.
// Unmatched paths are recorded as route "unmatched" to bound cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		begin := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestsTotal.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.RequestDuration.WithLabelValues(r.Method, route).Observe(time.Since(begin).Seconds())
	})
}

// Ensure Resolver implements carnet.Resolver.
var _ carnet.Resolver = (*Resolver)(nil)

// Resolver wraps a Resolver and records resolution metrics.
type Resolver struct {
	next    carnet.Resolver
	metrics *Metrics
}

// NewResolver creates a new Resolver.
func NewResolver(next carnet.Resolver, metrics *Metrics) *Resolver {
	return &Resolver{next: next, metrics: metrics}
}

// Resolve delegates to the wrapped resolver. Successful resolutions are
// counted with code "ok" and failures with their application error code.
func (r *Resolver) Resolve(ctx context.Context, payload carnet.Payload) (*carnet.Resolution, error) {
	begin := time.Now()
	res, err := r.next.Resolve(ctx, payload)
	r.metrics.ResolutionDuration.Observe(time.Since(begin).Seconds())

	if err != nil {
		r.metrics.ResolutionsTotal.WithLabelValues(carnet.ErrorCode(err)).Inc()
		return nil, err
	}
	r.metrics.ResolutionsTotal.WithLabelValues("ok").Inc()

	if d := res.Diagnostics; d.TriedRender {
		switch {
		case d.RenderError != "":
			r.metrics.RendersTotal.WithLabelValues("failed").Inc()
		case d.RenderedMerged:
			r.metrics.RendersTotal.WithLabelValues("merged").Inc()
		default:
			r.metrics.RendersTotal.WithLabelValues("kept").Inc()
		}
	}
	for _, f := range carnet.Fields {
		if res.Record.Get(f) != "" {
			r.metrics.FieldsFound.WithLabelValues(string(f)).Inc()
		}
	}
	return res, nil
}
