package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// PrometheusRecorder implements Recorder backed by Prometheus collectors.
type PrometheusRecorder struct {
	registry *prometheus.Registry

	redirectsMatched prometheus.Counter
	redirectFallback *prometheus.CounterVec
	storeErrors      *prometheus.CounterVec
	resolveDuration  prometheus.Histogram

	qrCreated  prometheus.Counter
	qrUpdated  prometheus.Counter
	qrArchived prometheus.Counter

	rateLimited *prometheus.CounterVec
}

// NewPrometheus creates a PrometheusRecorder with its own registry.
// The registry also collects the standard Go and process metrics.
func NewPrometheus() *PrometheusRecorder {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		prometheus.NewGoCollector(),
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
	)

	r := &PrometheusRecorder{
		registry: registry,
		redirectsMatched: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "redirects_matched_total",
			Help: "Total redirect requests that resolved to a target URL",
		}),
		redirectFallback: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "redirect_fallback_total",
			Help: "Total redirect requests that rendered the fallback page",
		}, []string{"reason"}),
		storeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Total failed store calls by normalized error code",
		}, []string{"code"}),
		resolveDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "resolve_duration_seconds",
			Help:    "Slug resolution duration including the store call",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		qrCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qr_codes_created_total",
			Help: "Total QR codes created",
		}),
		qrUpdated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qr_codes_updated_total",
			Help: "Total QR code target updates",
		}),
		qrArchived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "qr_codes_archived_total",
			Help: "Total QR codes archived",
		}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rate_limited_total",
			Help: "Total rate-limited requests by scope",
		}, []string{"scope"}),
	}

	registry.MustRegister(
		r.redirectsMatched,
		r.redirectFallback,
		r.storeErrors,
		r.resolveDuration,
		r.qrCreated,
		r.qrUpdated,
		r.qrArchived,
		r.rateLimited,
	)

	return r
}

// Handler returns the HTTP handler serving the /metrics endpoint.
func (r *PrometheusRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// IncRedirectMatched increments the matched-redirect counter.
func (r *PrometheusRecorder) IncRedirectMatched() {
	r.redirectsMatched.Inc()
}

// IncRedirectFallback increments the fallback counter for a reason.
func (r *PrometheusRecorder) IncRedirectFallback(reason string) {
	r.redirectFallback.WithLabelValues(reason).Inc()
}

// IncStoreError increments the store-error counter for a code.
func (r *PrometheusRecorder) IncStoreError(code string) {
	r.storeErrors.WithLabelValues(code).Inc()
}

// ObserveResolveDuration records one resolution duration.
func (r *PrometheusRecorder) ObserveResolveDuration(duration time.Duration) {
	r.resolveDuration.Observe(duration.Seconds())
}

// IncQRCreated increments the created counter.
func (r *PrometheusRecorder) IncQRCreated() {
	r.qrCreated.Inc()
}

// IncQRUpdated increments the updated counter.
func (r *PrometheusRecorder) IncQRUpdated() {
	r.qrUpdated.Inc()
}

// IncQRArchived increments the archived counter.
func (r *PrometheusRecorder) IncQRArchived() {
	r.qrArchived.Inc()
}

// IncRateLimited increments the rate-limited counter for a scope.
func (r *PrometheusRecorder) IncRateLimited(scope string) {
	r.rateLimited.WithLabelValues(scope).Inc()
}
