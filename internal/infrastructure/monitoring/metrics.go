package monitoring

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/vincent/internal/domain/service"
	"github.com/turtacn/vincent/pkg/constants"
)

// Metrics manages the Prometheus metrics. Each instance owns its registry so tests and
// multiple servers in one process do not collide.
type Metrics struct {
	registry *prometheus.Registry

	TokenCreateRequests *prometheus.CounterVec
	TokenCreateLatency  prometheus.Histogram
	TokenVerifyRequests *prometheus.CounterVec
	TokenVerifyLatency  prometheus.Histogram
	ParamValidations    *prometheus.CounterVec
	RateLimitHits       *prometheus.CounterVec
	CacheAccess         *prometheus.CounterVec
	HTTPRequests        *prometheus.CounterVec
	HTTPLatency         *prometheus.HistogramVec
	HTTPInFlight        prometheus.Gauge
}

var _ service.Metrics = (*Metrics)(nil)

// NewMetrics creates and registers the Prometheus metrics.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)
	ns := constants.MetricsNamespace

	return &Metrics{
		registry: reg,
		TokenCreateRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "jwt_create_total",
			Help:      "Total number of Vincent JWT creation attempts.",
		}, []string{"result", "error_code"}),
		TokenCreateLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "jwt_create_duration_seconds",
			Help:      "Latency of Vincent JWT creation, including the delegated signer.",
			Buckets:   prometheus.DefBuckets,
		}),
		TokenVerifyRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "jwt_verify_total",
			Help:      "Total number of Vincent JWT verifications.",
		}, []string{"result", "error_code"}),
		TokenVerifyLatency: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "jwt_verify_duration_seconds",
			Help:      "Latency of Vincent JWT verification.",
			Buckets:   []float64{.0001, .0005, .001, .0025, .005, .01, .025, .05, .1},
		}),
		ParamValidations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "param_validations_total",
			Help:      "Parameter validations by type and outcome.",
		}, []string{"type", "result"}),
		RateLimitHits: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "rate_limit_hits_total",
			Help:      "Total number of rate limit hits.",
		}, []string{"scope"}),
		CacheAccess: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "cache_access_total",
			Help:      "Cache lookups by cache and outcome.",
		}, []string{"cache", "result"}),
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: ns,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"path", "method", "status"}),
		HTTPLatency: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: ns,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and method.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method"}),
		HTTPInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: ns,
			Name:      "http_requests_in_flight",
			Help:      "HTTP requests currently being served.",
		}),
	}
}

// Registry returns the registry the metrics are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

func result(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}

// RecordTokenCreate implements service.Metrics.
func (m *Metrics) RecordTokenCreate(success bool, duration time.Duration, errorCode string) {
	m.TokenCreateRequests.WithLabelValues(result(success), errorCode).Inc()
	m.TokenCreateLatency.Observe(duration.Seconds())
}

// RecordTokenVerify implements service.Metrics.
func (m *Metrics) RecordTokenVerify(success bool, duration time.Duration, errorCode string) {
	m.TokenVerifyRequests.WithLabelValues(result(success), errorCode).Inc()
	m.TokenVerifyLatency.Observe(duration.Seconds())
}

// RecordParamValidation implements service.Metrics.
func (m *Metrics) RecordParamValidation(paramType string, valid bool) {
	outcome := "valid"
	if !valid {
		outcome = "invalid"
	}
	m.ParamValidations.WithLabelValues(paramType, outcome).Inc()
}

// RecordRateLimitHit implements service.Metrics.
func (m *Metrics) RecordRateLimitHit(scope string) {
	m.RateLimitHits.WithLabelValues(scope).Inc()
}

// RecordCacheAccess implements service.Metrics.
func (m *Metrics) RecordCacheAccess(cacheType string, hit bool) {
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheAccess.WithLabelValues(cacheType, outcome).Inc()
}

func (m *Metrics) ActiveRequestsInc() { m.HTTPInFlight.Inc() }
func (m *Metrics) ActiveRequestsDec() { m.HTTPInFlight.Dec() }

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(path, method string, status int, duration time.Duration) {
	m.HTTPRequests.WithLabelValues(path, method, strconv.Itoa(status)).Inc()
	m.HTTPLatency.WithLabelValues(path, method).Observe(duration.Seconds())
}
