package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// HTTP metrics
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	// Billing metrics
	BillingOperationsTotal   *prometheus.CounterVec
	BillingOperationDuration *prometheus.HistogramVec
	InvoiceTotalAmount       *prometheus.HistogramVec

	// Plan catalog metrics
	PlanCatalogSize    prometheus.Gauge
	PlanCatalogReloads *prometheus.CounterVec

	// Plan cache metrics
	PlanCacheHitsTotal   prometheus.Counter
	PlanCacheMissesTotal prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadence_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cadence_http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		BillingOperationsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadence_billing_operations_total",
				Help: "Total number of billing operations",
			},
			[]string{"operation", "status"},
		),
		BillingOperationDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cadence_billing_operation_duration_seconds",
				Help:    "Billing operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		InvoiceTotalAmount: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "cadence_invoice_total_amount",
				Help:    "Invoice totals at issue time, in currency units",
				Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000},
			},
			[]string{"currency"},
		),

		PlanCatalogSize: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cadence_plan_catalog_size",
				Help: "Number of plans in the active catalog",
			},
		),
		PlanCatalogReloads: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cadence_plan_catalog_reloads_total",
				Help: "Total number of plan catalog reloads",
			},
			[]string{"status"},
		),

		PlanCacheHitsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cadence_plan_cache_hits_total",
				Help: "Total number of plan cache hits",
			},
		),
		PlanCacheMissesTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cadence_plan_cache_misses_total",
				Help: "Total number of plan cache misses",
			},
		),
	}

	registry.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BillingOperationsTotal,
		m.BillingOperationDuration,
		m.InvoiceTotalAmount,
		m.PlanCatalogSize,
		m.PlanCatalogReloads,
		m.PlanCacheHitsTotal,
		m.PlanCacheMissesTotal,
	)

	return m
}

// ObserveBillingOperation records one billing operation outcome.
func (m *Metrics) ObserveBillingOperation(operation string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BillingOperationsTotal.WithLabelValues(operation, status).Inc()
	m.BillingOperationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// HTTPMetricsMiddleware instruments HTTP requests with Prometheus metrics
func HTTPMetricsMiddleware(metrics *Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			rw := &responseWriter{
				ResponseWriter: w,
				statusCode:     http.StatusOK,
			}

			next.ServeHTTP(rw, r)

			duration := time.Since(start).Seconds()
			status := strconv.Itoa(rw.statusCode)

			metrics.HTTPRequestsTotal.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPRequestDuration.WithLabelValues(r.Method, r.URL.Path).Observe(duration)
		})
	}
}

// MetricsHandler returns the /metrics handler for the registry
func MetricsHandler(registry *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
