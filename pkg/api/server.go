// Package api exposes the billing service over HTTP. Handlers parse JSON
// DTOs, delegate to the billing service, and translate domain errors to
// status codes (not found 404, invalid transition 409, other domain errors
// 400).
package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"

	"github.com/cadencehq/cadence/pkg/billing"
	"github.com/cadencehq/cadence/pkg/httputil"
	"github.com/cadencehq/cadence/pkg/observability"
)

// Server represents the billing API server
type Server struct {
	svc      *billing.Service
	router   *mux.Router
	handler  http.Handler
	log      logrus.FieldLogger
	metrics  *observability.Metrics
	registry *prometheus.Registry
	health   *observability.HealthChecker
	now      func() time.Time
}

// Option configures the server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Server) { s.log = log }
}

// WithMetrics instruments requests and serves the registry on /metrics.
func WithMetrics(m *observability.Metrics, registry *prometheus.Registry) Option {
	return func(s *Server) {
		s.metrics = m
		s.registry = registry
	}
}

// WithHealthChecker serves the readiness probe on /healthz.
func WithHealthChecker(h *observability.HealthChecker) Option {
	return func(s *Server) { s.health = h }
}

// withClock overrides the business-date source. Tests only.
func withClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// NewServer creates a new API server around the billing service.
func NewServer(svc *billing.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		router: mux.NewRouter(),
		log:    logrus.StandardLogger(),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	s.setupRoutes()

	middlewares := []func(http.Handler) http.Handler{
		httputil.RecoveryMiddleware(s.log),
		httputil.RequestIDMiddleware,
		httputil.LoggingMiddleware(s.log),
		httputil.MaxBytesMiddleware(1 << 20),
	}
	if s.metrics != nil {
		middlewares = append(middlewares, observability.HTTPMetricsMiddleware(s.metrics))
	}
	s.handler = httputil.Chain(middlewares...)(s.router)

	return s
}

// setupRoutes configures all the API routes
func (s *Server) setupRoutes() {
	// Plan routes
	s.router.HandleFunc("/plans", s.createPlan).Methods("POST")
	s.router.HandleFunc("/plans", s.listPlans).Methods("GET")
	s.router.HandleFunc("/plans/{code}", s.getPlan).Methods("GET")

	// Subscription routes
	s.router.HandleFunc("/subscriptions", s.createSubscription).Methods("POST")
	s.router.HandleFunc("/subscriptions/{id}", s.getSubscription).Methods("GET")
	s.router.HandleFunc("/subscriptions/{id}/cancel", s.cancelSubscription).Methods("POST")
	s.router.HandleFunc("/subscriptions/{id}/upgrade", s.upgradeSubscription).Methods("POST")
	s.router.HandleFunc("/subscriptions/{id}/change-seats", s.changeSeats).Methods("POST")
	s.router.HandleFunc("/subscriptions/{id}/apply-promo", s.applyPromo).Methods("POST")

	// Invoice routes
	s.router.HandleFunc("/invoices/{id}", s.getInvoice).Methods("GET")
	s.router.HandleFunc("/invoices/{id}/issue", s.issueInvoice).Methods("POST")
	s.router.HandleFunc("/invoices/{id}/pay", s.payInvoice).Methods("POST")

	// Promo routes
	s.router.HandleFunc("/promos", s.createPromo).Methods("POST")

	if s.health != nil {
		s.router.HandleFunc("/healthz", s.health.Readiness).Methods("GET")
	}
	if s.registry != nil {
		s.router.Handle("/metrics", observability.MetricsHandler(s.registry)).Methods("GET")
	}
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// observe records one billing operation outcome when metrics are wired.
func (s *Server) observe(operation string, start time.Time, err error) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveBillingOperation(operation, time.Since(start), err)
}
