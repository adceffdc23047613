// Package observability provides structured logging, Prometheus metrics,
// health checks, and graceful shutdown.
//
// # Structured Logging
//
// Create logger:
//
//	logger := observability.NewLogger(observability.InfoLevel, os.Stdout)
//	logger.Infof("server started on %s", addr)
//
// Context-aware logging:
//
//	logger.WithField("request_id", reqID).Error("request failed")
//
// # Prometheus Metrics
//
// Initialize metrics:
//
//	registry := prometheus.NewRegistry()
//	metrics := observability.NewMetrics(registry)
//	metrics.ObserveBillingOperation("create_subscription", elapsed, err)
//	metrics.PlanCatalogSize.Set(float64(len(plans)))
//
// # Health Checks
//
//	checker := observability.NewHealthChecker(version)
//	checker.AddCheck("postgres", db.HealthCheck)
//	checker.AddOptionalCheck("redis", promoUsage.Ping)
//
// # Graceful Shutdown
//
//	observability.GracefulShutdown(logger, server,
//		func(ctx context.Context) error { return db.Close() },
//	)
package observability
