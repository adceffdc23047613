package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/cadencehq/cadence/pkg/api"
	"github.com/cadencehq/cadence/pkg/archive"
	"github.com/cadencehq/cadence/pkg/audit"
	"github.com/cadencehq/cadence/pkg/billing"
	"github.com/cadencehq/cadence/pkg/observability"
	"github.com/cadencehq/cadence/pkg/plan"
	"github.com/cadencehq/cadence/pkg/storage"
	"github.com/cadencehq/cadence/pkg/storage/postgres"
)

const version = "0.1.0"

var (
	addr          = flag.String("addr", ":8080", "Address to listen on")
	catalogPath   = flag.String("catalog", "", "Plan catalog file (one plan per line); empty uses the built-in catalog")
	dbURL         = flag.String("db-url", getEnv("DATABASE_URL", ""), "PostgreSQL connection URL; empty runs on in-memory stores")
	redisAddr     = flag.String("redis-addr", getEnv("REDIS_ADDR", ""), "Redis address for promo usage tracking; empty keeps usage in the primary store")
	auditDBPath   = flag.String("audit-db", "", "SQLite file for the audit trail; empty keeps the trail in memory")
	planCacheSize = flag.Int("plan-cache-size", 128, "LRU size for the plan catalog cache (SQL-backed catalogs)")
	statsSchedule = flag.String("stats-schedule", "0 * * * *", "Cron schedule for the billing stats job (default: every hour)")

	archiveBucket    = flag.String("archive-bucket", getEnv("ARCHIVE_BUCKET", ""), "S3 bucket for paid invoice archival; empty disables archival")
	archiveRegion    = flag.String("archive-region", getEnv("AWS_REGION", "us-east-1"), "S3 region for invoice archival")
	archiveEndpoint  = flag.String("archive-endpoint", getEnv("ARCHIVE_ENDPOINT", ""), "Custom S3 endpoint (MinIO-compatible setups)")
	archiveAccessKey = flag.String("archive-access-key", getEnv("ARCHIVE_ACCESS_KEY", ""), "Static S3 access key; empty uses the default AWS credential chain")
	archiveSecretKey = flag.String("archive-secret-key", getEnv("ARCHIVE_SECRET_KEY", ""), "Static S3 secret key")
	archivePathStyle = flag.Bool("archive-path-style", false, "Use path-style S3 addressing")
)

func main() {
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	obsLog := observability.NewLogger(observability.InfoLevel, os.Stdout)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := prometheus.NewRegistry()
	metrics := observability.NewMetrics(registry)
	health := observability.NewHealthChecker(version)

	var shutdownFuncs []observability.ShutdownFunc

	// Stores: Postgres when configured, memory otherwise. The plan catalog
	// always lives in memory and is fronted by the LRU so reloads are cheap.
	var stores storage.Stores
	if *dbURL != "" {
		db, err := postgres.Open(postgres.Config{URL: *dbURL, Timeout: 10 * time.Second})
		if err != nil {
			log.WithError(err).Fatal("failed to connect to postgres")
		}
		if err := db.EnsureSchema(ctx); err != nil {
			log.WithError(err).Fatal("failed to ensure schema")
		}
		stores = db.Stores()
		health.AddCheck("postgres", db.HealthCheck)
		shutdownFuncs = append(shutdownFuncs, func(context.Context) error { return db.Close() })
		log.Info("using postgres stores")
	} else {
		stores = storage.NewMemoryStores()
		log.Info("using in-memory stores")
	}

	cached, err := storage.NewCachedPlanStore(stores.Plans, *planCacheSize)
	if err != nil {
		log.WithError(err).Fatal("failed to build plan cache")
	}
	cached.OnHit = metrics.PlanCacheHitsTotal.Inc
	cached.OnMiss = metrics.PlanCacheMissesTotal.Inc
	stores.Plans = cached

	// Catalog: file-backed with hot reload, or the built-in defaults.
	plans := plan.Defaults()
	if *catalogPath != "" {
		plans, err = plan.LoadFile(*catalogPath)
		if err != nil {
			log.WithError(err).Fatal("failed to load plan catalog")
		}
	}
	if err := stores.Plans.Replace(plans); err != nil {
		log.WithError(err).Fatal("failed to install plan catalog")
	}
	metrics.PlanCatalogSize.Set(float64(len(plans)))
	log.WithField("plans", len(plans)).Info("plan catalog loaded")

	if *catalogPath != "" {
		go func() {
			defer observability.RecoverPanic(obsLog, "catalog watcher")
			err := plan.WatchFile(ctx, *catalogPath,
				func(fresh []plan.Plan) {
					if err := stores.Plans.Replace(fresh); err != nil {
						log.WithError(err).Error("failed to install reloaded catalog")
						metrics.PlanCatalogReloads.WithLabelValues("error").Inc()
						return
					}
					metrics.PlanCatalogSize.Set(float64(len(fresh)))
					metrics.PlanCatalogReloads.WithLabelValues("ok").Inc()
					log.WithField("plans", len(fresh)).Info("plan catalog reloaded")
				},
				func(err error) {
					metrics.PlanCatalogReloads.WithLabelValues("error").Inc()
					log.WithError(err).Error("plan catalog reload failed; previous catalog stays active")
				})
			if err != nil && ctx.Err() == nil {
				log.WithError(err).Error("catalog watcher stopped")
			}
		}()
	}

	if *redisAddr != "" {
		usage, err := storage.NewRedisPromoUsageStore(*redisAddr, getEnv("REDIS_PASSWORD", ""), 0)
		if err != nil {
			log.WithError(err).Fatal("failed to connect to redis")
		}
		stores.PromoUsage = usage
		shutdownFuncs = append(shutdownFuncs, func(context.Context) error { return usage.Close() })
		log.Info("using redis promo usage store")
	}

	var trail audit.Logger = audit.NewMemoryLogger()
	if *auditDBPath != "" {
		sqlTrail, err := audit.NewSQLiteLogger(*auditDBPath)
		if err != nil {
			log.WithError(err).Fatal("failed to open audit database")
		}
		trail = sqlTrail
		shutdownFuncs = append(shutdownFuncs, func(context.Context) error { return sqlTrail.Close() })
		log.WithField("path", *auditDBPath).Info("audit trail on sqlite")
	}

	svcOpts := []billing.Option{
		billing.WithLogger(log),
		billing.WithAudit(trail),
	}
	if *archiveBucket != "" {
		archiver, err := archive.NewS3Archiver(ctx, archive.Config{
			Bucket:       *archiveBucket,
			Region:       *archiveRegion,
			Endpoint:     *archiveEndpoint,
			AccessKey:    *archiveAccessKey,
			SecretKey:    *archiveSecretKey,
			UsePathStyle: *archivePathStyle,
		})
		if err != nil {
			log.WithError(err).Fatal("failed to set up invoice archival")
		}
		svcOpts = append(svcOpts, billing.WithArchiver(archiver))
		health.AddOptionalCheck("archive", archiver.HealthCheck)
		log.WithField("bucket", *archiveBucket).Info("invoice archival enabled")
	}

	svc := billing.NewService(stores, svcOpts...)

	server := api.NewServer(svc,
		api.WithLogger(log),
		api.WithMetrics(metrics, registry),
		api.WithHealthChecker(health),
	)

	// Periodic stats job keeps the catalog gauge honest even when the
	// catalog is mutated through the API rather than the file.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(*statsSchedule, func() {
		plans, err := svc.ListPlans()
		if err != nil {
			log.WithError(err).Error("stats job failed to list plans")
			return
		}
		metrics.PlanCatalogSize.Set(float64(len(plans)))
		log.WithField("plans", len(plans)).Info("billing stats")
	}); err != nil {
		log.WithError(err).Fatal("failed to schedule stats job")
	}
	scheduler.Start()
	shutdownFuncs = append(shutdownFuncs, func(ctx context.Context) error {
		select {
		case <-scheduler.Stop().Done():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	httpServer := &http.Server{
		Addr:         *addr,
		Handler:      server,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.WithField("addr", *addr).Info("billing server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("server failed")
		}
	}()

	shutdownFuncs = append(shutdownFuncs, func(context.Context) error {
		cancel()
		return nil
	})
	if err := observability.GracefulShutdown(obsLog, httpServer, shutdownFuncs...); err != nil {
		log.WithError(err).Error("shutdown finished with errors")
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
