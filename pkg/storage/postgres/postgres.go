// Package postgres implements the billing stores on PostgreSQL. Each store
// satisfies the corresponding interface in pkg/storage; nested values (line
// items, promo definitions) are stored as JSONB.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver

	"github.com/cadencehq/cadence/pkg/storage"
)

// Config holds the connection settings.
type Config struct {
	URL      string
	MaxConns int
	MinConns int
	Timeout  time.Duration
}

// DB wraps the shared connection pool the stores run on.
type DB struct {
	db *sql.DB
}

// Open connects to PostgreSQL, configures the pool, and verifies the
// connection with a ping.
func Open(cfg Config) (*DB, error) {
	if cfg.MaxConns == 0 {
		cfg.MaxConns = 10
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 5 * time.Second
	}

	db, err := sql.Open("postgres", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(1 * time.Hour)
	db.SetConnMaxIdleTime(10 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}

	return &DB{db: db}, nil
}

// NewDB wraps an existing connection pool. Used by tests.
func NewDB(db *sql.DB) *DB {
	return &DB{db: db}
}

// EnsureSchema creates the billing tables when they do not exist.
func (d *DB) EnsureSchema(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS billing_subscriptions (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		customer_id TEXT NOT NULL,
		plan_code TEXT NOT NULL,
		status TEXT NOT NULL,
		start_date TIMESTAMPTZ NOT NULL,
		current_period_start TIMESTAMPTZ NOT NULL,
		current_period_end TIMESTAMPTZ NOT NULL,
		seats INTEGER NOT NULL,
		promo_code TEXT NOT NULL DEFAULT ''
	);
	CREATE INDEX IF NOT EXISTS idx_billing_subscriptions_customer
		ON billing_subscriptions(customer_id);

	CREATE TABLE IF NOT EXISTS billing_invoices (
		id TEXT PRIMARY KEY,
		created_at TIMESTAMPTZ NOT NULL,
		customer_id TEXT NOT NULL,
		period_start TIMESTAMPTZ NOT NULL,
		period_end TIMESTAMPTZ NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		line_items JSONB NOT NULL DEFAULT '[]'
	);
	CREATE INDEX IF NOT EXISTS idx_billing_invoices_customer
		ON billing_invoices(customer_id);

	CREATE TABLE IF NOT EXISTS billing_promo_codes (
		code TEXT PRIMARY KEY,
		definition JSONB NOT NULL
	);

	CREATE TABLE IF NOT EXISTS billing_promo_usage (
		code TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		used_at TIMESTAMPTZ NOT NULL,
		PRIMARY KEY (code, customer_id)
	);
	`
	if _, err := d.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure billing schema: %w", err)
	}
	return nil
}

// Stores returns the full bundle backed by this database. The plan catalog
// stays in memory: it is configuration, loaded at startup and on hot
// reload, not entity state.
func (d *DB) Stores() storage.Stores {
	return storage.Stores{
		Plans:         storage.NewMemoryPlanStore(),
		Subscriptions: NewSubscriptionStore(d),
		Invoices:      NewInvoiceStore(d),
		Promos:        NewPromoStore(d),
		PromoUsage:    NewPromoUsageStore(d),
	}
}

// HealthCheck pings the database.
func (d *DB) HealthCheck(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("postgres unhealthy: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (d *DB) Close() error {
	return d.db.Close()
}
