package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/subscription"
)

// SubscriptionStore persists subscriptions in billing_subscriptions.
type SubscriptionStore struct {
	db *sql.DB
}

// NewSubscriptionStore creates a subscription store on the shared pool.
func NewSubscriptionStore(d *DB) *SubscriptionStore {
	return &SubscriptionStore{db: d.db}
}

// Save upserts the subscription.
func (s *SubscriptionStore) Save(sub *subscription.Subscription) error {
	return s.SaveContext(context.Background(), sub)
}

// SaveContext upserts the subscription keyed by id.
func (s *SubscriptionStore) SaveContext(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO billing_subscriptions
			(id, created_at, customer_id, plan_code, status,
			 start_date, current_period_start, current_period_end, seats, promo_code)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (id) DO UPDATE SET
			plan_code = EXCLUDED.plan_code,
			status = EXCLUDED.status,
			current_period_start = EXCLUDED.current_period_start,
			current_period_end = EXCLUDED.current_period_end,
			seats = EXCLUDED.seats,
			promo_code = EXCLUDED.promo_code
	`

	_, err := s.db.ExecContext(ctx, query,
		sub.ID,
		sub.CreatedAt,
		sub.CustomerID,
		sub.PlanCode,
		string(sub.Status),
		sub.StartDate,
		sub.CurrentPeriodStart,
		sub.CurrentPeriodEnd,
		sub.Seats,
		sub.PromoCode,
	)
	if err != nil {
		return fmt.Errorf("failed to save subscription: %w", err)
	}
	return nil
}

// Get returns a subscription by id.
func (s *SubscriptionStore) Get(id string) (*subscription.Subscription, error) {
	return s.GetContext(context.Background(), id)
}

// GetContext returns a subscription by id.
func (s *SubscriptionStore) GetContext(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `
		SELECT id, created_at, customer_id, plan_code, status,
		       start_date, current_period_start, current_period_end, seats, promo_code
		FROM billing_subscriptions
		WHERE id = $1
	`

	var sub subscription.Subscription
	var status string
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&sub.ID,
		&sub.CreatedAt,
		&sub.CustomerID,
		&sub.PlanCode,
		&status,
		&sub.StartDate,
		&sub.CurrentPeriodStart,
		&sub.CurrentPeriodEnd,
		&sub.Seats,
		&sub.PromoCode,
	)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("subscription", id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get subscription: %w", err)
	}

	sub.Status = subscription.Status(status)
	return &sub, nil
}

// ListByCustomer returns all subscriptions of one customer, newest first.
func (s *SubscriptionStore) ListByCustomer(ctx context.Context, customerID string) ([]*subscription.Subscription, error) {
	query := `
		SELECT id, created_at, customer_id, plan_code, status,
		       start_date, current_period_start, current_period_end, seats, promo_code
		FROM billing_subscriptions
		WHERE customer_id = $1
		ORDER BY created_at DESC
	`

	rows, err := s.db.QueryContext(ctx, query, customerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}
	defer rows.Close()

	var subs []*subscription.Subscription
	for rows.Next() {
		var sub subscription.Subscription
		var status string
		err := rows.Scan(
			&sub.ID,
			&sub.CreatedAt,
			&sub.CustomerID,
			&sub.PlanCode,
			&status,
			&sub.StartDate,
			&sub.CurrentPeriodStart,
			&sub.CurrentPeriodEnd,
			&sub.Seats,
			&sub.PromoCode,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan subscription: %w", err)
		}
		sub.Status = subscription.Status(status)
		subs = append(subs, &sub)
	}
	return subs, rows.Err()
}
