package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/promo"
)

// PromoStore persists promo code definitions as JSONB documents keyed by
// code.
type PromoStore struct {
	db *sql.DB
}

// NewPromoStore creates a promo store on the shared pool.
func NewPromoStore(d *DB) *PromoStore {
	return &PromoStore{db: d.db}
}

// Add inserts a promo code. Re-adding an existing code replaces it.
func (s *PromoStore) Add(p promo.PromoCode) error {
	return s.AddContext(context.Background(), p)
}

// AddContext inserts or replaces a promo code definition.
func (s *PromoStore) AddContext(ctx context.Context, p promo.PromoCode) error {
	definition, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to marshal promo code: %w", err)
	}

	query := `
		INSERT INTO billing_promo_codes (code, definition)
		VALUES ($1, $2)
		ON CONFLICT (code) DO UPDATE SET definition = EXCLUDED.definition
	`
	if _, err := s.db.ExecContext(ctx, query, p.Code, definition); err != nil {
		return fmt.Errorf("failed to save promo code: %w", err)
	}
	return nil
}

// Get returns a promo code by code.
func (s *PromoStore) Get(code string) (promo.PromoCode, error) {
	return s.GetContext(context.Background(), code)
}

// GetContext returns a promo code by code.
func (s *PromoStore) GetContext(ctx context.Context, code string) (promo.PromoCode, error) {
	var definition []byte
	err := s.db.QueryRowContext(ctx,
		"SELECT definition FROM billing_promo_codes WHERE code = $1", code,
	).Scan(&definition)
	if err == sql.ErrNoRows {
		return promo.PromoCode{}, errs.NotFound("promo code", code)
	} else if err != nil {
		return promo.PromoCode{}, fmt.Errorf("failed to get promo code: %w", err)
	}

	var p promo.PromoCode
	if err := json.Unmarshal(definition, &p); err != nil {
		return promo.PromoCode{}, fmt.Errorf("failed to unmarshal promo code: %w", err)
	}
	return p, nil
}

// PromoUsageStore tracks per-customer redemptions in billing_promo_usage.
type PromoUsageStore struct {
	db *sql.DB
}

// NewPromoUsageStore creates a promo usage store on the shared pool.
func NewPromoUsageStore(d *DB) *PromoUsageStore {
	return &PromoUsageStore{db: d.db}
}

// IsUsed reports whether the customer already redeemed the code.
func (s *PromoUsageStore) IsUsed(code, customerID string) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(context.Background(), `
		SELECT EXISTS (
			SELECT 1 FROM billing_promo_usage WHERE code = $1 AND customer_id = $2
		)`, code, customerID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check promo usage: %w", err)
	}
	return exists, nil
}

// MarkUsed records a redemption. Marking twice is a no-op.
func (s *PromoUsageStore) MarkUsed(code, customerID string) error {
	_, err := s.db.ExecContext(context.Background(), `
		INSERT INTO billing_promo_usage (code, customer_id, used_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (code, customer_id) DO NOTHING`,
		code, customerID, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to mark promo used: %w", err)
	}
	return nil
}
