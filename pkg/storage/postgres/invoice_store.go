package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/invoice"
)

// InvoiceStore persists invoices in billing_invoices. Line items travel as
// a JSONB array.
type InvoiceStore struct {
	db *sql.DB
}

// NewInvoiceStore creates an invoice store on the shared pool.
func NewInvoiceStore(d *DB) *InvoiceStore {
	return &InvoiceStore{db: d.db}
}

// Save upserts the invoice.
func (s *InvoiceStore) Save(inv *invoice.Invoice) error {
	return s.SaveContext(context.Background(), inv)
}

// SaveContext upserts the invoice keyed by id.
func (s *InvoiceStore) SaveContext(ctx context.Context, inv *invoice.Invoice) error {
	items, err := json.Marshal(inv.Items())
	if err != nil {
		return fmt.Errorf("failed to marshal line items: %w", err)
	}

	query := `
		INSERT INTO billing_invoices
			(id, created_at, customer_id, period_start, period_end, currency, status, line_items)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			line_items = EXCLUDED.line_items
	`

	_, err = s.db.ExecContext(ctx, query,
		inv.ID,
		inv.CreatedAt,
		inv.CustomerID,
		inv.PeriodStart,
		inv.PeriodEnd,
		inv.Currency,
		string(inv.Status),
		items,
	)
	if err != nil {
		return fmt.Errorf("failed to save invoice: %w", err)
	}
	return nil
}

// Get returns an invoice by id.
func (s *InvoiceStore) Get(id string) (*invoice.Invoice, error) {
	return s.GetContext(context.Background(), id)
}

// GetContext returns an invoice by id.
func (s *InvoiceStore) GetContext(ctx context.Context, id string) (*invoice.Invoice, error) {
	query := `
		SELECT id, created_at, customer_id, period_start, period_end, currency, status, line_items
		FROM billing_invoices
		WHERE id = $1
	`

	var (
		invID, customerID, currency, status string
		createdAt, periodStart, periodEnd   sql.NullTime
		itemsJSON                           []byte
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&invID, &createdAt, &customerID, &periodStart, &periodEnd, &currency, &status, &itemsJSON,
	)
	if err == sql.ErrNoRows {
		return nil, errs.NotFound("invoice", id)
	} else if err != nil {
		return nil, fmt.Errorf("failed to get invoice: %w", err)
	}

	var items []invoice.LineItem
	if len(itemsJSON) > 0 {
		if err := json.Unmarshal(itemsJSON, &items); err != nil {
			return nil, fmt.Errorf("failed to unmarshal line items: %w", err)
		}
	}

	return invoice.Restore(invID, createdAt.Time, customerID, periodStart.Time, periodEnd.Time,
		currency, invoice.Status(status), items), nil
}
