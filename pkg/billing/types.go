package billing

import (
	"context"
	"time"

	"github.com/cadencehq/cadence/pkg/invoice"
)

// CreateSubscriptionParams are the inputs to CreateSubscription.
type CreateSubscriptionParams struct {
	CustomerID string
	PlanCode   string
	StartDate  time.Time
	Seats      int // defaults to 1
	TrialDays  int
	PeriodDays int // defaults to 30
}

// InvoiceArchiver receives invoices that reached their terminal state.
// Archive failures are logged, not surfaced: payment must not fail because
// the archive is unreachable.
type InvoiceArchiver interface {
	Archive(ctx context.Context, inv *invoice.Invoice) error
}

const subscriptionChargeDescription = "Subscription charge"
