package billing

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cadencehq/cadence/pkg/audit"
	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/invoice"
	"github.com/cadencehq/cadence/pkg/money"
	"github.com/cadencehq/cadence/pkg/plan"
	"github.com/cadencehq/cadence/pkg/promo"
	"github.com/cadencehq/cadence/pkg/storage"
	"github.com/cadencehq/cadence/pkg/subscription"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func quietLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return log
}

func newTestService(t *testing.T) (*Service, *audit.MemoryLogger) {
	t.Helper()
	stores := storage.NewMemoryStores()
	for _, p := range plan.Defaults() {
		require.NoError(t, stores.Plans.Add(p))
	}
	trail := audit.NewMemoryLogger()
	return NewService(stores, WithLogger(quietLogger()), WithAudit(trail)), trail
}

func TestCreateSubscriptionFlatPlan(t *testing.T) {
	svc, trail := newTestService(t)

	sub, inv, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)

	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Equal(t, "PRO", sub.PlanCode)
	assert.Equal(t, 1, sub.Seats)
	assert.Equal(t, date(2026, 1, 31), sub.CurrentPeriodEnd)

	require.NotNil(t, inv)
	assert.Equal(t, invoice.StatusDraft, inv.Status)
	require.Equal(t, 1, inv.Len())
	assert.Equal(t, "Subscription charge", inv.Items()[0].Description)
	assert.Equal(t, "20.00 EUR", inv.Total().String())

	stored, err := svc.GetInvoice(inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.ID, stored.ID)

	entries := trail.Entries()
	require.Len(t, entries, 1)
	assert.Equal(t, audit.OpSubscriptionCreate, entries[0].Operation)
	assert.Equal(t, inv.ID, entries[0].Detail["invoice_id"])
}

func TestCreateSubscriptionFreePlanNoInvoice(t *testing.T) {
	svc, _ := newTestService(t)

	sub, inv, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "FREE",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusActive, sub.Status)
	assert.Nil(t, inv)
}

func TestCreateSubscriptionTrialNoInvoice(t *testing.T) {
	svc, _ := newTestService(t)

	sub, inv, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
		TrialDays:  14,
	})
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusTrialing, sub.Status)
	assert.Equal(t, date(2026, 1, 15), sub.CurrentPeriodEnd)
	assert.Nil(t, inv)
}

func TestCreateSubscriptionUnknownPlan(t *testing.T) {
	svc, _ := newTestService(t)

	_, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "NOPE",
		StartDate:  date(2026, 1, 1),
	})
	assert.True(t, errs.IsNotFound(err))
}

func TestCancelSubscription(t *testing.T) {
	svc, _ := newTestService(t)

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "FREE",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)

	canceled, err := svc.CancelSubscription(context.Background(), sub.ID)
	require.NoError(t, err)
	assert.Equal(t, subscription.StatusCanceled, canceled.Status)

	_, err = svc.CancelSubscription(context.Background(), sub.ID)
	assert.True(t, errs.IsInvalidTransition(err))
}

func TestUpgradeMidPeriodProration(t *testing.T) {
	svc, _ := newTestService(t)

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
		Seats:      3,
	})
	require.NoError(t, err)

	// Halfway through the 30-day period. PRO is 20.00 flat; TEAM at 3
	// seats is 10.00 + 3*5.00 = 25.00.
	inv, err := svc.UpgradeSubscription(context.Background(), sub.ID, "TEAM", date(2026, 1, 16))
	require.NoError(t, err)
	require.NotNil(t, inv)

	items := inv.Items()
	require.Len(t, items, 2)
	assert.Equal(t, "Proration credit (unused old plan)", items[0].Description)
	assert.Equal(t, "-10.00 EUR", items[0].Amount.String())
	assert.Equal(t, "Proration charge (remaining new plan)", items[1].Description)
	assert.Equal(t, "12.50 EUR", items[1].Amount.String())
	assert.Equal(t, "2.50 EUR", inv.Total().String())

	updated, err := svc.GetSubscription(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "TEAM", updated.PlanCode)
}

func TestUpgradeAtPeriodEndNoInvoice(t *testing.T) {
	svc, _ := newTestService(t)

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)

	inv, err := svc.UpgradeSubscription(context.Background(), sub.ID, "TEAM", sub.CurrentPeriodEnd)
	require.NoError(t, err)
	assert.Nil(t, inv)

	updated, err := svc.GetSubscription(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "TEAM", updated.PlanCode)
}

func TestUpgradeOutsidePeriodFails(t *testing.T) {
	svc, _ := newTestService(t)

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)

	_, err = svc.UpgradeSubscription(context.Background(), sub.ID, "TEAM", date(2026, 3, 1))
	assert.True(t, errs.IsValidation(err))

	// Plan swap did not happen.
	updated, err := svc.GetSubscription(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, "PRO", updated.PlanCode)
}

func TestChangeSeatsMidPeriodProration(t *testing.T) {
	svc, _ := newTestService(t)

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "TEAM",
		StartDate:  date(2026, 1, 1),
		Seats:      2,
	})
	require.NoError(t, err)

	// TEAM: 10.00 base + 5.00/seat. 2 seats = 20.00, 4 seats = 30.00;
	// half the period remains.
	inv, err := svc.ChangeSeats(context.Background(), sub.ID, 4, date(2026, 1, 16))
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, "5.00 EUR", inv.Total().String())

	updated, err := svc.GetSubscription(sub.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, updated.Seats)
}

func TestChangeSeatsSameCountStillNoInvoiceAtEnd(t *testing.T) {
	svc, _ := newTestService(t)

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "TEAM",
		StartDate:  date(2026, 1, 1),
		Seats:      2,
	})
	require.NoError(t, err)

	inv, err := svc.ChangeSeats(context.Background(), sub.ID, 3, sub.CurrentPeriodEnd)
	require.NoError(t, err)
	assert.Nil(t, inv)
}

func TestApplyPromoSingleUse(t *testing.T) {
	svc, _ := newTestService(t)

	pct := 10
	require.NoError(t, svc.AddPromo(promo.PromoCode{
		Code:      "WELCOME10",
		Kind:      promo.KindPercent,
		Percent:   &pct,
		SingleUse: true,
	}))

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)

	applied, err := svc.ApplyPromo(context.Background(), sub.ID, "WELCOME10", date(2026, 1, 2))
	require.NoError(t, err)
	assert.Equal(t, "WELCOME10", applied.PromoCode)

	// Same customer again, even on a fresh subscription.
	other, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "TEAM",
		StartDate:  date(2026, 1, 1),
		Seats:      2,
	})
	require.NoError(t, err)

	_, err = svc.ApplyPromo(context.Background(), other.ID, "WELCOME10", date(2026, 1, 3))
	assert.True(t, errs.IsPromoNotValid(err))

	// A different customer is unaffected.
	theirs, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_2",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)
	_, err = svc.ApplyPromo(context.Background(), theirs.ID, "WELCOME10", date(2026, 1, 3))
	assert.NoError(t, err)
}

func TestApplyPromoExpired(t *testing.T) {
	svc, _ := newTestService(t)

	pct := 25
	until := date(2026, 1, 10)
	require.NoError(t, svc.AddPromo(promo.PromoCode{
		Code:       "JAN25",
		Kind:       promo.KindPercent,
		Percent:    &pct,
		ValidUntil: &until,
	}))

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)

	_, err = svc.ApplyPromo(context.Background(), sub.ID, "JAN25", date(2026, 1, 11))
	assert.True(t, errs.IsPromoNotValid(err))

	updated, err := svc.GetSubscription(sub.ID)
	require.NoError(t, err)
	assert.Empty(t, updated.PromoCode)
}

func TestApplyPromoUnknownCode(t *testing.T) {
	svc, _ := newTestService(t)

	sub, _, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)

	_, err = svc.ApplyPromo(context.Background(), sub.ID, "NOPE", date(2026, 1, 2))
	assert.True(t, errs.IsNotFound(err))
}

func TestInvoiceLifecycle(t *testing.T) {
	svc, trail := newTestService(t)

	_, inv, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)
	require.NotNil(t, inv)

	// Paying a draft invoice is rejected.
	_, err = svc.PayInvoice(context.Background(), inv.ID)
	assert.True(t, errs.IsInvalidTransition(err))

	issued, err := svc.IssueInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusIssued, issued.Status)

	paid, err := svc.PayInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, paid.Status)

	_, err = svc.IssueInvoice(context.Background(), inv.ID)
	assert.True(t, errs.IsInvalidTransition(err))

	var ops []audit.Operation
	for _, e := range trail.Entries() {
		ops = append(ops, e.Operation)
	}
	assert.Contains(t, ops, audit.OpInvoiceIssue)
	assert.Contains(t, ops, audit.OpInvoicePay)
}

type recordingArchiver struct {
	archived []string
	err      error
}

func (r *recordingArchiver) Archive(_ context.Context, inv *invoice.Invoice) error {
	r.archived = append(r.archived, inv.ID)
	return r.err
}

func TestPayInvoiceArchives(t *testing.T) {
	stores := storage.NewMemoryStores()
	for _, p := range plan.Defaults() {
		require.NoError(t, stores.Plans.Add(p))
	}
	arch := &recordingArchiver{}
	svc := NewService(stores, WithLogger(quietLogger()), WithArchiver(arch))

	_, inv, err := svc.CreateSubscription(context.Background(), CreateSubscriptionParams{
		CustomerID: "cust_1",
		PlanCode:   "PRO",
		StartDate:  date(2026, 1, 1),
	})
	require.NoError(t, err)
	_, err = svc.IssueInvoice(context.Background(), inv.ID)
	require.NoError(t, err)

	// Archive failures must not fail the payment.
	arch.err = errors.New("bucket unreachable")
	paid, err := svc.PayInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.StatusPaid, paid.Status)
	assert.Equal(t, []string{inv.ID}, arch.archived)
}

func TestListPlansCatalogOrder(t *testing.T) {
	svc, _ := newTestService(t)

	plans, err := svc.ListPlans()
	require.NoError(t, err)
	require.Len(t, plans, 3)
	assert.Equal(t, "FREE", plans[0].Code())
	assert.Equal(t, "PRO", plans[1].Code())
	assert.Equal(t, "TEAM", plans[2].Code())

	extra, err := plan.NewFlat("BIZ", "Business", "EUR", money.MustFromString("49.00", "EUR"))
	require.NoError(t, err)
	require.NoError(t, svc.AddPlan(extra))

	got, err := svc.GetPlan("BIZ")
	require.NoError(t, err)
	assert.Equal(t, "Business", got.Name())
}
