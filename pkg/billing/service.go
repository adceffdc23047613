package billing

import (
	"context"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/cadencehq/cadence/pkg/audit"
	"github.com/cadencehq/cadence/pkg/invoice"
	"github.com/cadencehq/cadence/pkg/plan"
	"github.com/cadencehq/cadence/pkg/promo"
	"github.com/cadencehq/cadence/pkg/proration"
	"github.com/cadencehq/cadence/pkg/storage"
	"github.com/cadencehq/cadence/pkg/subscription"
)

// Service coordinates the domain aggregates across the stores. It is safe
// for concurrent use as long as its stores are.
type Service struct {
	stores   storage.Stores
	log      logrus.FieldLogger
	audit    audit.Logger
	archiver InvoiceArchiver
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the operation logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *Service) { s.log = log }
}

// WithAudit sets the audit trail destination.
func WithAudit(a audit.Logger) Option {
	return func(s *Service) { s.audit = a }
}

// WithArchiver sets the archive destination for paid invoices.
func WithArchiver(a InvoiceArchiver) Option {
	return func(s *Service) { s.archiver = a }
}

// NewService creates a billing service over the given stores.
func NewService(stores storage.Stores, opts ...Option) *Service {
	s := &Service{
		stores: stores,
		log:    logrus.StandardLogger(),
		audit:  audit.Nop{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// span logs the begin/commit/rollback of one logical operation. The
// returned func must be called with the operation's final error.
func (s *Service) span(op string, fields logrus.Fields) func(error) {
	log := s.log.WithField("op", op).WithFields(fields)
	log.Debug("operation begin")
	return func(err error) {
		if err != nil {
			log.WithError(err).Warn("operation rollback")
			return
		}
		log.Info("operation commit")
	}
}

func (s *Service) recordAudit(ctx context.Context, entry audit.Entry) {
	entry.At = time.Now().UTC()
	if err := s.audit.Log(ctx, entry); err != nil {
		s.log.WithError(err).Warn("audit log failed")
	}
}

// CreateSubscription creates a subscription on the given plan and, when the
// first period is billable, a draft invoice carrying the first charge.
// Trialing subscriptions and zero-price periods produce no invoice.
func (s *Service) CreateSubscription(ctx context.Context, params CreateSubscriptionParams) (sub *subscription.Subscription, inv *invoice.Invoice, err error) {
	done := s.span("create_subscription", logrus.Fields{
		"customer_id": params.CustomerID,
		"plan_code":   params.PlanCode,
	})
	defer func() { done(err) }()

	p, err := s.stores.Plans.Get(params.PlanCode)
	if err != nil {
		return nil, nil, err
	}

	sub, err = subscription.New(subscription.CreateParams{
		CustomerID: params.CustomerID,
		PlanCode:   p.Code(),
		StartDate:  params.StartDate,
		PeriodDays: params.PeriodDays,
		TrialDays:  params.TrialDays,
		Seats:      params.Seats,
	})
	if err != nil {
		return nil, nil, err
	}
	if err = s.stores.Subscriptions.Save(sub); err != nil {
		return nil, nil, err
	}

	if sub.Status != subscription.StatusTrialing {
		monthly, perr := p.MonthlyPriceFor(sub.Seats)
		if perr != nil {
			return nil, nil, perr
		}
		if !monthly.IsZero() {
			inv, err = invoice.New(sub.CustomerID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, monthly.Currency())
			if err != nil {
				return nil, nil, err
			}
			if err = inv.AddLineItem(invoice.LineItem{Description: subscriptionChargeDescription, Amount: monthly}); err != nil {
				return nil, nil, err
			}
			if err = s.stores.Invoices.Save(inv); err != nil {
				return nil, nil, err
			}
		}
	}

	detail := map[string]string{"plan_code": sub.PlanCode, "seats": strconv.Itoa(sub.Seats)}
	if inv != nil {
		detail["invoice_id"] = inv.ID
	}
	s.recordAudit(ctx, audit.Entry{
		Operation:  audit.OpSubscriptionCreate,
		EntityKind: "subscription",
		EntityID:   sub.ID,
		CustomerID: sub.CustomerID,
		Detail:     detail,
	})
	return sub, inv, nil
}

// CancelSubscription moves a subscription into its terminal state.
func (s *Service) CancelSubscription(ctx context.Context, subID string) (sub *subscription.Subscription, err error) {
	done := s.span("cancel_subscription", logrus.Fields{"subscription_id": subID})
	defer func() { done(err) }()

	sub, err = s.stores.Subscriptions.Get(subID)
	if err != nil {
		return nil, err
	}
	if err = sub.Cancel(); err != nil {
		return nil, err
	}
	if err = s.stores.Subscriptions.Save(sub); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.Entry{
		Operation:  audit.OpSubscriptionCancel,
		EntityKind: "subscription",
		EntityID:   sub.ID,
		CustomerID: sub.CustomerID,
	})
	return sub, nil
}

// UpgradeSubscription swaps the subscription onto a new plan as of
// changeDate and returns the proration invoice, or nil when the change
// produces no line items. Both prices are taken at the current seat count.
func (s *Service) UpgradeSubscription(ctx context.Context, subID, newPlanCode string, changeDate time.Time) (inv *invoice.Invoice, err error) {
	done := s.span("upgrade_subscription", logrus.Fields{
		"subscription_id": subID,
		"new_plan_code":   newPlanCode,
	})
	defer func() { done(err) }()

	sub, err := s.stores.Subscriptions.Get(subID)
	if err != nil {
		return nil, err
	}
	oldPlan, err := s.stores.Plans.Get(sub.PlanCode)
	if err != nil {
		return nil, err
	}
	newPlan, err := s.stores.Plans.Get(newPlanCode)
	if err != nil {
		return nil, err
	}

	oldMonthly, err := oldPlan.MonthlyPriceFor(sub.Seats)
	if err != nil {
		return nil, err
	}
	newMonthly, err := newPlan.MonthlyPriceFor(sub.Seats)
	if err != nil {
		return nil, err
	}

	items, err := proration.LineItems(oldMonthly, newMonthly, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, changeDate)
	if err != nil {
		return nil, err
	}

	oldCode, err := sub.ChangePlan(newPlan.Code())
	if err != nil {
		return nil, err
	}
	if err = s.stores.Subscriptions.Save(sub); err != nil {
		return nil, err
	}

	if len(items) > 0 {
		inv, err = invoice.New(sub.CustomerID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, oldMonthly.Currency())
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if err = inv.AddLineItem(item); err != nil {
				return nil, err
			}
		}
		if err = s.stores.Invoices.Save(inv); err != nil {
			return nil, err
		}
	}

	detail := map[string]string{"old_plan_code": oldCode, "new_plan_code": sub.PlanCode}
	if inv != nil {
		detail["invoice_id"] = inv.ID
	}
	s.recordAudit(ctx, audit.Entry{
		Operation:  audit.OpSubscriptionUpgrade,
		EntityKind: "subscription",
		EntityID:   sub.ID,
		CustomerID: sub.CustomerID,
		Detail:     detail,
	})
	return inv, nil
}

// ChangeSeats updates the seat count as of changeDate and returns the
// proration invoice, or nil when the change produces no line items.
func (s *Service) ChangeSeats(ctx context.Context, subID string, newSeats int, changeDate time.Time) (inv *invoice.Invoice, err error) {
	done := s.span("change_seats", logrus.Fields{
		"subscription_id": subID,
		"new_seats":       newSeats,
	})
	defer func() { done(err) }()

	sub, err := s.stores.Subscriptions.Get(subID)
	if err != nil {
		return nil, err
	}
	p, err := s.stores.Plans.Get(sub.PlanCode)
	if err != nil {
		return nil, err
	}

	oldMonthly, err := p.MonthlyPriceFor(sub.Seats)
	if err != nil {
		return nil, err
	}

	oldSeats, err := sub.ChangeSeats(newSeats)
	if err != nil {
		return nil, err
	}
	if err = s.stores.Subscriptions.Save(sub); err != nil {
		return nil, err
	}

	newMonthly, err := p.MonthlyPriceFor(sub.Seats)
	if err != nil {
		return nil, err
	}

	items, err := proration.LineItems(oldMonthly, newMonthly, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, changeDate)
	if err != nil {
		return nil, err
	}
	if len(items) > 0 {
		inv, err = invoice.New(sub.CustomerID, sub.CurrentPeriodStart, sub.CurrentPeriodEnd, oldMonthly.Currency())
		if err != nil {
			return nil, err
		}
		for _, item := range items {
			if err = inv.AddLineItem(item); err != nil {
				return nil, err
			}
		}
		if err = s.stores.Invoices.Save(inv); err != nil {
			return nil, err
		}
	}

	detail := map[string]string{
		"old_seats": strconv.Itoa(oldSeats),
		"new_seats": strconv.Itoa(sub.Seats),
	}
	if inv != nil {
		detail["invoice_id"] = inv.ID
	}
	s.recordAudit(ctx, audit.Entry{
		Operation:  audit.OpSeatsChange,
		EntityKind: "subscription",
		EntityID:   sub.ID,
		CustomerID: sub.CustomerID,
		Detail:     detail,
	})
	return inv, nil
}

// ApplyPromo validates a promo code against the subscription's customer as
// of today and attaches it. Single-use codes are marked consumed for that
// customer on success.
func (s *Service) ApplyPromo(ctx context.Context, subID, promoCode string, today time.Time) (sub *subscription.Subscription, err error) {
	done := s.span("apply_promo", logrus.Fields{
		"subscription_id": subID,
		"promo_code":      promoCode,
	})
	defer func() { done(err) }()

	sub, err = s.stores.Subscriptions.Get(subID)
	if err != nil {
		return nil, err
	}
	code, err := s.stores.Promos.Get(promoCode)
	if err != nil {
		return nil, err
	}

	used, err := s.stores.PromoUsage.IsUsed(code.Code, sub.CustomerID)
	if err != nil {
		return nil, err
	}
	if err = code.ValidateFor(today, sub.CustomerID, used); err != nil {
		return nil, err
	}

	if err = sub.ApplyPromo(code.Code); err != nil {
		return nil, err
	}
	if err = s.stores.Subscriptions.Save(sub); err != nil {
		return nil, err
	}
	if code.SingleUse {
		if err = s.stores.PromoUsage.MarkUsed(code.Code, sub.CustomerID); err != nil {
			return nil, err
		}
	}

	s.recordAudit(ctx, audit.Entry{
		Operation:  audit.OpPromoApply,
		EntityKind: "subscription",
		EntityID:   sub.ID,
		CustomerID: sub.CustomerID,
		Detail:     map[string]string{"promo_code": code.Code},
	})
	return sub, nil
}

// IssueInvoice moves a draft invoice to issued.
func (s *Service) IssueInvoice(ctx context.Context, invoiceID string) (inv *invoice.Invoice, err error) {
	done := s.span("issue_invoice", logrus.Fields{"invoice_id": invoiceID})
	defer func() { done(err) }()

	inv, err = s.stores.Invoices.Get(invoiceID)
	if err != nil {
		return nil, err
	}
	if err = inv.Issue(); err != nil {
		return nil, err
	}
	if err = s.stores.Invoices.Save(inv); err != nil {
		return nil, err
	}

	s.recordAudit(ctx, audit.Entry{
		Operation:  audit.OpInvoiceIssue,
		EntityKind: "invoice",
		EntityID:   inv.ID,
		CustomerID: inv.CustomerID,
		Detail:     map[string]string{"total": inv.Total().String()},
	})
	return inv, nil
}

// PayInvoice moves an issued invoice to paid and hands it to the archiver
// when one is configured.
func (s *Service) PayInvoice(ctx context.Context, invoiceID string) (inv *invoice.Invoice, err error) {
	done := s.span("pay_invoice", logrus.Fields{"invoice_id": invoiceID})
	defer func() { done(err) }()

	inv, err = s.stores.Invoices.Get(invoiceID)
	if err != nil {
		return nil, err
	}
	if err = inv.Pay(); err != nil {
		return nil, err
	}
	if err = s.stores.Invoices.Save(inv); err != nil {
		return nil, err
	}

	if s.archiver != nil {
		if aerr := s.archiver.Archive(ctx, inv); aerr != nil {
			s.log.WithError(aerr).WithField("invoice_id", inv.ID).Warn("invoice archive failed")
		}
	}

	s.recordAudit(ctx, audit.Entry{
		Operation:  audit.OpInvoicePay,
		EntityKind: "invoice",
		EntityID:   inv.ID,
		CustomerID: inv.CustomerID,
		Detail:     map[string]string{"total": inv.Total().String()},
	})
	return inv, nil
}

// GetSubscription returns a subscription by id.
func (s *Service) GetSubscription(subID string) (*subscription.Subscription, error) {
	return s.stores.Subscriptions.Get(subID)
}

// GetInvoice returns an invoice by id.
func (s *Service) GetInvoice(invoiceID string) (*invoice.Invoice, error) {
	return s.stores.Invoices.Get(invoiceID)
}

// GetPlan returns a plan by code.
func (s *Service) GetPlan(code string) (plan.Plan, error) {
	return s.stores.Plans.Get(code)
}

// ListPlans returns the catalog in insertion order.
func (s *Service) ListPlans() ([]plan.Plan, error) {
	return s.stores.Plans.List()
}

// AddPlan adds a plan to the catalog.
func (s *Service) AddPlan(p plan.Plan) error {
	return s.stores.Plans.Add(p)
}

// AddPromo registers a promo code.
func (s *Service) AddPromo(p promo.PromoCode) error {
	return s.stores.Promos.Add(p)
}
