// Package subscription implements the subscription lifecycle state machine.
//
// A subscription starts TRIALING (when created with trial days) or ACTIVE,
// and ends CANCELED. CANCELED is terminal: no plan, seat, or promo mutation
// is permitted afterwards. Period dates are fixed at creation; plan and
// seat changes never recompute them — only the proration engine reacts to
// such changes within the current period.
package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/pkg/errs"
)

// Status is the lifecycle state of a subscription.
type Status string

const (
	StatusTrialing Status = "trialing"
	StatusActive   Status = "active"
	StatusCanceled Status = "canceled"
)

// Subscription is a mutable aggregate owned by the subscription store.
// ID and CreatedAt are fixed at creation.
type Subscription struct {
	ID         string    `json:"id"`
	CreatedAt  time.Time `json:"created_at"`
	CustomerID string    `json:"customer_id"`
	PlanCode   string    `json:"plan_code"`
	Status     Status    `json:"status"`

	StartDate          time.Time `json:"start_date"`
	CurrentPeriodStart time.Time `json:"current_period_start"`
	CurrentPeriodEnd   time.Time `json:"current_period_end"`

	Seats     int    `json:"seats"`
	PromoCode string `json:"promo_code,omitempty"`
}

// CreateParams are the inputs to New.
type CreateParams struct {
	CustomerID string
	PlanCode   string
	StartDate  time.Time
	PeriodDays int // defaults to 30
	TrialDays  int
	Seats      int // defaults to 1
}

// New creates a subscription. The first period runs from the start date for
// the trial length when trialing, otherwise for the regular period length.
func New(p CreateParams) (*Subscription, error) {
	if p.PeriodDays == 0 {
		p.PeriodDays = 30
	}
	if p.Seats == 0 {
		p.Seats = 1
	}

	if p.CustomerID == "" {
		return nil, errs.Validationf("customer_id must be non-empty")
	}
	if p.PlanCode == "" {
		return nil, errs.Validationf("plan_code must be non-empty")
	}
	if p.StartDate.IsZero() {
		return nil, errs.Validationf("start_date is required")
	}
	if p.PeriodDays < 1 {
		return nil, errs.Validationf("period_days must be >= 1")
	}
	if p.TrialDays < 0 {
		return nil, errs.Validationf("trial_days must be >= 0")
	}
	if p.Seats < 1 {
		return nil, errs.Validationf("seats must be >= 1")
	}

	status := StatusActive
	periodDays := p.PeriodDays
	if p.TrialDays > 0 {
		status = StatusTrialing
		periodDays = p.TrialDays
	}

	return &Subscription{
		ID:                 uuid.NewString(),
		CreatedAt:          time.Now().UTC(),
		CustomerID:         p.CustomerID,
		PlanCode:           p.PlanCode,
		Status:             status,
		StartDate:          p.StartDate,
		CurrentPeriodStart: p.StartDate,
		CurrentPeriodEnd:   p.StartDate.AddDate(0, 0, periodDays),
		Seats:              p.Seats,
	}, nil
}

// IsActive reports whether the subscription is billable (trialing counts).
func (s *Subscription) IsActive() bool {
	return s.Status == StatusTrialing || s.Status == StatusActive
}

// FullPeriodDays is the length of the current billing period in days.
func (s *Subscription) FullPeriodDays() int {
	return daysBetween(s.CurrentPeriodStart, s.CurrentPeriodEnd)
}

// DaysLeftInPeriod returns the days remaining until the period end,
// floored at zero.
func (s *Subscription) DaysLeftInPeriod(today time.Time) int {
	left := daysBetween(today, s.CurrentPeriodEnd)
	if left < 0 {
		return 0
	}
	return left
}

// Cancel moves the subscription into its terminal state. Canceling twice
// fails.
func (s *Subscription) Cancel() error {
	if s.Status == StatusCanceled {
		return errs.InvalidTransition("subscription", string(s.Status), "canceled")
	}
	s.Status = StatusCanceled
	return nil
}

// Activate ends a trial. Only valid from TRIALING; it is not idempotent.
func (s *Subscription) Activate() error {
	if s.Status != StatusTrialing {
		return errs.InvalidTransition("subscription", string(s.Status), "active")
	}
	s.Status = StatusActive
	return nil
}

// ChangePlan swaps the plan code in place and returns the previous code.
func (s *Subscription) ChangePlan(newPlanCode string) (string, error) {
	if s.Status == StatusCanceled {
		return "", errs.InvalidTransition("subscription", string(s.Status), "change_plan")
	}
	if newPlanCode == "" {
		return "", errs.Validationf("new_plan_code must be non-empty")
	}
	old := s.PlanCode
	s.PlanCode = newPlanCode
	return old, nil
}

// ChangeSeats updates the seat count in place and returns the previous
// count.
func (s *Subscription) ChangeSeats(newSeats int) (int, error) {
	if s.Status == StatusCanceled {
		return 0, errs.InvalidTransition("subscription", string(s.Status), "change_seats")
	}
	if newSeats < 1 {
		return 0, errs.Validationf("new_seats must be >= 1")
	}
	old := s.Seats
	s.Seats = newSeats
	return old, nil
}

// ApplyPromo attaches a promo code. An empty code clears it.
func (s *Subscription) ApplyPromo(promoCode string) error {
	if s.Status == StatusCanceled {
		return errs.InvalidTransition("subscription", string(s.Status), "apply_promo")
	}
	s.PromoCode = promoCode
	return nil
}

func daysBetween(from, to time.Time) int {
	return int(to.Truncate(24*time.Hour).Sub(from.Truncate(24*time.Hour)) / (24 * time.Hour))
}
