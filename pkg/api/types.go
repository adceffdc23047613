package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/cadencehq/cadence/pkg/invoice"
	"github.com/cadencehq/cadence/pkg/money"
	"github.com/cadencehq/cadence/pkg/subscription"
)

// Date is a calendar date that travels as "2006-01-02" on the wire.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// NewDate creates a Date at midnight UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as "2006-01-02".
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Format(dateLayout) + `"`), nil
}

// UnmarshalJSON parses "2006-01-02".
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		return fmt.Errorf("date must be in %s format", dateLayout)
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("date must be in %s format: %v", dateLayout, err)
	}
	d.Time = t
	return nil
}

// PlanCreateRequest is the structured plan config accepted by POST /plans.
type PlanCreateRequest struct {
	Type         string `json:"type"`
	Code         string `json:"code"`
	Name         string `json:"name"`
	Currency     string `json:"currency"`
	MonthlyPrice string `json:"monthly_price,omitempty"`
	Base         string `json:"base,omitempty"`
	PerSeat      string `json:"per_seat,omitempty"`
}

// PlanResponse describes one catalog plan. MonthlyPrice is quoted at a
// single seat unless the request asked for a specific seat count.
type PlanResponse struct {
	Code          string      `json:"code"`
	Name          string      `json:"name"`
	Currency      string      `json:"currency"`
	MonthlyPrice  money.Money `json:"monthly_price"`
	RequiresSeats bool        `json:"requires_seats"`
}

// SubscriptionCreateRequest is the body of POST /subscriptions.
type SubscriptionCreateRequest struct {
	CustomerID string `json:"customer_id"`
	PlanCode   string `json:"plan_code"`
	StartDate  Date   `json:"start_date"`
	Seats      int    `json:"seats,omitempty"`
	TrialDays  int    `json:"trial_days,omitempty"`
	PeriodDays int    `json:"period_days,omitempty"`
}

// SubscriptionResponse describes a subscription, with the derived
// is_active and days_left_in_period fields computed against today.
type SubscriptionResponse struct {
	ID                 string    `json:"id"`
	CreatedAt          time.Time `json:"created_at"`
	CustomerID         string    `json:"customer_id"`
	PlanCode           string    `json:"plan_code"`
	Status             string    `json:"status"`
	StartDate          Date      `json:"start_date"`
	CurrentPeriodStart Date      `json:"current_period_start"`
	CurrentPeriodEnd   Date      `json:"current_period_end"`
	Seats              int       `json:"seats"`
	PromoCode          *string   `json:"promo_code"`
	IsActive           bool      `json:"is_active"`
	DaysLeftInPeriod   int       `json:"days_left_in_period"`
}

// CreateSubscriptionResponse carries the new subscription and the id of
// the first invoice, when one was generated.
type CreateSubscriptionResponse struct {
	Subscription SubscriptionResponse `json:"subscription"`
	InvoiceID    *string              `json:"invoice_id"`
}

// UpgradeRequest is the body of POST /subscriptions/{id}/upgrade.
type UpgradeRequest struct {
	NewPlanCode string `json:"new_plan_code"`
	ChangeDate  Date   `json:"change_date"`
}

// ChangeSeatsRequest is the body of POST /subscriptions/{id}/change-seats.
type ChangeSeatsRequest struct {
	NewSeats   int  `json:"new_seats"`
	ChangeDate Date `json:"change_date"`
}

// ApplyPromoRequest is the body of POST /subscriptions/{id}/apply-promo.
// Today overrides the business date; it defaults to the current UTC date.
type ApplyPromoRequest struct {
	PromoCode string `json:"promo_code"`
	Today     *Date  `json:"today,omitempty"`
}

// InvoiceIDResponse carries the proration invoice id, null when the change
// produced no invoice.
type InvoiceIDResponse struct {
	InvoiceID *string `json:"invoice_id"`
}

// PromoCreateRequest is the body of POST /promos.
type PromoCreateRequest struct {
	Code        string `json:"code"`
	Kind        string `json:"kind"`
	Percent     *int   `json:"percent,omitempty"`
	FixedAmount string `json:"fixed_amount,omitempty"`
	Currency    string `json:"currency,omitempty"`
	ValidUntil  *Date  `json:"valid_until,omitempty"`
	SingleUse   bool   `json:"is_single_use,omitempty"`
}

// PromoCreateResponse acknowledges promo registration.
type PromoCreateResponse struct {
	Status string `json:"status"`
	Code   string `json:"code"`
}

func toSubscriptionResponse(sub *subscription.Subscription, today time.Time) SubscriptionResponse {
	var promoCode *string
	if sub.PromoCode != "" {
		code := sub.PromoCode
		promoCode = &code
	}
	return SubscriptionResponse{
		ID:                 sub.ID,
		CreatedAt:          sub.CreatedAt,
		CustomerID:         sub.CustomerID,
		PlanCode:           sub.PlanCode,
		Status:             string(sub.Status),
		StartDate:          Date{sub.StartDate},
		CurrentPeriodStart: Date{sub.CurrentPeriodStart},
		CurrentPeriodEnd:   Date{sub.CurrentPeriodEnd},
		Seats:              sub.Seats,
		PromoCode:          promoCode,
		IsActive:           sub.IsActive(),
		DaysLeftInPeriod:   sub.DaysLeftInPeriod(today),
	}
}

func optionalInvoiceID(inv *invoice.Invoice) *string {
	if inv == nil {
		return nil
	}
	id := inv.ID
	return &id
}
