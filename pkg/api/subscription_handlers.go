package api

import (
	"net/http"
	"time"

	"github.com/cadencehq/cadence/pkg/billing"
	"github.com/cadencehq/cadence/pkg/httputil"
)

// createSubscription handles POST /subscriptions
func (s *Server) createSubscription(w http.ResponseWriter, r *http.Request) {
	var req SubscriptionCreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	start := time.Now()
	sub, inv, err := s.svc.CreateSubscription(r.Context(), billing.CreateSubscriptionParams{
		CustomerID: req.CustomerID,
		PlanCode:   req.PlanCode,
		StartDate:  req.StartDate.Time,
		Seats:      req.Seats,
		TrialDays:  req.TrialDays,
		PeriodDays: req.PeriodDays,
	})
	s.observe("create_subscription", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	httputil.WriteCreated(w, CreateSubscriptionResponse{
		Subscription: toSubscriptionResponse(sub, s.now()),
		InvoiceID:    optionalInvoiceID(inv),
	})
}

// getSubscription handles GET /subscriptions/{id}. An optional today query
// parameter sets the date the derived fields are computed against.
func (s *Server) getSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	today := s.now()
	if raw := httputil.ParseQueryString(r, "today", ""); raw != "" {
		parsed, err := time.Parse(dateLayout, raw)
		if err != nil {
			httputil.WriteBadRequest(w, "today must be in "+dateLayout+" format")
			return
		}
		today = parsed
	}

	sub, err := s.svc.GetSubscription(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, toSubscriptionResponse(sub, today))
}

// cancelSubscription handles POST /subscriptions/{id}/cancel
func (s *Server) cancelSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	sub, err := s.svc.CancelSubscription(r.Context(), id)
	s.observe("cancel_subscription", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, toSubscriptionResponse(sub, s.now()))
}

// upgradeSubscription handles POST /subscriptions/{id}/upgrade
func (s *Server) upgradeSubscription(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req UpgradeRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	start := time.Now()
	inv, err := s.svc.UpgradeSubscription(r.Context(), id, req.NewPlanCode, req.ChangeDate.Time)
	s.observe("upgrade_subscription", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, InvoiceIDResponse{InvoiceID: optionalInvoiceID(inv)})
}

// changeSeats handles POST /subscriptions/{id}/change-seats
func (s *Server) changeSeats(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req ChangeSeatsRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	start := time.Now()
	inv, err := s.svc.ChangeSeats(r.Context(), id, req.NewSeats, req.ChangeDate.Time)
	s.observe("change_seats", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, InvoiceIDResponse{InvoiceID: optionalInvoiceID(inv)})
}

// applyPromo handles POST /subscriptions/{id}/apply-promo
func (s *Server) applyPromo(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}
	var req ApplyPromoRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	today := s.now()
	if req.Today != nil {
		today = req.Today.Time
	}

	start := time.Now()
	sub, err := s.svc.ApplyPromo(r.Context(), id, req.PromoCode, today)
	s.observe("apply_promo", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, toSubscriptionResponse(sub, s.now()))
}
