package api

import (
	"net/http"

	"github.com/cadencehq/cadence/pkg/httputil"
	"github.com/cadencehq/cadence/pkg/plan"
)

func toPlanResponse(p plan.Plan, seats int) (PlanResponse, error) {
	price, err := p.MonthlyPriceFor(seats)
	if err != nil {
		return PlanResponse{}, err
	}
	return PlanResponse{
		Code:          p.Code(),
		Name:          p.Name(),
		Currency:      p.Currency(),
		MonthlyPrice:  price,
		RequiresSeats: p.RequiresSeats(),
	}, nil
}

// createPlan handles POST /plans
func (s *Server) createPlan(w http.ResponseWriter, r *http.Request) {
	var req PlanCreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	mapping := map[string]any{
		"type":     req.Type,
		"code":     req.Code,
		"name":     req.Name,
		"currency": req.Currency,
	}
	if req.MonthlyPrice != "" {
		mapping["monthly_price"] = req.MonthlyPrice
	}
	if req.Base != "" {
		mapping["base"] = req.Base
	}
	if req.PerSeat != "" {
		mapping["per_seat"] = req.PerSeat
	}

	p, err := plan.FromMapping(mapping)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if err := s.svc.AddPlan(p); err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	resp, err := toPlanResponse(p, 1)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, resp)
}

// listPlans handles GET /plans
func (s *Server) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.svc.ListPlans()
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	out := make([]PlanResponse, 0, len(plans))
	for _, p := range plans {
		// List quotes every plan at a single seat.
		resp, err := toPlanResponse(p, 1)
		if err != nil {
			httputil.WriteDomainError(w, err)
			return
		}
		out = append(out, resp)
	}
	httputil.WriteSuccess(w, out)
}

// getPlan handles GET /plans/{code}. An optional seats query parameter
// quotes per-seat plans at that seat count (default 1).
func (s *Server) getPlan(w http.ResponseWriter, r *http.Request) {
	code, ok := httputil.ParsePathStringOrError(w, r, "code")
	if !ok {
		return
	}
	seats, err := httputil.ParseQueryInt(r, "seats", 1)
	if err != nil {
		httputil.WriteBadRequest(w, err.Error())
		return
	}

	p, err := s.svc.GetPlan(code)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}

	resp, err := toPlanResponse(p, seats)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, resp)
}
