package api

import (
	"net/http"
	"time"

	"github.com/cadencehq/cadence/pkg/errs"
	"github.com/cadencehq/cadence/pkg/httputil"
	"github.com/cadencehq/cadence/pkg/money"
	"github.com/cadencehq/cadence/pkg/promo"
)

// createPromo handles POST /promos
func (s *Server) createPromo(w http.ResponseWriter, r *http.Request) {
	var req PromoCreateRequest
	if !httputil.ParseJSONOrError(w, r, &req) {
		return
	}

	p := promo.PromoCode{
		Code:      req.Code,
		Kind:      promo.Kind(req.Kind),
		SingleUse: req.SingleUse,
	}

	switch p.Kind {
	case promo.KindPercent:
		if req.Percent == nil {
			httputil.WriteDomainError(w, errs.Validationf("percent is required for percent promos"))
			return
		}
		p.Percent = req.Percent
	case promo.KindFixed:
		if req.FixedAmount == "" || req.Currency == "" {
			httputil.WriteDomainError(w, errs.Validationf("fixed_amount and currency are required for fixed promos"))
			return
		}
		amount, err := money.FromString(req.FixedAmount, req.Currency)
		if err != nil {
			httputil.WriteDomainError(w, err)
			return
		}
		p.FixedDiscount = &amount
	default:
		httputil.WriteDomainError(w, errs.Validationf("kind must be %q or %q", promo.KindPercent, promo.KindFixed))
		return
	}

	if req.ValidUntil != nil {
		until := req.ValidUntil.Time
		p.ValidUntil = &until
	}

	start := time.Now()
	err := s.svc.AddPromo(p)
	s.observe("create_promo", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteCreated(w, PromoCreateResponse{Status: "created", Code: p.Code})
}
