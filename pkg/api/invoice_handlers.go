package api

import (
	"net/http"
	"time"

	"github.com/cadencehq/cadence/pkg/httputil"
)

// getInvoice handles GET /invoices/{id}
func (s *Server) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	inv, err := s.svc.GetInvoice(id)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inv)
}

// issueInvoice handles POST /invoices/{id}/issue
func (s *Server) issueInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	inv, err := s.svc.IssueInvoice(r.Context(), id)
	s.observe("issue_invoice", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	if s.metrics != nil {
		total := inv.Total()
		s.metrics.InvoiceTotalAmount.WithLabelValues(total.Currency()).
			Observe(total.Amount().InexactFloat64())
	}
	httputil.WriteSuccess(w, inv)
}

// payInvoice handles POST /invoices/{id}/pay
func (s *Server) payInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParsePathStringOrError(w, r, "id")
	if !ok {
		return
	}

	start := time.Now()
	inv, err := s.svc.PayInvoice(r.Context(), id)
	s.observe("pay_invoice", start, err)
	if err != nil {
		httputil.WriteDomainError(w, err)
		return
	}
	httputil.WriteSuccess(w, inv)
}
