package http

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
	"finanzas/internal/services"
)

func (s *Server) handleListCreditEntries(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.ListCreditEntries(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

type creditPaymentRequest struct {
	PaymentDate          string   `json:"paymentDate"`
	PendingAmountPesos   *float64 `json:"pendingAmountPesos"`
	PendingAmountDollars *float64 `json:"pendingAmountDollars"`
	PayedAmountPesos     *float64 `json:"payedAmountPesos"`
	PayedAmountDollars   *float64 `json:"payedAmountDollars"`
	Observations         string   `json:"observations"`
}

func (s *Server) handleCreateCreditEntry(w http.ResponseWriter, r *http.Request) {
	var req creditPaymentRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, r, err)
		return
	}

	entry, err := s.creditSvc.RecordPayment(r.Context(), services.CreditPaymentInput{
		PaymentDate:          req.PaymentDate,
		PendingAmountPesos:   req.PendingAmountPesos,
		PendingAmountDollars: req.PendingAmountDollars,
		PayedAmountPesos:     req.PayedAmountPesos,
		PayedAmountDollars:   req.PayedAmountDollars,
		Observations:         req.Observations,
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, entry)
}

// handleUpdateCreditEntry patches the entry only; the expense created at
// record time is left alone.
func (s *Server) handleUpdateCreditEntry(w http.ResponseWriter, r *http.Request) {
	var patch core.CreditCardEntryPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.PaymentDate != nil {
		if _, err := core.ParseDate(*patch.PaymentDate); err != nil {
			writeError(w, r, &core.ValidationError{Field: "paymentDate", Reason: "invalid date format"})
			return
		}
	}

	updated, err := s.store.ReplaceCreditEntry(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteCreditEntry(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.RemoveCreditEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, removed)
}

func (s *Server) handleCreditSummary(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("fromDate")
	to := r.URL.Query().Get("toDate")

	key := "credit:" + from + ":" + to
	if cached, ok := s.creditCache.Get(key); ok {
		summaryCacheHits.Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	summaryCacheMisses.Inc()

	// Collapsed callers share the flight result, so the lookup must not be
	// canceled along with the first caller's request context.
	ctx := context.WithoutCancel(r.Context())
	result, err, _ := s.flight.Do(key, func() (any, error) {
		summary, err := s.creditSvc.MonthlySummary(ctx, from, to)
		if err != nil {
			return nil, err
		}
		s.creditCache.Set(key, summary)
		return summary, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.(core.CreditMonthlySummary))
}
