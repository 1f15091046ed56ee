package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
)

func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request) {
	from, to, filtered, err := dateRange(r, "startDate", "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}

	expenses, err := s.store.ListExpenses(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if filtered {
		kept := make([]core.Expense, 0, len(expenses))
		for _, e := range expenses {
			if core.InDateRange(e.Date, from, to) {
				kept = append(kept, e)
			}
		}
		expenses = kept
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	var e core.Expense
	if err := decodeBody(r, &e); err != nil {
		writeError(w, r, err)
		return
	}
	e.ID = ""
	e.SourceEntryID = ""
	if err := e.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.AppendExpense(r.Context(), e)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request) {
	var patch core.ExpensePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.PaymentType != nil && !patch.PaymentType.IsValid() {
		writeError(w, r, &core.ValidationError{Field: "paymentType", Reason: "must be one of cash, debit, credit"})
		return
	}
	if patch.Date != nil {
		if _, err := core.ParseDate(*patch.Date); err != nil {
			writeError(w, r, &core.ValidationError{Field: "date", Reason: "invalid date format"})
			return
		}
	}

	updated, err := s.store.ReplaceExpense(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.RemoveExpense(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, removed)
}
