package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
)

func (s *Server) handleListIncomes(w http.ResponseWriter, r *http.Request) {
	from, to, filtered, err := dateRange(r, "startDate", "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}

	incomes, err := s.store.ListIncomes(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if filtered {
		kept := make([]core.Income, 0, len(incomes))
		for _, in := range incomes {
			if core.InDateRange(in.Date, from, to) {
				kept = append(kept, in)
			}
		}
		incomes = kept
	}
	writeJSON(w, http.StatusOK, incomes)
}

func (s *Server) handleCreateIncome(w http.ResponseWriter, r *http.Request) {
	var in core.Income
	if err := decodeBody(r, &in); err != nil {
		writeError(w, r, err)
		return
	}
	in.ID = ""
	if err := in.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.AppendIncome(r.Context(), in)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateIncome(w http.ResponseWriter, r *http.Request) {
	var patch core.IncomePatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Source != nil {
		switch core.IncomeSource(*patch.Source) {
		case core.SourceSalary, core.SourceOther:
		default:
			writeError(w, r, &core.ValidationError{Field: "source", Reason: `must be either "Sueldo" or "Otros"`})
			return
		}
	}
	if patch.Date != nil {
		if _, err := core.ParseDate(*patch.Date); err != nil {
			writeError(w, r, &core.ValidationError{Field: "date", Reason: "invalid date format"})
			return
		}
	}

	updated, err := s.store.ReplaceIncome(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteIncome(w http.ResponseWriter, r *http.Request) {
	removed, err := s.store.RemoveIncome(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, err)
		return
	}
	s.invalidateSummaries()
	writeJSON(w, http.StatusOK, removed)
}
