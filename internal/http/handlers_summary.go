package http

import (
	"context"
	"net/http"

	"finanzas/internal/core"
)

// handleSummary aggregates expenses and incomes over [startDate, endDate].
// Both bounds are optional; startDate defaults to the epoch and endDate
// defaults to now.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	from, to, _, err := dateRange(r, "startDate", "endDate")
	if err != nil {
		writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	key := "summary:" + query.Get("startDate") + ":" + query.Get("endDate")
	if cached, ok := s.summaryCache.Get(key); ok {
		summaryCacheHits.Inc()
		writeJSON(w, http.StatusOK, cached)
		return
	}
	summaryCacheMisses.Inc()

	// The flight result is shared with collapsed callers, so it must not
	// die with the first caller's request context.
	ctx := context.WithoutCancel(r.Context())
	result, err, _ := s.flight.Do(key, func() (any, error) {
		expenses, err := s.store.ListExpenses(ctx)
		if err != nil {
			return nil, err
		}
		incomes, err := s.store.ListIncomes(ctx)
		if err != nil {
			return nil, err
		}

		summary := core.Summarize(expenses, incomes, from, to)
		// Open-ended windows depend on "now", keep them out of the cache.
		if query.Get("endDate") != "" {
			s.summaryCache.Set(key, summary)
		}
		return summary, nil
	})
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result.(core.Summary))
}
