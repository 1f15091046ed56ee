package http

import (
	"net/http"
	"time"

	"finanzas/internal/core"
)

// dateRange reads an optional date window from the query string. filtered is
// false when neither bound is present.
func dateRange(r *http.Request, fromKey, toKey string) (from, to time.Time, filtered bool, err error) {
	query := r.URL.Query()

	if raw := query.Get(fromKey); raw != "" {
		from, err = core.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, false, &core.ValidationError{Field: fromKey, Reason: "invalid date format"}
		}
		filtered = true
	}
	if raw := query.Get(toKey); raw != "" {
		to, err = core.ParseDate(raw)
		if err != nil {
			return time.Time{}, time.Time{}, false, &core.ValidationError{Field: toKey, Reason: "invalid date format"}
		}
		filtered = true
	}
	return from, to, filtered, nil
}
