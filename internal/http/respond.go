package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"finanzas/internal/core"
	"finanzas/internal/log"
)

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}

// writeError maps domain errors onto HTTP status codes. Validation problems
// keep their message; everything unexpected collapses to a generic 500 so
// storage details never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, core.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "record not found"})
	case errors.Is(err, core.ErrPartialLinkage):
		log.FromContext(r.Context()).ErrorContext(r.Context(), "partial credit linkage", log.FieldError, err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "credit entry stored without its linked expense"})
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "request failed", log.FieldError, err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error"})
	}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return &core.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}
