package http

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"finanzas/internal/core"
)

func (s *Server) handleListAlerts(w http.ResponseWriter, r *http.Request) {
	alerts, err := s.store.ListAlerts(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, alerts)
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var a core.Alert
	if err := decodeBody(r, &a); err != nil {
		writeError(w, r, err)
		return
	}
	a.ID = 0
	if err := a.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.AppendAlert(r.Context(), a)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleUpdateAlert(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	var patch core.AlertPatch
	if err := decodeBody(r, &patch); err != nil {
		writeError(w, r, err)
		return
	}
	if patch.Type != nil && !patch.Type.IsValid() {
		writeError(w, r, &core.ValidationError{Field: "type", Reason: "must be either category or general"})
		return
	}

	updated, err := s.store.ReplaceAlert(r.Context(), id, patch)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteAlert(w http.ResponseWriter, r *http.Request) {
	id, err := alertID(r)
	if err != nil {
		writeError(w, r, err)
		return
	}

	removed, err := s.store.RemoveAlert(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, removed)
}

// handleCheckAlerts evaluates all alerts against the current month's spend
func (s *Server) handleCheckAlerts(w http.ResponseWriter, r *http.Request) {
	statuses, err := s.alertSvc.Check(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statuses)
}

func alertID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		return 0, &core.ValidationError{Field: "id", Reason: "must be an integer"}
	}
	return id, nil
}
