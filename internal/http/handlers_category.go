package http

import (
	"net/http"

	"finanzas/internal/core"
)

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := s.store.ListCategories(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, categories)
}

func (s *Server) handleCreateCategory(w http.ResponseWriter, r *http.Request) {
	var c core.Category
	if err := decodeBody(r, &c); err != nil {
		writeError(w, r, err)
		return
	}
	c.ID = 0
	if err := c.Validate(); err != nil {
		writeError(w, r, err)
		return
	}

	created, err := s.store.AppendCategory(r.Context(), c)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}
