package http

import (
	"net/http"

	"centime/internal/core"
)

type categoryRequest struct {
	Name string `json:"name"`
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	var req categoryRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	c, err := s.categories.Add(r.Context(), userIDFrom(r.Context()), core.CategoryInput{Name: req.Name})
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusCreated, c)
}

func (s *Server) handleListCategories(w http.ResponseWriter, r *http.Request) {
	res, err := s.categories.List(r.Context(), userIDFrom(r.Context()), pageParam(r))
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	s.respondJSON(w, http.StatusOK, res)
}
