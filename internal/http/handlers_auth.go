package http

import (
	"net/http"

	"centime/internal/core"
)

type registerRequest struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type authResponse struct {
	Email string `json:"email"`
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.auth.Register(r.Context(), core.RegisterInput{
		Email:    req.Email,
		Name:     req.Name,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.setAuthCookies(w, res.Pair)
	s.respondJSON(w, http.StatusCreated, authResponse{Email: res.Email})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondError(w, r, err)
		return
	}

	res, err := s.auth.Login(r.Context(), core.LoginInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.setAuthCookies(w, res.Pair)
	s.respondJSON(w, http.StatusOK, authResponse{Email: res.Email})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	cookie, err := r.Cookie(refreshCookie)
	if err != nil {
		s.respondError(w, r, core.ErrUnauthorized)
		return
	}

	res, err := s.auth.Refresh(r.Context(), cookie.Value)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	s.setAuthCookies(w, res.Pair)
	s.respondJSON(w, http.StatusOK, authResponse{Email: res.Email})
}
