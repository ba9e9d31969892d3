package http

import (
	"net/http"

	"centime/internal/auth/session"
)

const (
	accessCookie  = "token"
	refreshCookie = "refresh_token"

	// refreshCookiePath keeps the refresh token off every request
	// except the exchange endpoint.
	refreshCookiePath = "/api/user/refresh"
)

// setAuthCookies attaches both credentials. Tokens never appear in
// response bodies.
func (s *Server) setAuthCookies(w http.ResponseWriter, pair session.Pair) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessCookie,
		Value:    pair.Access,
		Path:     "/",
		MaxAge:   int(s.tokens.AccessTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshCookie,
		Value:    pair.Refresh,
		Path:     refreshCookiePath,
		MaxAge:   int(s.tokens.RefreshTTL().Seconds()),
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteStrictMode,
	})
}
