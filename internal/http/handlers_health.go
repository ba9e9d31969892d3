package http

import (
	"context"
	"net/http"
	"time"
)

// handleHealth checks both backing stores. The cache store being down
// degrades reads but the service still answers, so it is reported but
// does not fail the check; the relational store being down does.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := "ok"
	httpStatus := http.StatusOK
	checks := map[string]string{}

	if err := s.repo.Ping(ctx); err != nil {
		checks["sqlite"] = err.Error()
		status = "unavailable"
		httpStatus = http.StatusServiceUnavailable
	} else {
		checks["sqlite"] = "ok"
	}

	if err := s.kv.Ping(ctx); err != nil {
		checks["kv"] = err.Error()
		if status == "ok" {
			status = "degraded"
		}
	} else {
		checks["kv"] = "ok"
	}

	s.respondJSON(w, httpStatus, map[string]any{
		"status":    status,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"checks":    checks,
	})
}
