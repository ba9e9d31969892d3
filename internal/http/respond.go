package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"centime/internal/core"
	"centime/internal/log"
)

func statusFor(kind core.Kind) int {
	switch kind {
	case core.KindValidation:
		return http.StatusBadRequest
	case core.KindUnauthorized:
		return http.StatusUnauthorized
	case core.KindNotFound:
		return http.StatusNotFound
	case core.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.log.Error("failed to encode response", log.FieldError, err)
	}
}

// respondError maps the error's kind to a status. Internal causes are
// logged in full but the body only carries the generic message, so
// store details never leak to clients.
func (s *Server) respondError(w http.ResponseWriter, r *http.Request, err error) {
	kind := core.KindOf(err)
	if kind == core.KindInternal {
		s.log.ErrorContext(r.Context(), "request failed",
			log.FieldMethod, r.Method, log.FieldPath, r.URL.Path, log.FieldError, err)
	}

	message := "internal server error"
	var ce *core.Error
	if errors.As(err, &ce) && ce.Kind != core.KindInternal {
		message = ce.Message
	}
	s.respondJSON(w, statusFor(kind), map[string]string{"error": message})
}

// decodeJSON decodes a request body, surfacing domain validation
// sentinels raised by custom unmarshalers and tagging everything else
// as a generic bad request.
func decodeJSON(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var ce *core.Error
		if errors.As(err, &ce) {
			return ce
		}
		return &core.Error{Kind: core.KindValidation, Message: "invalid request body", Err: err}
	}
	return nil
}
