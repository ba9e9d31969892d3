package http

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"centime/internal/core"
	"centime/internal/log"
)

type contextKey string

const userIDKey contextKey = "user_id"

// requireAuth verifies the access-token cookie statelessly and puts
// the subject user id into the request context. No session store
// lookup happens on this path.
func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(accessCookie)
		if err != nil {
			s.respondError(w, r, core.ErrUnauthorized)
			return
		}
		userID, err := s.tokens.VerifyAccess(cookie.Value)
		if err != nil {
			s.respondError(w, r, core.ErrUnauthorized)
			return
		}
		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next(w, r.WithContext(ctx))
	}
}

func userIDFrom(ctx context.Context) uuid.UUID {
	id, _ := ctx.Value(userIDKey).(uuid.UUID)
	return id
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(status int) {
	rec.status = status
	rec.ResponseWriter.WriteHeader(status)
}

func (s *Server) withRequestLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		s.log.InfoContext(r.Context(), "request completed",
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldStatus, rec.status,
			log.FieldDuration, time.Since(start).Milliseconds())
	})
}
