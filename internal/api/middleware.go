package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rustyeddy/tradejournal/users"
)

type contextKey string

const userKey contextKey = "user"

// authenticate checks the bearer token and loads the active user it names.
func (h *Handler) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			h.respondError(w, http.StatusUnauthorized, "missing bearer token")
			return
		}

		claims, err := h.auth.ValidateToken(token)
		if err != nil {
			h.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		u, err := h.users.Get(r.Context(), claims.UserID)
		if err != nil || !u.IsActive {
			h.respondError(w, http.StatusUnauthorized, "invalid token")
			return
		}

		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), userKey, u)))
	})
}

// currentUser returns the user set by authenticate.
func currentUser(ctx context.Context) *users.User {
	u, _ := ctx.Value(userKey).(*users.User)
	return u
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		h.log.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("took", time.Since(start)).
			Msg("http request")
	})
}
