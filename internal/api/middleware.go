package api

// This file contains the request logging and admin authentication middleware.

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/vrsandeep/xwc-settings/internal/logger"
)

// RequestLogger logs every request through the app logger and attaches a
// request scoped logger to the request context.
func (s *Server) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		l := s.app.Logger().With().
			Str("request_id", middleware.GetReqID(r.Context())).
			Logger()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r.WithContext(logger.WithContext(r.Context(), l)))

		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("took", time.Since(start)).
			Msg("Handled request")
	})
}

// AdminOnlyMiddleware guards write routes with HTTP basic auth against the
// configured admin account. Without a configured password the routes are
// open.
func (s *Server) AdminOnlyMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.creds.Enabled() {
			next.ServeHTTP(w, r)
			return
		}

		username, password, ok := r.BasicAuth()
		if !ok {
			w.Header().Set("WWW-Authenticate", `Basic realm="xwc-settings"`)
			RespondWithError(w, http.StatusUnauthorized, "Unauthorized: credentials required")
			return
		}
		if !s.creds.Check(username, password) {
			logger.FromContext(r.Context()).Warn().Str("username", username).Msg("Rejected admin credentials")
			RespondWithError(w, http.StatusForbidden, "Forbidden: invalid credentials")
			return
		}

		next.ServeHTTP(w, r)
	})
}
