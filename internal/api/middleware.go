package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
)

type contextKey string

const callerKeyContext contextKey = "caller_key"

// AnonymousCaller is the quota identity used when API auth is disabled.
const AnonymousCaller = "anonymous"

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.logger.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"bytes", ww.BytesWritten(),
			"remote_addr", r.RemoteAddr,
		)
	})
}

// authMiddleware checks API key authentication and records the caller's
// key for quota accounting
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.config.API.APIKey == "" {
			// No API key configured, allow all
			ctx := context.WithValue(r.Context(), callerKeyContext, AnonymousCaller)
			next.ServeHTTP(w, r.WithContext(ctx))
			return
		}

		// Check Authorization header
		auth := r.Header.Get("Authorization")
		if auth == "" {
			// Also check X-API-Key header
			auth = r.Header.Get("X-API-Key")
		}

		// Parse Bearer token
		if strings.HasPrefix(auth, "Bearer ") {
			auth = strings.TrimPrefix(auth, "Bearer ")
		}

		if _, ok := s.validKeys[auth]; !ok {
			s.logger.Warn("unauthorized API request",
				"remote_addr", r.RemoteAddr,
				"path", r.URL.Path,
			)
			s.sendError(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		ctx := context.WithValue(r.Context(), callerKeyContext, auth)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// callerKey returns the authenticated API key for the request
func callerKey(r *http.Request) string {
	if key, ok := r.Context().Value(callerKeyContext).(string); ok {
		return key
	}
	return AnonymousCaller
}
