package server

import (
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/edumoraes/blingsync/internal/common"
)

// applyMiddleware wraps the mux with CORS, request logging, and panic
// recovery, outermost first.
func applyMiddleware(next http.Handler, logger *common.Logger, config *common.Config) http.Handler {
	handler := loggingMiddleware(next, logger)
	handler = corsMiddleware(handler, config.Server.CORSOrigin)
	handler = recoverMiddleware(handler, logger)
	return handler
}

// corsMiddleware allows the configured operator UI origin. With no origin
// configured it is a no-op.
func corsMiddleware(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if origin != "" {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Idempotency-Key")
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusNoContent)
				return
			}
		}
		next.ServeHTTP(w, r)
	})
}

// statusRecorder captures the response status for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func loggingMiddleware(next http.Handler, logger *common.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", rec.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

// recoverMiddleware converts panics into 500 responses and reports them to
// Sentry when configured.
func recoverMiddleware(next http.Handler, logger *common.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.Error().Interface("panic", rec).Str("path", r.URL.Path).Msg("Handler panicked")
				sentry.CurrentHub().Recover(rec)
				writeError(w, http.StatusInternalServerError, "internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
