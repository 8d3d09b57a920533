package http

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"condo/internal/core"
	"condo/internal/log"
)

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func (rw *responseWriter) WriteHeader(code int) {
	if rw.written {
		return
	}
	rw.statusCode = code
	rw.written = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

// wrap adds request tracing, security headers, POST rate limiting, panic
// recovery and access logging around an API handler.
func (s *Server) wrap(route string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		requestID := uuid.NewString()

		reqLogger := s.logger.With(log.FieldRequestID, requestID, log.FieldClientIP, clientIP)
		ctx := log.NewContext(r.Context(), reqLogger)
		r = r.WithContext(ctx)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		defer func() {
			if rec := recover(); rec != nil {
				reqLogger.ErrorContext(ctx, "Recovered panic in handler", "panic", rec)
				writeJSON(rw, http.StatusInternalServerError, core.Fail[any](core.ErrInternal))
			}
			s.metrics.ObserveHTTP(route, rw.statusCode)
			s.access.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), requestID, clientIP)
		}()

		h := rw.Header()
		h.Set("X-Request-ID", requestID)
		h.Set("X-Content-Type-Options", "nosniff")
		h.Set("X-Frame-Options", "DENY")
		h.Set("Content-Security-Policy", "default-src 'none'; frame-ancestors 'none'")
		h.Set("Referrer-Policy", "no-referrer")
		h.Set("Cache-Control", "no-store")

		if reason := suspiciousReason(r); reason != "" {
			s.metrics.IncRejected("suspicious")
			reqLogger.WarnContext(ctx, "Suspicious request", "reason", reason, log.FieldPath, r.URL.Path)
		}

		if r.Method == http.MethodPost && !s.rateLimiter.allow(clientIP) {
			s.metrics.IncRejected("rate_limit")
			reqLogger.WarnContext(ctx, "Rate limit exceeded", log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			rw.Header().Set("Retry-After", "60")
			writeJSON(rw, http.StatusTooManyRequests, core.Result[any]{Error: "rate limit exceeded"})
			return
		}

		next(rw, r)
	}
}
