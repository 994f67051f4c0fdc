package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/datalens-ai/datalens-engine/pkg/handlers"
)

// RequestLogger returns middleware that logs every HTTP request with its
// status, duration, and the tenant that issued it. A nil logger disables
// logging and passes requests through untouched.
func RequestLogger(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if logger == nil {
			return next
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			wrapped := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			fields := []zap.Field{
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", wrapped.status),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote_addr", r.RemoteAddr),
			}
			if tenantID := r.Header.Get(handlers.TenantHeader); tenantID != "" {
				fields = append(fields, zap.String("tenant_id", tenantID))
			}
			logger.Info("http request", fields...)
		})
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}
