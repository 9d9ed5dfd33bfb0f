package middleware

import (
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/eduelevate/lms/pkg/contextkeys"
)

// statusRecorder captures the response status for logging and metrics.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// Logging emits one structured line per request with method, path, status,
// duration, request ID, and the authenticated username when present.
func Logging(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

			next.ServeHTTP(rec, r)

			fields := logrus.Fields{
				"method":   r.Method,
				"path":     r.URL.Path,
				"status":   rec.status,
				"duration": time.Since(start).String(),
			}
			if id := contextkeys.RequestIDFrom(r.Context()); id != "" {
				fields["request_id"] = id
			}
			if p := contextkeys.PrincipalFrom(r.Context()); p != nil {
				fields["user"] = p.Username
				fields["role"] = string(p.Role)
			}

			entry := logger.WithFields(fields)
			switch {
			case rec.status >= 500:
				entry.Error("request failed")
			case rec.status >= 400:
				entry.Warn("request rejected")
			default:
				entry.Info("request completed")
			}
		})
	}
}
