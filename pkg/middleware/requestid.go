package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/eduelevate/lms/pkg/contextkeys"
)

// RequestIDHeader carries the request ID on both requests and responses.
const RequestIDHeader = "X-Request-Id"

// RequestID assigns each request a unique ID, honoring one supplied by the
// caller, and echoes it on the response.
func RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		ctx := contextkeys.WithRequestID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
