// Package middleware provides the HTTP middleware chain: request identity
// resolution, route-level role gates, request IDs, logging, and metrics.
package middleware

import (
	"net/http"
	"strings"

	"github.com/eduelevate/lms/pkg/auth"
	"github.com/eduelevate/lms/pkg/contextkeys"
	"github.com/eduelevate/lms/pkg/httputil"
)

// Identity resolves the bearer token into a request-scoped principal. It runs
// once per request, before any business handler.
//
// A missing header or a failed decode does NOT abort the request: the
// principal is simply left unset and rejection is deferred to the route's own
// requirement, so public routes keep working with a stale or absent token.
// Principals are recomputed on every request; tokens are immutable and
// decoding is cheap, so nothing is cached across requests.
type Identity struct {
	codec *auth.TokenCodec
}

// NewIdentity creates the identity middleware around a token codec.
func NewIdentity(codec *auth.TokenCodec) *Identity {
	return &Identity{codec: codec}
}

// Handler wraps next with principal resolution.
func (m *Identity) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}

		claims, err := m.codec.Decode(token)
		if err != nil {
			next.ServeHTTP(w, r)
			return
		}

		ctx := contextkeys.WithPrincipal(r.Context(), claims.Principal())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// bearerToken extracts the credential from "Authorization: Bearer <token>".
func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Principal extracts the resolved principal from a request, or nil when the
// request is unauthenticated.
func Principal(r *http.Request) *auth.Principal {
	return contextkeys.PrincipalFrom(r.Context())
}

// RequireAuth rejects unauthenticated requests with 401.
func RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if Principal(r) == nil {
			httputil.WriteUnauthorized(w, "authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireRole is the coarse route-level gate: 401 without a principal, 403
// unless the principal holds one of the listed roles. Fine-grained ownership
// checks still run inside the handlers; both layers must pass.
func RequireRole(roles ...auth.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p := Principal(r)
			if p == nil {
				httputil.WriteUnauthorized(w, "authentication required")
				return
			}
			for _, role := range roles {
				if p.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			httputil.WriteForbidden(w, "insufficient role")
		})
	}
}
