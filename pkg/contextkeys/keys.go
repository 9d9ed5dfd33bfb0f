// Package contextkeys provides centralized context key definitions.
//
// All context keys used across the application are defined here. This
// prevents typos, documents dependencies, and makes key usage discoverable.
package contextkeys

import (
	"context"

	"github.com/eduelevate/lms/pkg/auth"
)

// Key is the type for context keys to prevent collisions.
type Key string

const (
	// PrincipalKey contains *auth.Principal.
	// Set by: middleware.Identity (pkg/middleware/identity.go), once per
	// request. Write-once: nothing downstream mutates or replaces it.
	// Required by: route gates and every handler performing access checks.
	PrincipalKey Key = "principal"

	// RequestIDKey contains the request ID string (UUID).
	// Set by: middleware.RequestID.
	// Used by: request logging, error responses.
	RequestIDKey Key = "request_id"
)

// WithPrincipal attaches the resolved principal to the context.
func WithPrincipal(ctx context.Context, p *auth.Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFrom extracts the principal, or nil for an unauthenticated
// request.
func PrincipalFrom(ctx context.Context) *auth.Principal {
	p, _ := ctx.Value(PrincipalKey).(*auth.Principal)
	return p
}

// WithRequestID attaches the request id to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestIDFrom extracts the request id, or "" when unset.
func RequestIDFrom(ctx context.Context) string {
	id, _ := ctx.Value(RequestIDKey).(string)
	return id
}
