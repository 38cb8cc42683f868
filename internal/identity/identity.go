// Package identity models the authenticated actor. The identity provider
// itself (OAuth exchange, user onboarding) is an external collaborator; this
// package only decodes and carries the {id, email, role} triple it issues.
package identity

import "context"

// Role is the sole authorization axis used by the core.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleAnalyst Role = "analyst"
	RoleViewer  Role = "viewer"
)

// IsValid reports whether the role is one of the three known roles.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleAnalyst, RoleViewer:
		return true
	}
	return false
}

// Principal is an authenticated actor. The triple is trusted verbatim from
// the identity collaborator; it is never persisted here.
type Principal struct {
	ID    string
	Email string
	Role  Role
}

type contextKeyPrincipal struct{}

// ContextKeyPrincipal is exported for middleware and test helpers.
var ContextKeyPrincipal = contextKeyPrincipal{}

// FromContext retrieves the authenticated principal from the context.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(ContextKeyPrincipal).(Principal)
	return p, ok
}

// WithPrincipal stores the principal in the context.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, ContextKeyPrincipal, p)
}
