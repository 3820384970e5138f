package auth

import (
	"context"
	"time"
)

// Principal is the signed-in user a request runs as.
type Principal struct {
	Subject    string    `json:"subject"`
	Name       string    `json:"name"`
	Department string    `json:"department,omitempty"`
	Admin      bool      `json:"admin"`
	TokenID    string    `json:"-"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Role is the casbin subject the principal's permissions are granted to.
func (p Principal) Role() string {
	if p.Admin {
		return adminRole
	}
	return departmentRole(p.Department)
}

type principalKey struct{}

// WithPrincipal returns a context carrying p.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey{}, p)
}

// FromContext extracts the principal stored by WithPrincipal.
func FromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}
