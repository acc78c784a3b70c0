package middleware

import (
	"context"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hostelcare/complaint-api/models"
)

type contextKey string

// PrincipalKey is the context key for the authenticated principal
const PrincipalKey contextKey = "principal"

// Principal is the authenticated caller attached to a request
type Principal struct {
	Subject   string
	Role      models.Role
	Authority string
	User      *models.User
}

// NewPrincipal builds the principal for an authenticated user
func NewPrincipal(user *models.User) *Principal {
	return &Principal{
		Subject:   user.Subject,
		Role:      user.Role,
		Authority: user.Role.Authority(),
		User:      user,
	}
}

// HasRole reports whether the principal holds one of roles
func (p *Principal) HasRole(roles ...models.Role) bool {
	if p == nil {
		return false
	}
	for _, r := range roles {
		if p.Role == r {
			return true
		}
	}
	return false
}

// WithPrincipal adds the principal to the context
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, PrincipalKey, p)
}

// PrincipalFrom retrieves the principal from context, or nil
func PrincipalFrom(ctx context.Context) *Principal {
	if p, ok := ctx.Value(PrincipalKey).(*Principal); ok {
		return p
	}
	return nil
}

// GetRequestIDFromContext returns the id set by chi's RequestID middleware
func GetRequestIDFromContext(ctx context.Context) string {
	return chimw.GetReqID(ctx)
}
