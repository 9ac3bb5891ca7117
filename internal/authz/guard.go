// AngelaMos | 2026
// guard.go

package authz

import (
	"context"

	"github.com/auratrack/auratrack-api/internal/core"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Identity is the caller resolved from a verified session token. A nil
// *Identity is an anonymous caller.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// Authorize must be the first statement of every privileged operation.
// The decision is recomputed on each call from the identity alone.
func Authorize(id *Identity, requiredRole string) error {
	if id == nil || id.UserID == "" || id.Role != requiredRole {
		return core.UnauthorizedError("Access denied")
	}
	return nil
}

// RequireAuthenticated admits any signed-in caller regardless of role.
func RequireAuthenticated(id *Identity) error {
	if id == nil || id.UserID == "" {
		return core.UnauthorizedError("Authentication required")
	}
	return nil
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id *Identity) context.Context {
	if id == nil {
		return ctx
	}
	frozen := *id
	return context.WithValue(ctx, identityKey{}, &frozen)
}

func FromContext(ctx context.Context) *Identity {
	if id, ok := ctx.Value(identityKey{}).(*Identity); ok {
		return id
	}
	return nil
}
