package auth

import "context"

// Identity is the authenticated principal of a request.
type Identity struct {
	Username string
	Name     string
	Role     Role
}

// Can reports whether the identity carries the required capability.
func (i *Identity) Can(required Role) bool {
	if i == nil {
		return false
	}
	return HasRole(string(i.Role), required)
}

func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

type identityKey struct{}

func ContextWithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, identity)
}

// IdentityFromContext returns nil for anonymous requests.
func IdentityFromContext(ctx context.Context) *Identity {
	identity, _ := ctx.Value(identityKey{}).(*Identity)
	return identity
}
