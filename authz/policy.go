// Package authz decides whether a resolved identity may perform a requested
// action. Policies are plain typed values handed to route registration, so
// every route's requirements are visible where the route is declared.
package authz

import (
	"context"

	"github.com/stylecart/api-gateway/auth"
	"github.com/stylecart/api-gateway/identity"
)

// RolePolicy allows any identity whose role is in Roles.
type RolePolicy struct {
	Roles []string
}

// OwnerPolicy allows identities with a privileged role unconditionally, and
// other identities only when their resolved customer id matches the owner id
// taken from the request (an opaque string, compared verbatim).
type OwnerPolicy struct {
	PrivilegedRoles []string
}

// Authorize checks a simple role policy. Returns nil on allow.
func Authorize(id *auth.Identity, policy RolePolicy) error {
	if id == nil {
		return auth.ErrUnauthenticated
	}
	if !id.HasRole(policy.Roles...) {
		return auth.ErrForbidden
	}
	return nil
}

// AuthorizeOwnerOrRole checks an owner-or-privileged policy against a
// resource owner id already at hand.
func AuthorizeOwnerOrRole(id *auth.Identity, ownerID string, policy OwnerPolicy) error {
	if id == nil {
		return auth.ErrUnauthenticated
	}
	if id.HasRole(policy.PrivilegedRoles...) {
		return nil
	}
	if id.CustomerID != "" && id.CustomerID == ownerID {
		return nil
	}
	return auth.ErrForbidden
}

// Engine evaluates ownership policies, resolving the identity's customer id
// through the cache when the credential did not carry it. This is the
// order-management variant: order routes key ownership off the token's user
// id rather than requiring the customer id on the Identity.
type Engine struct {
	resolver identity.Resolver
}

// NewEngine creates a policy engine backed by resolver.
func NewEngine(resolver identity.Resolver) *Engine {
	return &Engine{resolver: resolver}
}

// AuthorizeOwner resolves the identity's customer id if needed, then applies
// the owner-or-privileged rule. A failed resolution leaves the customer id
// empty, which denies non-privileged identities.
func (e *Engine) AuthorizeOwner(ctx context.Context, id *auth.Identity, ownerID string, policy OwnerPolicy) error {
	if id == nil {
		return auth.ErrUnauthenticated
	}
	if id.HasRole(policy.PrivilegedRoles...) {
		return nil
	}
	if id.CustomerID == "" && e.resolver != nil {
		customerID, err := e.resolver.ResolveCustomerID(ctx, id.UserID)
		if err == nil {
			id.CustomerID = customerID
		}
	}
	return AuthorizeOwnerOrRole(id, ownerID, policy)
}
