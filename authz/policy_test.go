package authz

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/stylecart/api-gateway/auth"
)

var privileged = OwnerPolicy{PrivilegedRoles: []string{auth.RoleManager, auth.RoleStock}}

func TestAuthorize(t *testing.T) {
	policy := RolePolicy{Roles: []string{auth.RoleManager}}

	t.Run("nil identity is unauthenticated", func(t *testing.T) {
		err := Authorize(nil, policy)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})

	t.Run("wrong role is forbidden", func(t *testing.T) {
		err := Authorize(&auth.Identity{Role: auth.RoleCustomer}, policy)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("matching role allowed", func(t *testing.T) {
		err := Authorize(&auth.Identity{Role: auth.RoleManager}, policy)
		assert.NoError(t, err)
	})
}

func TestAuthorizeOwnerOrRole(t *testing.T) {
	t.Run("owner allowed", func(t *testing.T) {
		id := &auth.Identity{Role: auth.RoleCustomer, CustomerID: "c-1"}
		assert.NoError(t, AuthorizeOwnerOrRole(id, "c-1", privileged))
	})

	t.Run("non-owner forbidden", func(t *testing.T) {
		id := &auth.Identity{Role: auth.RoleCustomer, CustomerID: "c-1"}
		assert.ErrorIs(t, AuthorizeOwnerOrRole(id, "c-2", privileged), auth.ErrForbidden)
	})

	t.Run("privileged role bypasses ownership", func(t *testing.T) {
		id := &auth.Identity{Role: auth.RoleManager}
		assert.NoError(t, AuthorizeOwnerOrRole(id, "c-2", privileged))
		id.Role = auth.RoleStock
		assert.NoError(t, AuthorizeOwnerOrRole(id, "c-2", privileged))
	})

	t.Run("owner id compared as opaque string", func(t *testing.T) {
		// "007" and "7" are different owners even if numerically equal.
		id := &auth.Identity{Role: auth.RoleCustomer, CustomerID: "007"}
		assert.ErrorIs(t, AuthorizeOwnerOrRole(id, "7", privileged), auth.ErrForbidden)
	})

	t.Run("empty customer id never owns anything", func(t *testing.T) {
		id := &auth.Identity{Role: auth.RoleCustomer}
		assert.ErrorIs(t, AuthorizeOwnerOrRole(id, "", privileged), auth.ErrForbidden)
	})

	t.Run("nil identity unauthenticated", func(t *testing.T) {
		assert.ErrorIs(t, AuthorizeOwnerOrRole(nil, "c-1", privileged), auth.ErrUnauthenticated)
	})
}

type fakeResolver struct {
	value string
	err   error
	calls int
}

func (r *fakeResolver) ResolveCustomerID(ctx context.Context, userID string) (string, error) {
	r.calls++
	return r.value, r.err
}

func TestEngine_AuthorizeOwner(t *testing.T) {
	t.Run("resolves missing customer id through resolver", func(t *testing.T) {
		resolver := &fakeResolver{value: "c-5"}
		engine := NewEngine(resolver)
		id := &auth.Identity{UserID: "u-5", Role: auth.RoleCustomer}

		err := engine.AuthorizeOwner(context.Background(), id, "c-5", privileged)
		assert.NoError(t, err)
		assert.Equal(t, 1, resolver.calls)
		assert.Equal(t, "c-5", id.CustomerID)
	})

	t.Run("identity already carrying customer id skips resolver", func(t *testing.T) {
		resolver := &fakeResolver{value: "c-other"}
		engine := NewEngine(resolver)
		id := &auth.Identity{UserID: "u-5", Role: auth.RoleCustomer, CustomerID: "c-5"}

		err := engine.AuthorizeOwner(context.Background(), id, "c-5", privileged)
		assert.NoError(t, err)
		assert.Zero(t, resolver.calls)
	})

	t.Run("privileged identity skips resolver entirely", func(t *testing.T) {
		resolver := &fakeResolver{}
		engine := NewEngine(resolver)
		id := &auth.Identity{UserID: "u-5", Role: auth.RoleManager}

		err := engine.AuthorizeOwner(context.Background(), id, "c-9", privileged)
		assert.NoError(t, err)
		assert.Zero(t, resolver.calls)
	})

	t.Run("failed resolution denies non-privileged identity", func(t *testing.T) {
		resolver := &fakeResolver{err: errors.New("lookup down")}
		engine := NewEngine(resolver)
		id := &auth.Identity{UserID: "u-5", Role: auth.RoleCustomer}

		err := engine.AuthorizeOwner(context.Background(), id, "c-5", privileged)
		assert.ErrorIs(t, err, auth.ErrForbidden)
	})

	t.Run("nil identity unauthenticated", func(t *testing.T) {
		engine := NewEngine(&fakeResolver{})
		err := engine.AuthorizeOwner(context.Background(), nil, "c-5", privileged)
		assert.ErrorIs(t, err, auth.ErrUnauthenticated)
	})
}
