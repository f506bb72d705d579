package auth

// Role values recognized by the policy engine. The user service issues
// tokens with exactly one of these.
const (
	RoleCustomer = "customer"
	RoleManager  = "manager"
	RoleStock    = "stock"
	RoleService  = "service"
)

// Identity is the resolved principal attached to a request after its bearer
// credential has been verified. Both verification modes normalize to this
// shape: local mode fills it from token claims, remote mode from the profile
// response body.
type Identity struct {
	UserID string
	Email  string
	Role   string
	// CustomerID is the secondary identity (customer record id). Empty when
	// the credential did not carry one; resolved lazily through the identity
	// cache when a customer-scoped check needs it.
	CustomerID string
}

// HasRole reports whether the identity's role is one of the given roles.
func (id *Identity) HasRole(roles ...string) bool {
	if id == nil {
		return false
	}
	for _, r := range roles {
		if id.Role == r {
			return true
		}
	}
	return false
}
