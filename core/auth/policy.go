package auth

// Policy is the access rule attached to an operation.
// Roles lists who may perform it (anyone authenticated when empty); TenantScoped operations
// are only allowed on resources owned by the caller's organization, super admins excepted.
type Policy struct {
	Roles        []Role
	TenantScoped bool
}

var (
	// Authenticated lets any authenticated principal in, scoped to its own organization.
	Authenticated = Policy{TenantScoped: true}
	// AdminOnly is for destructive and management operations.
	AdminOnly = Policy{Roles: AdminRoles, TenantScoped: true}
	// SuperAdminOnly is for platform level operations (organizations).
	SuperAdminOnly = Policy{Roles: []Role{RoleSuperAdmin}}
)

func Require(roles ...Role) Policy {
	return Policy{Roles: roles, TenantScoped: true}
}

// Check evaluates the policy for p. resourceTenantID is ignored for policies that are not
// tenant scoped, and may be empty when the operation has no single owning tenant.
func (pol Policy) Check(p Principal, resourceTenantID string) error {
	if !pol.Permits(p) {
		return ErrInsufficientRole
	}
	if pol.TenantScoped && resourceTenantID != "" && !p.BelongsTo(resourceTenantID) {
		return ErrCrossTenantAccess
	}
	return nil
}

// Permits reports whether p's role alone is enough for the policy.
func (pol Policy) Permits(p Principal) bool {
	return len(pol.Roles) == 0 || p.Role.In(pol.Roles)
}
