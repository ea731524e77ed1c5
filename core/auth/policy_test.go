package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAuthorize(t *testing.T) {
	teacher := Principal{UserID: "u1", OrganizationID: "org-a", Role: RoleTeacher}

	tests := []struct {
		name     string
		p        Principal
		roles    []Role
		tenantID string
		wantErr  error
	}{
		{name: "teacher on admin operation", p: teacher, roles: AdminRoles, tenantID: "org-a", wantErr: ErrInsufficientRole},
		{name: "teacher on other tenant", p: teacher, roles: []Role{RoleTeacher}, tenantID: "org-b", wantErr: ErrCrossTenantAccess},
		{name: "teacher on own tenant", p: teacher, roles: []Role{RoleTeacher}, tenantID: "org-a"},
		{name: "any role, no tenant", p: teacher},
		{name: "role check comes first", p: teacher, roles: AdminRoles, tenantID: "org-b", wantErr: ErrInsufficientRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, Authorize(tt.p, tt.roles, tt.tenantID))
		})
	}
}

func TestAuthorize_tenantIsolation(t *testing.T) {
	for _, role := range AllRoles {
		if role.IsSuper() {
			continue
		}
		p := Principal{UserID: "u1", OrganizationID: "org-a", Role: role}
		for _, tenant := range []string{"org-b", "org-c", "ORG-A", "org-a "} {
			assert.Equal(t, ErrCrossTenantAccess, Authorize(p, []Role{role}, tenant), "%s on %q", role, tenant)
			assert.Equal(t, ErrCrossTenantAccess, Authorize(p, nil, tenant), "%s on %q", role, tenant)
		}
	}
}

func TestAuthorize_superAdminBypass(t *testing.T) {
	super := Principal{UserID: "root", OrganizationID: "org-a", Role: RoleSuperAdmin}
	for _, tenant := range []string{"", "org-a", "org-b", "anything"} {
		assert.NoError(t, Authorize(super, nil, tenant))
		assert.NoError(t, Authorize(super, AdminRoles, tenant))
		assert.NoError(t, Authorize(super, []Role{RoleSuperAdmin}, tenant))
	}
	assert.Equal(t, ErrInsufficientRole, Authorize(super, []Role{RoleTeacher}, "org-b"))
}

func TestPolicy_Check(t *testing.T) {
	admin := Principal{UserID: "u1", OrganizationID: "org-a", Role: RoleAdmin}
	student := Principal{UserID: "u2", OrganizationID: "org-a", Role: RoleStudent}

	tests := []struct {
		name     string
		pol      Policy
		p        Principal
		tenantID string
		wantErr  error
	}{
		{name: "authenticated, own tenant", pol: Authenticated, p: student, tenantID: "org-a"},
		{name: "authenticated, other tenant", pol: Authenticated, p: student, tenantID: "org-b", wantErr: ErrCrossTenantAccess},
		{name: "admin only, student", pol: AdminOnly, p: student, tenantID: "org-a", wantErr: ErrInsufficientRole},
		{name: "admin only, admin", pol: AdminOnly, p: admin, tenantID: "org-a"},
		{name: "super admin only, admin", pol: SuperAdminOnly, p: admin, wantErr: ErrInsufficientRole},
		{name: "not tenant scoped ignores tenant", pol: Policy{Roles: AdminRoles}, p: admin, tenantID: "org-b"},
		{name: "require teacher", pol: Require(RoleTeacher, RoleAdmin), p: student, wantErr: ErrInsufficientRole},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, tt.pol.Check(tt.p, tt.tenantID))
		})
	}
}

func TestRole_Outranks(t *testing.T) {
	assert.True(t, RoleSuperAdmin.Outranks(RoleAdmin))
	assert.True(t, RoleAdmin.Outranks(RoleAdmin))
	assert.False(t, RoleAdmin.Outranks(RoleSuperAdmin))
	assert.False(t, RoleStudent.Outranks(RoleTeacher))

	_, err := ParseRole("janitor")
	assert.Equal(t, ErrInvalidRole, err)
	r, err := ParseRole("parent")
	assert.NoError(t, err)
	assert.Equal(t, RoleParent, r)
}

func TestPolicy_Permits(t *testing.T) {
	tests := []struct {
		name string
		pol  Policy
		role Role
		want bool
	}{
		{name: "no roles lets anyone in", pol: Authenticated, role: RoleStudent, want: true},
		{name: "listed role", pol: AdminOnly, role: RoleAdmin, want: true},
		{name: "unlisted role", pol: AdminOnly, role: RoleTeacher},
		{name: "super admin only, admin", pol: SuperAdminOnly, role: RoleAdmin},
		{name: "roles are not ranked", pol: Require(RoleTeacher), role: RoleAdmin},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Principal{UserID: "u1", OrganizationID: "org-a", Role: tt.role}
			assert.Equal(t, tt.want, tt.pol.Permits(p))
			// Permits is the role half of Check
			assert.Equal(t, !tt.want, tt.pol.Check(p, "") == ErrInsufficientRole)
		})
	}
}

func TestPrincipal_BelongsTo(t *testing.T) {
	admin := Principal{UserID: "u1", OrganizationID: "org-a", Role: RoleAdmin}
	super := Principal{UserID: "root", OrganizationID: "platform", Role: RoleSuperAdmin}

	assert.True(t, admin.BelongsTo("org-a"))
	assert.False(t, admin.BelongsTo("org-b"))
	assert.False(t, admin.BelongsTo(""))
	assert.True(t, super.BelongsTo("org-a"))
	assert.True(t, super.BelongsTo("org-b"))

	assert.Equal(t, ErrCrossTenantAccess, AdminOnly.Check(admin, "org-b"))
	assert.NoError(t, AdminOnly.Check(super, "org-b"))
}
