// Package auth resolves who is calling (Authenticate) and whether they may act on a
// tenant-owned resource (Authorize).
package auth

import "github.com/pkg/errors"

type Role string

const (
	RoleSuperAdmin Role = "super_admin"
	RoleAdmin      Role = "admin"
	RoleTeacher    Role = "teacher"
	RoleStudent    Role = "student"
	RoleParent     Role = "parent"
)

var (
	AllRoles   = []Role{RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent, RoleParent}
	AdminRoles = []Role{RoleAdmin, RoleSuperAdmin}

	ErrInvalidRole = errors.New("invalid role")

	rolePriorities = map[Role]int{
		RoleSuperAdmin: 50,
		RoleAdmin:      40,
		RoleTeacher:    30,
		RoleParent:     20,
		RoleStudent:    10,
	}
)

func ParseRole(s string) (Role, error) {
	r := Role(s)
	if !r.Valid() {
		return "", ErrInvalidRole
	}
	return r, nil
}

func (r Role) Valid() bool {
	_, ok := rolePriorities[r]
	return ok
}

// IsSuper reports whether r is exempt from tenant scoping.
func (r Role) IsSuper() bool { return r == RoleSuperAdmin }

func (r Role) IsAdmin() bool { return r == RoleAdmin || r == RoleSuperAdmin }

// Outranks reports whether r may grant `other` to someone else.
func (r Role) Outranks(other Role) bool {
	return rolePriorities[r] >= rolePriorities[other]
}

func (r Role) In(roles []Role) bool {
	for _, role := range roles {
		if role == r {
			return true
		}
	}
	return false
}

func RoleStrings(roles []Role) []string {
	res := make([]string, 0, len(roles))
	for _, r := range roles {
		res = append(res, string(r))
	}
	return res
}
