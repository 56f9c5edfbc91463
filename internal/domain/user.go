package domain

import "strings"

// Role enumerates the access levels of dashboard users.
type Role string

const (
	RoleAdmin      Role = "ADMIN"
	RoleManager    Role = "MANAGER"
	RoleTechnician Role = "TECHNICIAN"
	RoleStaff      Role = "STAFF"
)

// Roles lists every role in display order.
var Roles = []Role{RoleStaff, RoleTechnician, RoleManager, RoleAdmin}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleTechnician, RoleStaff:
		return true
	}
	return false
}

// ParseRole reads a role from the store, falling back to STAFF for unknown values.
func ParseRole(raw string) Role {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return RoleStaff
	}
	return role
}

// MinPasswordLength is enforced before any credential reaches the store.
const MinPasswordLength = 6

// User is a dashboard account as seen through its profile.
type User struct {
	ID     string
	Name   string
	Email  string
	Role   Role
	Avatar string
}

// IsTechnician reports whether the user can be picked as an assignee.
func (u User) IsTechnician() bool {
	return u.Role == RoleTechnician
}
