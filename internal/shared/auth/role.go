package auth

import (
	"strconv"
	"strings"
)

// Role is the platform-wide staff/student role. Values match users.role_id.
type Role int

const (
	RoleAdmin   Role = 1
	RoleOwner   Role = 2
	RoleStudent Role = 3
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleOwner || r == RoleStudent
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleOwner:
		return "owner"
	case RoleStudent:
		return "student"
	default:
		return "unknown"
	}
}

// ParseRole accepts a role name or its numeric id.
func ParseRole(raw string) (Role, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case "admin":
		return RoleAdmin, true
	case "owner":
		return RoleOwner, true
	case "student":
		return RoleStudent, true
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	r := Role(n)
	return r, r.Valid()
}

// Actor is the resolved caller of an operation.
type Actor struct {
	UserID       string
	Role         Role
	DepartmentID *int64
}

// InDepartment reports whether the actor belongs to the given department.
func (a Actor) InDepartment(departmentID int64) bool {
	return a.DepartmentID != nil && *a.DepartmentID == departmentID
}

func (a Actor) IsAdmin() bool   { return a.Role == RoleAdmin }
func (a Actor) IsOwner() bool   { return a.Role == RoleOwner }
func (a Actor) IsStudent() bool { return a.Role == RoleStudent }
