package policy

import "fmt"

// Role is a board participant's role. Values match the persisted column.
type Role int

const (
	RoleOwner  Role = 1
	RoleWriter Role = 2
	RoleReader Role = 3
)

// Action classifies what a command does to the data it touches.
type Action int

const (
	ActionRead   Action = iota // listings and detail lookups
	ActionWrite                // creating categories, goals, comments
	ActionManage               // board membership changes
)

func (r Role) String() string {
	switch r {
	case RoleOwner:
		return "owner"
	case RoleWriter:
		return "writer"
	case RoleReader:
		return "reader"
	default:
		return fmt.Sprintf("role(%d)", int(r))
	}
}

// ParseRole maps a role name to its Role.
func ParseRole(s string) (Role, error) {
	switch s {
	case "owner":
		return RoleOwner, nil
	case "writer":
		return RoleWriter, nil
	case "reader":
		return RoleReader, nil
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// Allows reports whether a participant with role r may perform a.
func Allows(r Role, a Action) bool {
	switch a {
	case ActionRead:
		return r == RoleOwner || r == RoleWriter || r == RoleReader
	case ActionWrite:
		return r == RoleOwner || r == RoleWriter
	case ActionManage:
		return r == RoleOwner
	}
	return false
}

// RolesFor returns every role permitted to perform a, strongest first.
// Store queries use the result as an IN filter.
func RolesFor(a Action) []Role {
	var roles []Role
	for _, r := range []Role{RoleOwner, RoleWriter, RoleReader} {
		if Allows(r, a) {
			roles = append(roles, r)
		}
	}
	return roles
}
