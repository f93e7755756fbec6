package permission

import "strings"

// Role is one of the closed set of portal roles.
type Role uint8

const (
	// RoleNone means no menu and no role-specific view.
	RoleNone Role = iota
	RoleAdmin
	RoleStaff
	RoleClinic
	RoleVet
	RoleUser
)

// Roles lists every known role in table order.
var Roles = [...]Role{RoleAdmin, RoleStaff, RoleClinic, RoleVet, RoleUser}

// String returns the wire tag of the role, or "" for [RoleNone].
func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleStaff:
		return "Staff"
	case RoleClinic:
		return "Clinic"
	case RoleVet:
		return "Vet"
	case RoleUser:
		return "User"
	default:
		return ""
	}
}

// Known reports whether r is one of the five portal roles.
func (r Role) Known() bool {
	return r >= RoleAdmin && r <= RoleUser
}

// ParseRole maps a role tag to a [Role], ignoring case and surrounding space.
func ParseRole(tag string) (Role, bool) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "admin":
		return RoleAdmin, true
	case "staff":
		return RoleStaff, true
	case "clinic":
		return RoleClinic, true
	case "vet":
		return RoleVet, true
	case "user":
		return RoleUser, true
	default:
		return RoleNone, false
	}
}
