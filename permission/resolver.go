package permission

import "strings"

// Source records where a resolved role came from.
type Source uint8

const (
	// SourceNone means neither the path nor the role set produced a role.
	SourceNone Source = iota
	// SourcePath means a path prefix matched.
	SourcePath
	// SourceStored means the session's role set supplied the role.
	SourceStored
)

func (s Source) String() string {
	switch s {
	case SourcePath:
		return "path"
	case SourceStored:
		return "stored"
	default:
		return "none"
	}
}

// Resolution is the outcome of resolving the active role for a view.
type Resolution struct {
	Role   Role
	Source Source
	// Held reports whether the session's role set contains Role. A path match for a role the
	// session does not hold yields Held == false; the view may still render that role's menu
	// because the API, not the client, enforces authorization.
	Held bool
}

// PathPrefix returns the URL prefix owned by role, or "" for [RoleNone].
func PathPrefix(role Role) string {
	switch role {
	case RoleAdmin:
		return "/admin"
	case RoleStaff:
		return "/staff"
	case RoleClinic:
		return "/clinic"
	case RoleVet:
		return "/vet"
	case RoleUser:
		return "/user"
	default:
		return ""
	}
}

// Resolve returns the active role for path. A matching path prefix always wins; otherwise the
// first recognised tag in roles is used; otherwise [RoleNone].
func Resolve(path string, roles []string) Role {
	return ResolveDetail(path, roles).Role
}

// ResolveDetail is [Resolve] with provenance and a held-role check.
//
// The stored fallback uses the first tag that names a portal role. Tags outside the closed
// role set are skipped, since they have no menu to show; a set holding only such tags
// resolves to [RoleNone].
func ResolveDetail(path string, roles []string) Resolution {
	if role, ok := roleForPath(path); ok {
		return Resolution{Role: role, Source: SourcePath, Held: holds(roles, role)}
	}

	for _, tag := range roles {
		if role, ok := ParseRole(tag); ok {
			return Resolution{Role: role, Source: SourceStored, Held: true}
		}
	}

	return Resolution{Role: RoleNone, Source: SourceNone}
}

func roleForPath(path string) (Role, bool) {
	path = normalizePath(path)
	for _, role := range Roles {
		prefix := PathPrefix(role)
		if path == prefix || strings.HasPrefix(path, prefix+"/") {
			return role, true
		}
	}
	return RoleNone, false
}

// normalizePath strips query and fragment and lowercases, so "/Clinic/x?tab=1" matches "/clinic".
func normalizePath(path string) string {
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if len(path) > 1 {
		path = strings.TrimRight(path, "/")
	}
	return path
}

func holds(roles []string, role Role) bool {
	for _, tag := range roles {
		if r, ok := ParseRole(tag); ok && r == role {
			return true
		}
	}
	return false
}
