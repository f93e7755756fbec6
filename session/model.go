package session

import "github.com/MrEthical07/vetsession/jwt"

// Primary store keys owned by the session. Every one of them is removed by [Store.Purge].
const (
	KeyToken    = "token"
	KeyRoles    = "roles"
	KeyUserID   = "userId"
	KeyUserName = "userName"
	KeyClinicID = "clinicId"
	KeyVetID    = "vetId"
	KeyStaffID  = "staffId"
)

// KnownKeys is the fixed key set swept on purge, in write order.
var KnownKeys = []string{
	KeyToken,
	KeyRoles,
	KeyUserID,
	KeyUserName,
	KeyClinicID,
	KeyVetID,
	KeyStaffID,
}

// Status is the authentication status of a loaded session.
type Status uint8

const (
	// StatusUnauthenticated covers "never logged in" as well as any rejected credential.
	StatusUnauthenticated Status = iota
	// StatusAuthenticated means a decodable, unexpired credential with at least one role.
	StatusAuthenticated
)

func (s Status) String() string {
	if s == StatusAuthenticated {
		return "authenticated"
	}
	return "unauthenticated"
}

// State is the session context handed to views. It is produced by [Store.Load] and passed
// explicitly; nothing in this module caches it globally.
type State struct {
	Status     Status
	Credential string
	Claims     *jwt.Claims
	// Reason explains an unauthenticated state: nil when no credential was stored, otherwise
	// one of jwt.ErrMalformed, ErrSessionExpired, ErrEmptyRoleSet or ErrStorageRead.
	Reason error
}

// Authenticated reports whether the state carries a usable credential.
func (s State) Authenticated() bool {
	return s.Status == StatusAuthenticated && s.Claims != nil
}

// Roles returns the session's role set, empty when unauthenticated.
func (s State) Roles() jwt.RoleSet {
	if !s.Authenticated() {
		return jwt.RoleSet{}
	}
	return s.Claims.Roles
}

// RoleMirror reports the role list as persisted in each store.
type RoleMirror struct {
	Primary    jwt.RoleSet
	Cookie     jwt.RoleSet
	Consistent bool
}

func unauthenticated(reason error) State {
	return State{Status: StatusUnauthenticated, Reason: reason}
}
