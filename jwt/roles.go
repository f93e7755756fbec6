package jwt

import (
	"encoding/json"
	"errors"
	"strings"
)

// RoleSet is the ordered, de-duplicated list of role tags held by a session.
type RoleSet []string

// NewRoleSet trims, drops empties and de-duplicates tags, keeping first occurrence order.
// Tags are compared case-insensitively; the first spelling wins.
func NewRoleSet(tags ...string) RoleSet {
	out := make(RoleSet, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		key := strings.ToLower(tag)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, tag)
	}
	return out
}

// Contains reports whether tag is held, ignoring case.
func (r RoleSet) Contains(tag string) bool {
	for _, held := range r {
		if strings.EqualFold(held, tag) {
			return true
		}
	}
	return false
}

// First returns the first role tag or "" when empty.
func (r RoleSet) First() string {
	if len(r) == 0 {
		return ""
	}
	return r[0]
}

func (r RoleSet) String() string {
	return strings.Join(r, ",")
}

// Serialize renders the set in the form persisted by the session stores (a JSON array).
func (r RoleSet) Serialize() string {
	if r == nil {
		r = RoleSet{}
	}
	data, _ := json.Marshal([]string(r))
	return string(data)
}

// ParseRoleSet reads a persisted role list. It accepts every encoding the role claim may use,
// so values written by older clients (plain or comma-separated strings) still parse.
func ParseRoleSet(serialized string) (RoleSet, error) {
	if strings.TrimSpace(serialized) == "" {
		return RoleSet{}, nil
	}
	if roles, err := normalizeRoles(json.RawMessage(serialized)); err == nil {
		return roles, nil
	}
	return splitRoles(serialized), nil
}

var errRoleShape = errors.New("unsupported role claim shape")

// normalizeRoles accepts a JSON array, a string, a comma-separated string, or a string holding
// JSON-encoded array/string. A missing claim yields an empty set; the session layer decides
// whether that is acceptable.
func normalizeRoles(raw json.RawMessage) (RoleSet, error) {
	if isEmptyRaw(raw) {
		return RoleSet{}, nil
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return NewRoleSet(list...), nil
	}

	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, errRoleShape
	}
	s = strings.TrimSpace(s)

	if strings.HasPrefix(s, "[") || strings.HasPrefix(s, `"`) {
		var nested []string
		if err := json.Unmarshal([]byte(s), &nested); err == nil {
			return NewRoleSet(nested...), nil
		}
		var single string
		if err := json.Unmarshal([]byte(s), &single); err == nil {
			return splitRoles(single), nil
		}
	}

	return splitRoles(s), nil
}

func splitRoles(s string) RoleSet {
	return NewRoleSet(strings.Split(s, ",")...)
}
