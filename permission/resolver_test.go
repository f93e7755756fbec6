package permission

import "testing"

func TestParseRole(t *testing.T) {
	for _, role := range Roles {
		got, ok := ParseRole(role.String())
		if !ok || got != role {
			t.Fatalf("round trip %v: got %v ok=%v", role, got, ok)
		}
	}
	if got, ok := ParseRole("  cLiNiC "); !ok || got != RoleClinic {
		t.Fatalf("case-insensitive parse failed: %v %v", got, ok)
	}
	if _, ok := ParseRole("Receptionist"); ok {
		t.Fatal("unknown tag must not parse")
	}
	if RoleNone.String() != "" || RoleNone.Known() {
		t.Fatal("RoleNone must be empty and unknown")
	}
}

func TestResolvePathPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		path  string
		roles []string
		want  Role
		src   Source
		held  bool
	}{
		{name: "clinic scenario", path: "/clinic/dashboard", roles: []string{"Clinic", "Vet"}, want: RoleClinic, src: SourcePath, held: true},
		{name: "path beats role order", path: "/vet/appointments", roles: []string{"Clinic", "Vet"}, want: RoleVet, src: SourcePath, held: true},
		{name: "path beats missing role", path: "/admin/users", roles: []string{"User"}, want: RoleAdmin, src: SourcePath, held: false},
		{name: "path with empty roles", path: "/staff", roles: nil, want: RoleStaff, src: SourcePath, held: false},
		{name: "query stripped", path: "/Clinic?tab=pets", roles: nil, want: RoleClinic, src: SourcePath},
		{name: "trailing slash", path: "/user/", roles: nil, want: RoleUser, src: SourcePath},
		{name: "segment aware", path: "/veterinary", roles: []string{"User"}, want: RoleUser, src: SourceStored, held: true},
		{name: "stored fallback", path: "/community/posts", roles: []string{"Vet", "User"}, want: RoleVet, src: SourceStored, held: true},
		{name: "skips unknown stored", path: "/", roles: []string{"Guest", "Staff"}, want: RoleStaff, src: SourceStored, held: true},
		{name: "only unknown stored", path: "/", roles: []string{"Guest", "Owner"}, want: RoleNone, src: SourceNone},
		{name: "nothing", path: "/", roles: nil, want: RoleNone, src: SourceNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := ResolveDetail(tt.path, tt.roles)
			if res.Role != tt.want || res.Source != tt.src || res.Held != tt.held {
				t.Fatalf("want %v/%v/held=%v, got %v/%v/held=%v", tt.want, tt.src, tt.held, res.Role, res.Source, res.Held)
			}
			if Resolve(tt.path, tt.roles) != tt.want {
				t.Fatalf("Resolve disagrees with ResolveDetail")
			}
		})
	}
}

func TestResolvePrefixWinsForAnyRoleOrder(t *testing.T) {
	perms := [][]string{
		{"Admin", "Staff", "Clinic", "Vet", "User"},
		{"User", "Vet", "Clinic", "Staff", "Admin"},
		{"Vet"},
		{},
	}
	for _, role := range Roles {
		path := PathPrefix(role) + "/anything"
		for _, roles := range perms {
			if got := Resolve(path, roles); got != role {
				t.Fatalf("path %s roles %v: want %v, got %v", path, roles, role, got)
			}
		}
	}
}
