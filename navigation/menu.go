package navigation

import "github.com/MrEthical07/vetsession/permission"

// MenuItem is one entry of a role's side navigation.
type MenuItem struct {
	Label string `json:"label"`
	Path  string `json:"path"`
	Icon  string `json:"icon"`
}

var (
	adminMenu = []MenuItem{
		{Label: "Dashboard", Path: "/admin/dashboard", Icon: "dashboard"},
		{Label: "Clinics", Path: "/admin/clinics", Icon: "local_hospital"},
		{Label: "Users", Path: "/admin/users", Icon: "group"},
		{Label: "Services", Path: "/admin/services", Icon: "medical_services"},
		{Label: "Community", Path: "/admin/posts", Icon: "forum"},
		{Label: "Reports", Path: "/admin/reports", Icon: "bar_chart"},
	}
	staffMenu = []MenuItem{
		{Label: "Dashboard", Path: "/staff/dashboard", Icon: "dashboard"},
		{Label: "Appointments", Path: "/staff/appointments", Icon: "event"},
		{Label: "Customers", Path: "/staff/customers", Icon: "people"},
		{Label: "Pets", Path: "/staff/pets", Icon: "pets"},
	}
	clinicMenu = []MenuItem{
		{Label: "Dashboard", Path: "/clinic/dashboard", Icon: "dashboard"},
		{Label: "Appointments", Path: "/clinic/appointments", Icon: "event"},
		{Label: "Veterinarians", Path: "/clinic/vets", Icon: "badge"},
		{Label: "Staff", Path: "/clinic/staff", Icon: "groups"},
		{Label: "Services", Path: "/clinic/services", Icon: "medical_services"},
		{Label: "Clinic profile", Path: "/clinic/profile", Icon: "store"},
	}
	vetMenu = []MenuItem{
		{Label: "Dashboard", Path: "/vet/dashboard", Icon: "dashboard"},
		{Label: "Schedule", Path: "/vet/schedule", Icon: "calendar_month"},
		{Label: "Appointments", Path: "/vet/appointments", Icon: "event"},
		{Label: "Medical records", Path: "/vet/records", Icon: "description"},
	}
	userMenu = []MenuItem{
		{Label: "Home", Path: "/user/home", Icon: "home"},
		{Label: "My pets", Path: "/user/pets", Icon: "pets"},
		{Label: "Appointments", Path: "/user/appointments", Icon: "event"},
		{Label: "Community", Path: "/user/posts", Icon: "forum"},
		{Label: "Profile", Path: "/user/profile", Icon: "person"},
	}
)

// BuildMenu returns the ordered menu for role. Unknown roles and [permission.RoleNone] get an
// empty menu. The returned slice is a copy and may be modified by the caller.
func BuildMenu(role permission.Role) []MenuItem {
	var table []MenuItem
	switch role {
	case permission.RoleAdmin:
		table = adminMenu
	case permission.RoleStaff:
		table = staffMenu
	case permission.RoleClinic:
		table = clinicMenu
	case permission.RoleVet:
		table = vetMenu
	case permission.RoleUser:
		table = userMenu
	case permission.RoleNone:
		return []MenuItem{}
	default:
		return []MenuItem{}
	}

	out := make([]MenuItem, len(table))
	copy(out, table)
	return out
}

// Title returns the dashboard heading shown for role.
func Title(role permission.Role) string {
	switch role {
	case permission.RoleAdmin:
		return "Administration"
	case permission.RoleStaff:
		return "Front desk"
	case permission.RoleClinic:
		return "Clinic management"
	case permission.RoleVet:
		return "Veterinarian workspace"
	case permission.RoleUser:
		return "My pets"
	default:
		return ""
	}
}
