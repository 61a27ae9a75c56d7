package domain

// Role identifies the account type. Values are wire codes carried in the
// session token, so they must stay stable.
type Role int

const (
	RoleAdmin      Role = 1
	RoleSuperAdmin Role = 2
	RoleWholesaler Role = 3
	RoleRetailer   Role = 4
)

// Valid reports whether the role is a known wire code.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleSuperAdmin, RoleWholesaler, RoleRetailer:
		return true
	}
	return false
}

// IsAdministrative reports whether the role may impersonate other accounts.
func (r Role) IsAdministrative() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

func (r Role) String() string {
	switch r {
	case RoleAdmin:
		return "admin"
	case RoleSuperAdmin:
		return "super_admin"
	case RoleWholesaler:
		return "wholesaler"
	case RoleRetailer:
		return "retailer"
	default:
		return "unknown"
	}
}

// LandingRoute returns the panel path a freshly authenticated account of this
// role should land on.
func (r Role) LandingRoute() string {
	switch r {
	case RoleAdmin, RoleSuperAdmin:
		return "/panel/admin"
	case RoleWholesaler:
		return "/panel/wholesale"
	case RoleRetailer:
		return "/panel/retail"
	default:
		return "/login"
	}
}
