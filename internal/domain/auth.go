package domain

// Principal is the authenticated caller as asserted by the identity provider.
type Principal struct {
	ID   string
	Role Role
}

// IsTech reports whether the caller acts as a technician.
func (p Principal) IsTech() bool {
	return p.Role == RoleTech
}
