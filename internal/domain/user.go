package domain

import "time"

// Role identifies what an account may do.
type Role string

const (
	RoleClient Role = "CLIENT"
	RoleTech   Role = "TECH"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleClient || r == RoleTech
}

// User is the domain model for clients and technicians.
type User struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
