package domain

import "time"

// Role is an authorization label attached to a user. The token engine never
// consults it; registration requires the default "user" role to exist.
type Role struct {
	ID        string
	Name      string // unique
	CreatedAt time.Time
	UpdatedAt time.Time
}

// DefaultRoleName is the role every registered user is assigned.
const DefaultRoleName = "user"
