package domain

import "time"

type User struct {
	ID           string
	Username     string // unique, stored lowercase
	DisplayName  string // as entered at registration
	Email        string // unique
	PasswordHash string // bcrypt; set only through cryptox
	RoleID       string // foreign key to roles table
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
