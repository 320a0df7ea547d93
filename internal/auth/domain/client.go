package domain

import "time"

// Client is a registered OAuth2 client application.
type Client struct {
	ID          string
	ClientID    string // unique public identifier presented at the endpoints
	Name        string
	SecretHash  string // bcrypt; re-hashed only when the plaintext secret changes
	Trusted     bool   // trusted clients skip the interactive consent step
	RedirectURI string
	Scopes      []string
	Logo        string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// DefaultClientLogo is used when registration supplies no logo.
const DefaultClientLogo = "https://via.placeholder.com/150"
