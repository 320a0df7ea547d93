package domain

import "time"

// AuthorizationCode is a short-lived, single-use credential issued by the
// code grant and redeemed at the token endpoint. Redemption consumes the
// row atomically; a code observed missing is simply an invalid grant.
type AuthorizationCode struct {
	ID          string
	CodeHash    string // SHA-256 fingerprint of the opaque code
	UserID      string
	ClientID    string
	RedirectURI string
	Scopes      []string
	ExpiresAt   time.Time
	CreatedAt   time.Time
}
