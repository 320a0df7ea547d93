package domain

import "time"

// TokenPair is what the token endpoint returns: a signed access token and,
// for grants that issue one, a refresh token.
type TokenPair struct {
	AccessToken  string        `json:"access_token"`
	RefreshToken string        `json:"refresh_token,omitempty"`
	TokenType    string        `json:"token_type,omitempty"` // "bearer"
	ExpiresIn    time.Duration `json:"expires_in"`           // seconds until access token expiry
	Scope        string        `json:"scope,omitempty"`      // space-delimited
}

// AccessToken is the audit row mirroring a signed access JWT's claims,
// keyed by the jti. The JWT is bearer-valid on its own; this row is the
// source of truth for audit and any future revocation.
type AccessToken struct {
	TokenID   string // jti embedded in the JWT
	UserID    string
	ClientID  string
	Scopes    []string
	ExpiresAt time.Time
	CreatedAt time.Time
}

// RefreshToken is the persisted record of an issued refresh token JWT.
// The refresh exchange looks the row up by jti after verifying the
// signature; a missing row means the grant is invalid.
type RefreshToken struct {
	TokenID   string // jti embedded in the JWT
	UserID    string
	ClientID  string
	Scopes    []string
	ExpiresAt time.Time
	CreatedAt time.Time
}
