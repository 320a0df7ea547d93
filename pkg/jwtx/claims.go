package jwtx

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Default token TTLs. Access tokens live a day, refresh tokens a year;
// these match the lifetimes clients were built against.
const (
	DefaultAccessTokenTTL  = 24 * time.Hour
	DefaultRefreshTokenTTL = 365 * 24 * time.Hour

	// DefaultSessionTTL bounds the browser session established at login.
	DefaultSessionTTL = 24 * time.Hour
)

// Claims are the token claims used across the service. The wire payload is
// {jti, sub, scope, exp} plus iss/iat for traceability.
type Claims struct {
	jwt.RegisteredClaims

	// Scope is the set of permissions granted to the bearer.
	Scope []string `json:"scope,omitempty"`
}

// NewClaims builds minimally-correct claims with a fresh random jti.
func NewClaims(subject string, scope []string, ttl time.Duration, issuer string, now time.Time) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        NewJTI(),
			Issuer:    issuer,
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Scope: scope,
	}
}

// NewJTI returns a random UUID for the "jti" claim. The same value keys the
// persisted token row, so it must be unique per issuance.
func NewJTI() string {
	return uuid.NewString()
}
