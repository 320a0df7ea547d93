package domain

import "time"

// Authorization response types.
const (
	ResponseTypeCode  = "code"  // authorization code flow
	ResponseTypeToken = "token" // implicit flow
)

// ConsentTransaction tracks an in-flight user-consent decision between the
// authorize request and the decision callback. It is keyed by an opaque
// transaction id, lives server-side only, and is deleted once decided.
type ConsentTransaction struct {
	ID           string // opaque, unguessable
	UserID       string
	ClientID     string
	RedirectURI  string
	Scopes       []string
	ResponseType string // code or token
	State        string
	ExpiresAt    time.Time
	CreatedAt    time.Time
}
