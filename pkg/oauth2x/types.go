package oauth2x

// TokenResponse is the OAuth2 token endpoint response per RFC 6749,
// returned for all grant types on POST /oauth/token.
type TokenResponse struct {
	// AccessToken is the signed JWT access token.
	AccessToken string `json:"access_token"`

	// RefreshToken is the refresh token JWT; omitted for grants that do
	// not issue one (e.g. refresh_token exchanges).
	RefreshToken string `json:"refresh_token,omitempty"`

	// TokenType is always "bearer".
	TokenType string `json:"token_type"`

	// ExpiresIn is the access token lifetime in seconds.
	ExpiresIn int `json:"expires_in"`

	// Scope is the space-delimited list of granted scopes.
	Scope string `json:"scope,omitempty"`
}

// ErrorResponse mirrors the JSON error body for clients that decode it.
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}
