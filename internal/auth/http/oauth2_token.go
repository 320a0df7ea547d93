package http

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/service"
	"github.com/stagedoor/auth/pkg/httpx"
	"github.com/stagedoor/auth/pkg/oauth2x"
	"github.com/stagedoor/auth/pkg/slogx"
)

// TokenHandler serves POST /oauth/token.
// Accepts application/x-www-form-urlencoded per RFC 6749; client
// credentials arrive via HTTP Basic or the form body.
type TokenHandler struct {
	AuthnService *service.AuthnService
	TokenService *service.TokenService
}

func (h *TokenHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if ct := r.Header.Get("Content-Type"); ct != "" &&
		!strings.HasPrefix(ct, "application/x-www-form-urlencoded") {
		oauth2x.ErrInvalidContentType.WriteError(w)
		return
	}

	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteError(w)
		return
	}

	client, ok := h.authenticateClient(w, r)
	if !ok {
		return
	}

	switch r.Form.Get("grant_type") {
	case "authorization_code":
		h.handleAuthorizationCodeGrant(w, r, client, r.Form)
	case "password":
		h.handlePasswordGrant(w, r, client, r.Form)
	case "refresh_token":
		h.handleRefreshGrant(w, r, client, r.Form)
	default:
		oauth2x.ErrUnsupportedGrantType.WriteError(w)
	}
}

// authenticateClient resolves and verifies the caller, preferring HTTP
// Basic over body credentials. The handlers downstream receive the one
// resolved client and never re-fetch it.
func (h *TokenHandler) authenticateClient(w http.ResponseWriter, r *http.Request) (domain.Client, bool) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	clientID, clientSecret, ok := r.BasicAuth()
	if !ok {
		clientID = strings.TrimSpace(r.Form.Get("client_id"))
		clientSecret = r.Form.Get("client_secret")
	}
	if clientID == "" {
		oauth2x.ErrInvalidClient.WriteError(w)
		return domain.Client{}, false
	}

	client, err := h.AuthnService.AuthenticateClient(ctx, clientID, clientSecret)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrClientNotFound), errors.Is(err, service.ErrClientUnauthorized):
			log.Warn("client authentication rejected", "client_id", clientID)
			oauth2x.ErrInvalidClient.WriteError(w)
		default:
			log.Error("client authentication failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return domain.Client{}, false
	}

	return client, true
}

func (h *TokenHandler) handleAuthorizationCodeGrant(w http.ResponseWriter, r *http.Request, client domain.Client, form url.Values) {
	ctx := r.Context()

	code := strings.TrimSpace(form.Get("code"))
	redirectURI := strings.TrimSpace(form.Get("redirect_uri"))
	if code == "" || redirectURI == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeAuthorizationCode(ctx, client, code, redirectURI)
	if err != nil {
		writeGrantError(ctx, w, err, "authorization_code")
		return
	}

	writeTokenResponse(w, pair)
}

func (h *TokenHandler) handlePasswordGrant(w http.ResponseWriter, r *http.Request, client domain.Client, form url.Values) {
	ctx := r.Context()

	username := strings.TrimSpace(form.Get("username"))
	password := form.Get("password")
	requested := httpx.ParseSpaceDelimitedFields(form.Get("scope"))

	if username == "" || password == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangePassword(ctx, client, username, password, requested)
	if err != nil {
		writeGrantError(ctx, w, err, "password")
		return
	}

	writeTokenResponse(w, pair)
}

func (h *TokenHandler) handleRefreshGrant(w http.ResponseWriter, r *http.Request, client domain.Client, form url.Values) {
	ctx := r.Context()

	refresh := strings.TrimSpace(form.Get("refresh_token"))
	if refresh == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	pair, err := h.TokenService.ExchangeRefreshToken(ctx, client, refresh)
	if err != nil {
		writeGrantError(ctx, w, err, "refresh_token")
		return
	}

	writeTokenResponse(w, pair)
}

func writeGrantError(ctx context.Context, w http.ResponseWriter, err error, grantType string) {
	switch {
	case errors.Is(err, service.ErrInvalidGrant),
		errors.Is(err, service.ErrClientMismatch),
		errors.Is(err, service.ErrRedirectMismatch):
		oauth2x.ErrInvalidGrant.WriteError(w)
	case errors.Is(err, service.ErrInvalidScope):
		oauth2x.ErrInvalidScope.WriteError(w)
	default:
		slogx.FromContext(ctx).Error("token exchange failed", "grant_type", grantType, "err", err)
		oauth2x.ErrServerError.WriteError(w)
	}
}

func writeTokenResponse(w http.ResponseWriter, pair domain.TokenPair) {
	httpx.WriteJSON(w, http.StatusOK, oauth2x.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    pair.TokenType,
		ExpiresIn:    int(pair.ExpiresIn.Seconds()),
		Scope:        pair.Scope,
	})
}
