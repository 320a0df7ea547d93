package http

import (
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/service"
	"github.com/stagedoor/auth/pkg/httpx"
	"github.com/stagedoor/auth/pkg/oauth2x"
	"github.com/stagedoor/auth/pkg/slogx"
)

// AuthorizeHandler serves GET /oauth/authorize and the consent decision
// callback. Both sit behind the session middleware.
type AuthorizeHandler struct {
	AuthorizeService *service.AuthorizeService
}

type consentResponse struct {
	TransactionID string   `json:"transaction_id"`
	ClientID      string   `json:"client_id"`
	Scope         []string `json:"scope"`
	State         string   `json:"state,omitempty"`
	ExpiresIn     int      `json:"expires_in"`
}

// HandleStart validates the authorize request. A trusted client redirects
// straight back with its grant; everything else returns the pending
// transaction for the consent prompt.
func (h *AuthorizeHandler) HandleStart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	q := r.URL.Query()
	clientID := strings.TrimSpace(q.Get("client_id"))
	redirectURI := strings.TrimSpace(q.Get("redirect_uri"))
	responseType := strings.TrimSpace(q.Get("response_type"))
	state := q.Get("state")
	scopes := httpx.ParseSpaceDelimitedFields(q.Get("scope"))

	if clientID == "" || responseType == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}

	userID := httpx.UserIDFromContext(ctx)

	res, err := h.AuthorizeService.StartTransaction(ctx, userID, clientID, redirectURI, responseType, state, scopes)
	if err != nil {
		// Client and redirect_uri failures must never redirect; the
		// redirect target is exactly what could not be validated.
		switch {
		case errors.Is(err, service.ErrClientNotFound),
			errors.Is(err, service.ErrInvalidRedirectURI):
			oauth2x.ErrInvalidRequest.WriteError(w)
		case errors.Is(err, service.ErrInvalidResponseType):
			oauth2x.ErrUnsupportedResponseType.WriteError(w)
		case errors.Is(err, service.ErrInvalidScope):
			oauth2x.ErrInvalidScope.WriteError(w)
		default:
			log.Error("authorize failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return
	}

	if res.Grant != nil {
		redirectGrant(w, r, res.Grant)
		return
	}

	txn := res.Transaction
	httpx.WriteJSON(w, http.StatusOK, consentResponse{
		TransactionID: txn.ID,
		ClientID:      clientID,
		Scope:         txn.Scopes,
		State:         txn.State,
		ExpiresIn:     int(time.Until(txn.ExpiresAt).Seconds()),
	})
}

// HandleDecision resolves a pending transaction from the consent form.
func (h *AuthorizeHandler) HandleDecision(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	if err := r.ParseForm(); err != nil {
		oauth2x.ErrInvalidFormBody.WriteError(w)
		return
	}

	transactionID := strings.TrimSpace(r.Form.Get("transaction_id"))
	if transactionID == "" {
		oauth2x.ErrInvalidRequest.WriteError(w)
		return
	}
	allow := r.Form.Get("allow") == "true"

	userID := httpx.UserIDFromContext(ctx)

	grant, err := h.AuthorizeService.Decide(ctx, userID, transactionID, allow)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidTransaction):
			oauth2x.ErrInvalidRequest.WriteError(w)
		default:
			log.Error("authorize decision failed", "err", err)
			oauth2x.ErrServerError.WriteError(w)
		}
		return
	}

	redirectGrant(w, r, grant)
}

// redirectGrant sends the user agent back to the client: code grants in
// the query string, implicit tokens in the fragment, denials as
// error=access_denied in whichever part the response type uses.
func redirectGrant(w http.ResponseWriter, r *http.Request, grant *service.Grant) {
	target, err := url.Parse(grant.RedirectURI)
	if err != nil {
		oauth2x.ErrServerError.WriteError(w)
		return
	}

	params := url.Values{}
	switch {
	case grant.Denied:
		params.Set("error", oauth2x.ErrorCodeAccessDenied)
	case grant.ResponseType == domain.ResponseTypeCode:
		params.Set("code", grant.Code)
	default:
		params.Set("access_token", grant.Token.AccessToken)
		params.Set("token_type", grant.Token.TokenType)
		params.Set("expires_in", strconv.Itoa(int(grant.Token.ExpiresIn.Seconds())))
		if grant.Token.Scope != "" {
			params.Set("scope", grant.Token.Scope)
		}
	}
	if grant.State != "" {
		params.Set("state", grant.State)
	}

	if grant.ResponseType == domain.ResponseTypeToken {
		target.Fragment = params.Encode()
	} else {
		q := target.Query()
		for k, vs := range params {
			for _, v := range vs {
				q.Set(k, v)
			}
		}
		target.RawQuery = q.Encode()
	}

	httpx.NoCache(w)
	http.Redirect(w, r, target.String(), http.StatusFound)
}
