package http

import (
	"encoding/json"
	"net/http"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/service"
	"github.com/stagedoor/auth/pkg/httpx"
	"github.com/stagedoor/auth/pkg/slogx"
)

// ClientsHandler serves client registration.
type ClientsHandler struct {
	ClientService *service.ClientService
}

type createClientRequest struct {
	Name        string   `json:"name"`
	RedirectURI string   `json:"redirect_uri"`
	Scope       []string `json:"scope,omitempty"`
	Trusted     bool     `json:"trusted,omitempty"`
	Logo        string   `json:"logo,omitempty"`
}

type clientResponse struct {
	ID          string   `json:"id"`
	ClientID    string   `json:"client_id"`
	Name        string   `json:"name"`
	RedirectURI string   `json:"redirect_uri"`
	Scope       []string `json:"scope"`
	Trusted     bool     `json:"trusted"`
	Logo        string   `json:"logo"`
}

type createClientResponse struct {
	Client clientResponse `json:"client"`

	// ClientSecret is the plaintext secret; it is never shown again.
	ClientSecret string `json:"client_secret"`
}

func (h *ClientsHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := slogx.FromContext(ctx)

	var req createClientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAuthError(w, http.StatusBadRequest, "invalid_request", "request body must be valid JSON")
		return
	}
	if req.Name == "" || req.RedirectURI == "" {
		writeAuthError(w, http.StatusBadRequest, "invalid_request", "name and redirect_uri are required")
		return
	}

	client, secret, err := h.ClientService.CreateClient(ctx, req.Name, req.RedirectURI, req.Logo, req.Scope, req.Trusted)
	if err != nil {
		log.Error("client registration failed", "err", err)
		writeAuthError(w, http.StatusInternalServerError, "server_error", "could not register client")
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, createClientResponse{
		Client:       toClientResponse(client),
		ClientSecret: secret,
	})
}

func toClientResponse(c domain.Client) clientResponse {
	return clientResponse{
		ID:          c.ID,
		ClientID:    c.ClientID,
		Name:        c.Name,
		RedirectURI: c.RedirectURI,
		Scope:       c.Scopes,
		Trusted:     c.Trusted,
		Logo:        c.Logo,
	}
}
