package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/store"
	"github.com/stagedoor/auth/pkg/cryptox"
	"github.com/stagedoor/auth/pkg/idx"
	"github.com/stagedoor/auth/pkg/slogx"
)

var ErrDuplicateClient = errors.New("service: client_id already taken")

// ClientIDLength is the length of generated public client identifiers.
const ClientIDLength = 32

// ClientService registers OAuth2 clients. The generated secret is
// returned in plaintext exactly once; only its hash is stored.
type ClientService struct {
	store store.Store
}

func NewClientService(st store.Store) *ClientService {
	return &ClientService{store: st}
}

// CreateClient registers a client and returns it together with the
// plaintext secret. The secret cannot be recovered afterwards.
func (s *ClientService) CreateClient(ctx context.Context, name, redirectURI, logo string, scopes []string, trusted bool) (domain.Client, string, error) {
	name = strings.TrimSpace(name)
	if name == "" || redirectURI == "" {
		return domain.Client{}, "", fmt.Errorf("service: name and redirect_uri are required")
	}
	if logo == "" {
		logo = domain.DefaultClientLogo
	}

	clientID, err := cryptox.GenerateCode(ClientIDLength)
	if err != nil {
		return domain.Client{}, "", fmt.Errorf("service: generate client_id: %w", err)
	}

	secret, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return domain.Client{}, "", fmt.Errorf("service: generate client secret: %w", err)
	}

	secretHash, err := cryptox.HashSecret(secret)
	if err != nil {
		return domain.Client{}, "", fmt.Errorf("service: hash client secret: %w", err)
	}

	now := time.Now().UTC()
	client := domain.Client{
		ID:          idx.New().String(),
		ClientID:    clientID,
		Name:        name,
		SecretHash:  secretHash,
		Trusted:     trusted,
		RedirectURI: redirectURI,
		Scopes:      scopes,
		Logo:        logo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.store.Clients().CreateClient(ctx, client); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.Client{}, "", ErrDuplicateClient
		}
		return domain.Client{}, "", fmt.Errorf("service: create client: %w", err)
	}

	slogx.FromContext(ctx).Info("client registered", "client_id", client.ClientID, "name", client.Name, "trusted", client.Trusted)
	return client, secret, nil
}
