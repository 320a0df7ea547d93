package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/store"
	"github.com/stagedoor/auth/pkg/cryptox"
	"github.com/stagedoor/auth/pkg/idx"
	"github.com/stagedoor/auth/pkg/slogx"
)

var (
	ErrInvalidTransaction  = errors.New("service: unknown or expired transaction")
	ErrInvalidRedirectURI  = errors.New("service: redirect_uri does not match the client registration")
	ErrInvalidResponseType = errors.New("service: unsupported response_type")
)

const (
	// AuthorizationCodeTTL bounds how long a code can sit unredeemed.
	AuthorizationCodeTTL = 10 * time.Minute

	// TransactionTTL bounds how long a consent prompt may stay open.
	TransactionTTL = 5 * time.Minute
)

// Grant is the tagged outcome of an authorization. Exactly one of Code or
// Token is populated on approval; Denied marks a user refusal, which the
// HTTP layer turns into an access_denied redirect.
type Grant struct {
	ResponseType string
	RedirectURI  string
	State        string

	Denied bool
	Code   string
	Token  *domain.TokenPair
}

// StartResult is what starting an authorization produces: either a grant
// (trusted client, no prompt) or a pending transaction for the consent
// page. Exactly one field is set.
type StartResult struct {
	Grant       *Grant
	Transaction *domain.ConsentTransaction
}

// AuthorizeService runs the authorization endpoint flows: it validates the
// request against the client registration, tracks pending consent
// transactions, and mints grants when consent lands.
type AuthorizeService struct {
	store  store.Store
	tokens *TokenService
}

func NewAuthorizeService(st store.Store, tokens *TokenService) *AuthorizeService {
	return &AuthorizeService{store: st, tokens: tokens}
}

// StartTransaction validates an authorize request. Trusted clients are
// granted immediately; everyone else gets a pending transaction whose id
// the consent form posts back.
func (s *AuthorizeService) StartTransaction(ctx context.Context, userID, clientID, redirectURI, responseType, state string, requested []string) (StartResult, error) {
	if responseType != domain.ResponseTypeCode && responseType != domain.ResponseTypeToken {
		return StartResult{}, ErrInvalidResponseType
	}

	client, err := s.store.Clients().GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return StartResult{}, ErrClientNotFound
		}
		return StartResult{}, fmt.Errorf("service: lookup client: %w", err)
	}

	// Exact string match only. No prefix or wildcard matching.
	if redirectURI == "" {
		redirectURI = client.RedirectURI
	} else if redirectURI != client.RedirectURI {
		return StartResult{}, ErrInvalidRedirectURI
	}

	scopes, err := narrowScopes(requested, client.Scopes)
	if err != nil {
		return StartResult{}, err
	}

	if client.Trusted {
		grant, err := s.approve(ctx, userID, client, redirectURI, responseType, state, scopes)
		if err != nil {
			return StartResult{}, err
		}
		return StartResult{Grant: grant}, nil
	}

	id, err := cryptox.GenerateToken(cryptox.TokenSize128)
	if err != nil {
		return StartResult{}, fmt.Errorf("service: generate transaction id: %w", err)
	}

	now := time.Now().UTC()
	txn := domain.ConsentTransaction{
		ID:           id,
		UserID:       userID,
		ClientID:     client.ID,
		RedirectURI:  redirectURI,
		Scopes:       scopes,
		ResponseType: responseType,
		State:        state,
		ExpiresAt:    now.Add(TransactionTTL),
		CreatedAt:    now,
	}
	if err := s.store.Transactions().CreateTransaction(ctx, txn); err != nil {
		return StartResult{}, fmt.Errorf("service: create transaction: %w", err)
	}

	return StartResult{Transaction: &txn}, nil
}

// Decide resolves a pending transaction. The transaction is consumed
// whether the user allows or denies, so a transaction id settles exactly
// one decision.
func (s *AuthorizeService) Decide(ctx context.Context, userID, transactionID string, allow bool) (*Grant, error) {
	txn, err := s.store.Transactions().ConsumeTransaction(ctx, transactionID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrInvalidTransaction
		}
		return nil, fmt.Errorf("service: consume transaction: %w", err)
	}

	if time.Now().UTC().After(txn.ExpiresAt) || txn.UserID != userID {
		return nil, ErrInvalidTransaction
	}

	if !allow {
		slogx.FromContext(ctx).Info("authorization denied", "user_id", userID, "client_id", txn.ClientID)
		return &Grant{
			ResponseType: txn.ResponseType,
			RedirectURI:  txn.RedirectURI,
			State:        txn.State,
			Denied:       true,
		}, nil
	}

	client, err := s.store.Clients().GetClientByID(ctx, txn.ClientID)
	if err != nil {
		return nil, fmt.Errorf("service: lookup client: %w", err)
	}

	return s.approve(ctx, userID, client, txn.RedirectURI, txn.ResponseType, txn.State, txn.Scopes)
}

// approve mints the grant for an approved authorization: a single-use
// code for response_type=code, an access token for response_type=token.
func (s *AuthorizeService) approve(ctx context.Context, userID string, client domain.Client, redirectURI, responseType, state string, scopes []string) (*Grant, error) {
	grant := &Grant{
		ResponseType: responseType,
		RedirectURI:  redirectURI,
		State:        state,
	}

	switch responseType {
	case domain.ResponseTypeCode:
		code, err := cryptox.GenerateCode(cryptox.AuthorizationCodeLength)
		if err != nil {
			return nil, fmt.Errorf("service: generate authorization code: %w", err)
		}

		now := time.Now().UTC()
		err = s.store.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
			ID:          idx.New().String(),
			CodeHash:    cryptox.FingerprintToken(code),
			UserID:      userID,
			ClientID:    client.ID,
			RedirectURI: redirectURI,
			Scopes:      scopes,
			ExpiresAt:   now.Add(AuthorizationCodeTTL),
			CreatedAt:   now,
		})
		if err != nil {
			return nil, fmt.Errorf("service: store authorization code: %w", err)
		}
		grant.Code = code

	case domain.ResponseTypeToken:
		pair, err := s.tokens.IssueAccessToken(ctx, userID, client.ID, scopes)
		if err != nil {
			return nil, err
		}
		grant.Token = &pair

	default:
		return nil, ErrInvalidResponseType
	}

	slogx.FromContext(ctx).Info("authorization granted",
		"user_id", userID, "client_id", client.ClientID, "response_type", responseType)
	return grant, nil
}
