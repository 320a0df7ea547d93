package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/store"
	"github.com/stagedoor/auth/pkg/cryptox"
	"github.com/stagedoor/auth/pkg/jwtx"
	"github.com/stagedoor/auth/pkg/slogx"
)

var (
	ErrInvalidGrant     = errors.New("service: grant is invalid, expired or already used")
	ErrClientMismatch   = errors.New("service: grant belongs to a different client")
	ErrRedirectMismatch = errors.New("service: redirect_uri does not match the grant")
	ErrInvalidScope     = errors.New("service: requested scope exceeds the client's grant")
)

// TokenService signs access and refresh tokens and runs the token-endpoint
// exchanges. Every issued token is recorded by jti before the token string
// leaves this package; a failed write fails the exchange.
type TokenService struct {
	store    store.Store
	authn    *AuthnService
	signer   jwtx.Signer
	verifier jwtx.Verifier
	issuer   string

	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewTokenService(st store.Store, authn *AuthnService, signer jwtx.Signer, verifier jwtx.Verifier, issuer string) *TokenService {
	return &TokenService{
		store:      st,
		authn:      authn,
		signer:     signer,
		verifier:   verifier,
		issuer:     issuer,
		accessTTL:  jwtx.DefaultAccessTokenTTL,
		refreshTTL: jwtx.DefaultRefreshTokenTTL,
	}
}

// IssueAccessToken issues a signed access token only, as the implicit
// grant and the refresh exchange require.
func (s *TokenService) IssueAccessToken(ctx context.Context, userID, clientID string, scopes []string) (domain.TokenPair, error) {
	access, err := s.signAccessToken(ctx, userID, clientID, scopes)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken: access,
		TokenType:   "bearer",
		ExpiresIn:   s.accessTTL,
		Scope:       joinScope(scopes),
	}, nil
}

// IssuePair issues an access token plus a refresh token.
func (s *TokenService) IssuePair(ctx context.Context, userID, clientID string, scopes []string) (domain.TokenPair, error) {
	pair, err := s.IssueAccessToken(ctx, userID, clientID, scopes)
	if err != nil {
		return domain.TokenPair{}, err
	}

	refresh, err := s.signRefreshToken(ctx, userID, clientID, scopes)
	if err != nil {
		return domain.TokenPair{}, err
	}

	pair.RefreshToken = refresh
	return pair, nil
}

// ExchangeAuthorizationCode redeems an authorization code for a token
// pair. The code row is consumed atomically, so a replayed or contested
// code fails here with ErrInvalidGrant for every caller but the first.
func (s *TokenService) ExchangeAuthorizationCode(ctx context.Context, client domain.Client, code, redirectURI string) (domain.TokenPair, error) {
	row, err := s.store.AuthorizationCodes().ConsumeAuthorizationCode(ctx, cryptox.FingerprintToken(code))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidGrant
		}
		return domain.TokenPair{}, fmt.Errorf("service: consume authorization code: %w", err)
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return domain.TokenPair{}, ErrInvalidGrant
	}
	if row.ClientID != client.ID {
		return domain.TokenPair{}, ErrClientMismatch
	}
	if redirectURI != row.RedirectURI {
		return domain.TokenPair{}, ErrRedirectMismatch
	}

	return s.IssuePair(ctx, row.UserID, client.ID, row.Scopes)
}

// ExchangePassword implements the resource-owner password grant: verify
// the user's credentials, scope down to what the client is registered
// for, and issue a pair.
func (s *TokenService) ExchangePassword(ctx context.Context, client domain.Client, username, password string, requested []string) (domain.TokenPair, error) {
	user, err := s.authn.LoginUser(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrIncorrectPassword) {
			return domain.TokenPair{}, ErrInvalidGrant
		}
		return domain.TokenPair{}, err
	}

	scopes, err := narrowScopes(requested, client.Scopes)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return s.IssuePair(ctx, user.ID, client.ID, scopes)
}

// ExchangeRefreshToken issues a fresh access token from a refresh token.
// The JWT signature and expiry are checked before any store access; only
// an authentic token reaches the row lookup. The refresh token itself is
// not rotated.
func (s *TokenService) ExchangeRefreshToken(ctx context.Context, client domain.Client, refreshToken string) (domain.TokenPair, error) {
	claims, err := s.verifier.Verify(refreshToken)
	if err != nil {
		return domain.TokenPair{}, ErrInvalidGrant
	}

	row, err := s.store.RefreshTokens().GetRefreshTokenByID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.TokenPair{}, ErrInvalidGrant
		}
		return domain.TokenPair{}, fmt.Errorf("service: lookup refresh token: %w", err)
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return domain.TokenPair{}, ErrInvalidGrant
	}
	if row.ClientID != client.ID {
		return domain.TokenPair{}, ErrClientMismatch
	}

	return s.IssueAccessToken(ctx, row.UserID, client.ID, row.Scopes)
}

// signAccessToken signs the JWT and writes its audit row. The row write
// happens before the token string is returned anywhere.
func (s *TokenService) signAccessToken(ctx context.Context, userID, clientID string, scopes []string) (string, error) {
	now := time.Now().UTC()
	claims := jwtx.NewClaims(userID, scopes, s.accessTTL, s.issuer, now)

	signed, err := s.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("service: sign access token: %w", err)
	}

	err = s.store.AccessTokens().CreateAccessToken(ctx, domain.AccessToken{
		TokenID:   claims.ID,
		UserID:    userID,
		ClientID:  clientID,
		Scopes:    scopes,
		ExpiresAt: now.Add(s.accessTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("service: record access token: %w", err)
	}

	slogx.FromContext(ctx).Debug("access token issued", "jti", claims.ID, "user_id", userID)
	return signed, nil
}

func (s *TokenService) signRefreshToken(ctx context.Context, userID, clientID string, scopes []string) (string, error) {
	now := time.Now().UTC()
	claims := jwtx.NewClaims(userID, scopes, s.refreshTTL, s.issuer, now)

	signed, err := s.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("service: sign refresh token: %w", err)
	}

	err = s.store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		TokenID:   claims.ID,
		UserID:    userID,
		ClientID:  clientID,
		Scopes:    scopes,
		ExpiresAt: now.Add(s.refreshTTL),
		CreatedAt: now,
	})
	if err != nil {
		return "", fmt.Errorf("service: record refresh token: %w", err)
	}

	return signed, nil
}
