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
	"github.com/stagedoor/auth/pkg/jwtx"
	"github.com/stagedoor/auth/pkg/slogx"
)

var (
	ErrRoleMissing        = errors.New("service: default role missing")
	ErrDuplicateUser      = errors.New("service: username or email already taken")
	ErrUserNotFound       = errors.New("service: user not found")
	ErrIncorrectPassword  = errors.New("service: incorrect password")
	ErrClientNotFound     = errors.New("service: client not found")
	ErrClientUnauthorized = errors.New("service: client secret rejected")
)

// AuthnService authenticates users and clients and establishes browser
// sessions. The user-facing lookup failures stay distinct here so logs can
// tell them apart; the HTTP layer collapses them into one response.
type AuthnService struct {
	store  store.Store
	signer jwtx.Signer
	issuer string

	sessionTTL time.Duration
}

func NewAuthnService(st store.Store, signer jwtx.Signer, issuer string) *AuthnService {
	return &AuthnService{
		store:      st,
		signer:     signer,
		issuer:     issuer,
		sessionTTL: jwtx.DefaultSessionTTL,
	}
}

// RegisterUser creates a user with the default role. The username is
// stored lowercase; the display name keeps the caller's casing.
func (s *AuthnService) RegisterUser(ctx context.Context, username, email, password string) (domain.User, error) {
	displayName := strings.TrimSpace(username)
	username = strings.ToLower(displayName)
	email = strings.ToLower(strings.TrimSpace(email))

	if username == "" || email == "" || password == "" {
		return domain.User{}, fmt.Errorf("service: username, email and password are required")
	}

	hash, err := cryptox.HashSecret(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("service: hash password: %w", err)
	}

	role, err := s.store.Roles().GetRoleByName(ctx, domain.DefaultRoleName)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrRoleMissing
		}
		return domain.User{}, fmt.Errorf("service: lookup default role: %w", err)
	}

	now := time.Now().UTC()
	user := domain.User{
		ID:           idx.New().String(),
		Username:     username,
		DisplayName:  displayName,
		Email:        email,
		PasswordHash: hash,
		RoleID:       role.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.store.Users().CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			return domain.User{}, ErrDuplicateUser
		}
		return domain.User{}, fmt.Errorf("service: create user: %w", err)
	}

	slogx.FromContext(ctx).Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// LoginUser verifies the username/password pair and returns the user.
func (s *AuthnService) LoginUser(ctx context.Context, username, password string) (domain.User, error) {
	username = strings.ToLower(strings.TrimSpace(username))

	user, err := s.store.Users().GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.User{}, ErrUserNotFound
		}
		return domain.User{}, fmt.Errorf("service: lookup user: %w", err)
	}

	if !cryptox.VerifySecret(password, user.PasswordHash) {
		return domain.User{}, ErrIncorrectPassword
	}

	return user, nil
}

// AuthenticateClient resolves the public client_id and, when the client
// has a secret on file, verifies the presented secret against its hash.
func (s *AuthnService) AuthenticateClient(ctx context.Context, clientID, secret string) (domain.Client, error) {
	client, err := s.store.Clients().GetClientByClientID(ctx, clientID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return domain.Client{}, ErrClientNotFound
		}
		return domain.Client{}, fmt.Errorf("service: lookup client: %w", err)
	}

	if client.SecretHash != "" && !cryptox.VerifySecret(secret, client.SecretHash) {
		return domain.Client{}, ErrClientUnauthorized
	}

	return client, nil
}

// IssueSession signs a session token for the user, set as a cookie by the
// HTTP layer after register/login.
func (s *AuthnService) IssueSession(user domain.User) (string, error) {
	claims := jwtx.NewClaims(user.ID, nil, s.sessionTTL, s.issuer, time.Now().UTC())
	token, err := s.signer.Sign(claims)
	if err != nil {
		return "", fmt.Errorf("service: sign session token: %w", err)
	}
	return token, nil
}
