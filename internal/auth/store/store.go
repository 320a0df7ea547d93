package store

import (
	"context"
	"errors"

	"github.com/stagedoor/auth/internal/auth/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface. Concrete drivers (sqlite today)
// implement this. Sub-repositories keep concerns tidy and testable.
type Store interface {
	Users() Users
	Clients() Clients
	Roles() Roles
	AuthorizationCodes() AuthorizationCodes
	AccessTokens() AccessTokens
	RefreshTokens() RefreshTokens
	Transactions() Transactions

	ApplyMigrations() error

	// Tx starts a read/write transaction and returns a Tx-scoped Store.
	// The caller MUST call Commit() or Rollback() on the returned Tx.
	Tx(ctx context.Context) (Tx, error)

	// WithTx executes fn within a transaction, rolling back when fn
	// returns an error and committing otherwise. Preferred over Tx for
	// multi-step operations that must be atomic.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	// Close releases underlying resources.
	Close() error

	// Ping verifies the database connection is still alive.
	Ping(ctx context.Context) error
}

// Tx is a transactional store with commit/rollback.
type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Users interface {
	// GetUserByID returns a user by id.
	GetUserByID(ctx context.Context, id string) (domain.User, error)

	// GetUserByUsername looks up by the lowercase username; used during
	// login and the password grant.
	GetUserByUsername(ctx context.Context, username string) (domain.User, error)

	// CreateUser inserts a new user. Returns ErrAlreadyExists when the
	// username or email is already taken.
	CreateUser(ctx context.Context, u domain.User) error

	// UpdatePasswordHash sets the password_hash and bumps updated_at.
	UpdatePasswordHash(ctx context.Context, userID, newHash string) error

	// UpdateUserRole reassigns the user's role.
	UpdateUserRole(ctx context.Context, userID, roleID string) error

	// DeleteUser removes a user; token rows cascade per schema.
	DeleteUser(ctx context.Context, userID string) error
}

type Clients interface {
	// GetClientByID fetches a client by its row id.
	GetClientByID(ctx context.Context, id string) (domain.Client, error)

	// GetClientByClientID fetches a client by its public client_id, as
	// presented at the authorize and token endpoints.
	GetClientByClientID(ctx context.Context, clientID string) (domain.Client, error)

	// CreateClient inserts a new client. Returns ErrAlreadyExists when
	// the client_id collides.
	CreateClient(ctx context.Context, c domain.Client) error

	// UpdateClientSecretHash replaces the stored secret hash.
	UpdateClientSecretHash(ctx context.Context, id, secretHash string) error

	// DeleteClient removes a client; token rows cascade per schema.
	DeleteClient(ctx context.Context, id string) error
}

type Roles interface {
	// GetRoleByID fetches a role by id.
	GetRoleByID(ctx context.Context, id string) (domain.Role, error)

	// GetRoleByName fetches a role by its unique name. Registration
	// depends on the "user" role resolving here.
	GetRoleByName(ctx context.Context, name string) (domain.Role, error)

	// CreateRole inserts a new role.
	CreateRole(ctx context.Context, r domain.Role) error
}

type AuthorizationCodes interface {
	// CreateAuthorizationCode stores a freshly minted code.
	CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error

	// ConsumeAuthorizationCode atomically deletes the code row by its
	// fingerprint and returns it. Exactly one concurrent caller wins;
	// every other caller gets ErrNotFound. Expiry is NOT checked here:
	// callers compare ExpiresAt against the current time.
	ConsumeAuthorizationCode(ctx context.Context, codeHash string) (domain.AuthorizationCode, error)

	// DeleteExpiredAuthorizationCodes is housekeeping.
	DeleteExpiredAuthorizationCodes(ctx context.Context) error
}

type AccessTokens interface {
	// CreateAccessToken writes the audit row for an issued access JWT.
	CreateAccessToken(ctx context.Context, t domain.AccessToken) error

	// GetAccessTokenByID fetches the audit row by jti.
	GetAccessTokenByID(ctx context.Context, tokenID string) (domain.AccessToken, error)

	// DeleteExpiredAccessTokens is housekeeping.
	DeleteExpiredAccessTokens(ctx context.Context) error
}

type RefreshTokens interface {
	// CreateRefreshToken stores a new refresh token record.
	CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error

	// GetRefreshTokenByID fetches the record by jti during refresh
	// exchanges.
	GetRefreshTokenByID(ctx context.Context, tokenID string) (domain.RefreshToken, error)

	// DeleteRefreshToken removes a single record (revocation hook).
	DeleteRefreshToken(ctx context.Context, tokenID string) error

	// DeleteExpiredRefreshTokens is housekeeping.
	DeleteExpiredRefreshTokens(ctx context.Context) error
}

type Transactions interface {
	// CreateTransaction persists a pending consent transaction.
	CreateTransaction(ctx context.Context, t domain.ConsentTransaction) error

	// ConsumeTransaction atomically deletes the transaction by id and
	// returns it, so a transaction id resolves at most one decision.
	ConsumeTransaction(ctx context.Context, id string) (domain.ConsentTransaction, error)

	// DeleteExpiredTransactions is housekeeping.
	DeleteExpiredTransactions(ctx context.Context) error
}
