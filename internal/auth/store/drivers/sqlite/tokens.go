package sqlite

import (
	"context"
	"time"

	"github.com/stagedoor/auth/internal/auth/domain"
)

type accessTokensRepo struct {
	q querier
}

func (r *accessTokensRepo) CreateAccessToken(ctx context.Context, t domain.AccessToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO access_tokens (token_id, user_id, client_id, scopes, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.TokenID, t.UserID, t.ClientID, joinScopes(t.Scopes), t.ExpiresAt, t.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *accessTokensRepo) GetAccessTokenByID(ctx context.Context, tokenID string) (domain.AccessToken, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT token_id, user_id, client_id, scopes, expires_at, created_at
		 FROM access_tokens WHERE token_id = ?`,
		tokenID,
	)

	var (
		t      domain.AccessToken
		scopes string
	)
	err := row.Scan(&t.TokenID, &t.UserID, &t.ClientID, &scopes, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.AccessToken{}, mapNotFound(err)
	}
	t.Scopes = splitScopes(scopes)
	return t, nil
}

func (r *accessTokensRepo) DeleteExpiredAccessTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM access_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}

type refreshTokensRepo struct {
	q querier
}

func (r *refreshTokensRepo) CreateRefreshToken(ctx context.Context, t domain.RefreshToken) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO refresh_tokens (token_id, user_id, client_id, scopes, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		t.TokenID, t.UserID, t.ClientID, joinScopes(t.Scopes), t.ExpiresAt, t.CreatedAt,
	)
	return mapConstraint(err)
}

func (r *refreshTokensRepo) GetRefreshTokenByID(ctx context.Context, tokenID string) (domain.RefreshToken, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT token_id, user_id, client_id, scopes, expires_at, created_at
		 FROM refresh_tokens WHERE token_id = ?`,
		tokenID,
	)

	var (
		t      domain.RefreshToken
		scopes string
	)
	err := row.Scan(&t.TokenID, &t.UserID, &t.ClientID, &scopes, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.RefreshToken{}, mapNotFound(err)
	}
	t.Scopes = splitScopes(scopes)
	return t, nil
}

func (r *refreshTokensRepo) DeleteRefreshToken(ctx context.Context, tokenID string) error {
	res, err := r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE token_id = ?`, tokenID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func (r *refreshTokensRepo) DeleteExpiredRefreshTokens(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM refresh_tokens WHERE expires_at < ?`, time.Now().UTC())
	return err
}
