package sqlite

import (
	"context"
	"time"

	"github.com/stagedoor/auth/internal/auth/domain"
)

type authorizationCodesRepo struct {
	q querier
}

func (r *authorizationCodesRepo) CreateAuthorizationCode(ctx context.Context, code domain.AuthorizationCode) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO authorization_codes (id, code_hash, user_id, client_id, redirect_uri, scopes, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		code.ID, code.CodeHash, code.UserID, code.ClientID, code.RedirectURI, joinScopes(code.Scopes), code.ExpiresAt, code.CreatedAt,
	)
	return mapConstraint(err)
}

// ConsumeAuthorizationCode deletes and returns the code in one statement.
// The single DELETE..RETURNING makes redemption single-winner: under two
// concurrent redemptions exactly one caller receives the row, the other
// observes ErrNotFound.
func (r *authorizationCodesRepo) ConsumeAuthorizationCode(ctx context.Context, codeHash string) (domain.AuthorizationCode, error) {
	row := r.q.QueryRowContext(ctx,
		`DELETE FROM authorization_codes WHERE code_hash = ?
		 RETURNING id, code_hash, user_id, client_id, redirect_uri, scopes, expires_at, created_at`,
		codeHash,
	)

	var (
		code   domain.AuthorizationCode
		scopes string
	)
	err := row.Scan(&code.ID, &code.CodeHash, &code.UserID, &code.ClientID, &code.RedirectURI, &scopes, &code.ExpiresAt, &code.CreatedAt)
	if err != nil {
		return domain.AuthorizationCode{}, mapNotFound(err)
	}
	code.Scopes = splitScopes(scopes)
	return code, nil
}

func (r *authorizationCodesRepo) DeleteExpiredAuthorizationCodes(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM authorization_codes WHERE expires_at < ?`, time.Now().UTC())
	return err
}
