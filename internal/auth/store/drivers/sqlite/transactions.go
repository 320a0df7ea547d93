package sqlite

import (
	"context"
	"time"

	"github.com/stagedoor/auth/internal/auth/domain"
)

type transactionsRepo struct {
	q querier
}

func (r *transactionsRepo) CreateTransaction(ctx context.Context, t domain.ConsentTransaction) error {
	_, err := r.q.ExecContext(ctx,
		`INSERT INTO consent_transactions (id, user_id, client_id, redirect_uri, scopes, response_type, state, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.UserID, t.ClientID, t.RedirectURI, joinScopes(t.Scopes), t.ResponseType, t.State, t.ExpiresAt, t.CreatedAt,
	)
	return mapConstraint(err)
}

// ConsumeTransaction mirrors ConsumeAuthorizationCode: delete and return in
// one statement so a transaction id resolves at most one decision.
func (r *transactionsRepo) ConsumeTransaction(ctx context.Context, id string) (domain.ConsentTransaction, error) {
	row := r.q.QueryRowContext(ctx,
		`DELETE FROM consent_transactions WHERE id = ?
		 RETURNING id, user_id, client_id, redirect_uri, scopes, response_type, state, expires_at, created_at`,
		id,
	)

	var (
		t      domain.ConsentTransaction
		scopes string
	)
	err := row.Scan(&t.ID, &t.UserID, &t.ClientID, &t.RedirectURI, &scopes, &t.ResponseType, &t.State, &t.ExpiresAt, &t.CreatedAt)
	if err != nil {
		return domain.ConsentTransaction{}, mapNotFound(err)
	}
	t.Scopes = splitScopes(scopes)
	return t, nil
}

func (r *transactionsRepo) DeleteExpiredTransactions(ctx context.Context) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM consent_transactions WHERE expires_at < ?`, time.Now().UTC())
	return err
}
