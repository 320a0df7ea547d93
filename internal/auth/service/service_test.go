package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/stagedoor/auth/internal/auth/domain"
	"github.com/stagedoor/auth/internal/auth/store/drivers/sqlite"
	"github.com/stagedoor/auth/pkg/cryptox"
	"github.com/stagedoor/auth/pkg/idx"
	"github.com/stagedoor/auth/pkg/jwtx"
)

const (
	testIssuer = "authd-test"
	testSecret = "0123456789abcdef0123456789abcdef"
)

type testEnv struct {
	store     *sqlite.Store
	hs        *jwtx.HS256
	authn     *AuthnService
	tokens    *TokenService
	authorize *AuthorizeService
	clients   *ClientService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := sqlite.NewStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	require.NoError(t, st.ApplyMigrations())

	hs, err := jwtx.NewHS256([]byte(testSecret), testIssuer)
	require.NoError(t, err)

	authn := NewAuthnService(st, hs, testIssuer)
	tokens := NewTokenService(st, authn, hs, hs, testIssuer)

	return &testEnv{
		store:     st,
		hs:        hs,
		authn:     authn,
		tokens:    tokens,
		authorize: NewAuthorizeService(st, tokens),
		clients:   NewClientService(st),
	}
}

func (e *testEnv) seedUser(t *testing.T) domain.User {
	t.Helper()
	u, err := e.authn.RegisterUser(context.Background(), "Alice", "alice@example.com", "hunter22")
	require.NoError(t, err)
	return u
}

func (e *testEnv) seedClientApp(t *testing.T, trusted bool) (domain.Client, string) {
	t.Helper()
	c, secret, err := e.clients.CreateClient(context.Background(),
		"Demo App", "https://app.example.com/cb", "", []string{"profile", "email"}, trusted)
	require.NoError(t, err)
	return c, secret
}

func TestRegisterUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()

	u, err := e.authn.RegisterUser(ctx, "Alice", "Alice@Example.com", "hunter22")
	require.NoError(t, err)
	require.Equal(t, "alice", u.Username)
	require.Equal(t, "Alice", u.DisplayName)
	require.Equal(t, "alice@example.com", u.Email)
	require.NotEqual(t, "hunter22", u.PasswordHash)

	_, err = e.authn.RegisterUser(ctx, "alice", "other@example.com", "pw")
	require.ErrorIs(t, err, ErrDuplicateUser)
}

func TestLoginUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)

	got, err := e.authn.LoginUser(ctx, "ALICE", "hunter22")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	_, err = e.authn.LoginUser(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = e.authn.LoginUser(ctx, "bob", "hunter22")
	require.ErrorIs(t, err, ErrUserNotFound)
}

func TestIssueSession(t *testing.T) {
	e := newTestEnv(t)
	u := e.seedUser(t)

	token, err := e.authn.IssueSession(u)
	require.NoError(t, err)

	claims, err := e.hs.Verify(token)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
}

func TestAuthenticateClient(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	c, secret := e.seedClientApp(t, false)

	got, err := e.authn.AuthenticateClient(ctx, c.ClientID, secret)
	require.NoError(t, err)
	require.Equal(t, c.ID, got.ID)

	_, err = e.authn.AuthenticateClient(ctx, c.ClientID, "wrong")
	require.ErrorIs(t, err, ErrClientUnauthorized)

	_, err = e.authn.AuthenticateClient(ctx, "unknown", secret)
	require.ErrorIs(t, err, ErrClientNotFound)
}

func TestCreateClientSecretShownOnce(t *testing.T) {
	e := newTestEnv(t)
	c, secret := e.seedClientApp(t, false)

	require.NotEmpty(t, secret)
	require.NotEqual(t, secret, c.SecretHash)
	require.Len(t, c.ClientID, ClientIDLength)
	require.Equal(t, domain.DefaultClientLogo, c.Logo)
}

func TestStartTransactionPending(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, c.RedirectURI, domain.ResponseTypeCode, "st8", []string{"profile"})
	require.NoError(t, err)
	require.Nil(t, res.Grant)
	require.NotNil(t, res.Transaction)
	require.Equal(t, u.ID, res.Transaction.UserID)
	require.Equal(t, []string{"profile"}, res.Transaction.Scopes)
	require.Equal(t, "st8", res.Transaction.State)
}

func TestStartTransactionValidation(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	_, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, c.RedirectURI, "id_token", "", nil)
	require.ErrorIs(t, err, ErrInvalidResponseType)

	_, err = e.authorize.StartTransaction(ctx, u.ID, "nope", c.RedirectURI, domain.ResponseTypeCode, "", nil)
	require.ErrorIs(t, err, ErrClientNotFound)

	_, err = e.authorize.StartTransaction(ctx, u.ID, c.ClientID, "https://evil.example.com/cb", domain.ResponseTypeCode, "", nil)
	require.ErrorIs(t, err, ErrInvalidRedirectURI)

	_, err = e.authorize.StartTransaction(ctx, u.ID, c.ClientID, c.RedirectURI, domain.ResponseTypeCode, "", []string{"admin"})
	require.ErrorIs(t, err, ErrInvalidScope)
}

func TestTrustedClientSkipsConsent(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, true)

	res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, "", domain.ResponseTypeCode, "xyz", nil)
	require.NoError(t, err)
	require.Nil(t, res.Transaction)
	require.NotNil(t, res.Grant)
	require.NotEmpty(t, res.Grant.Code)
	require.Equal(t, c.RedirectURI, res.Grant.RedirectURI)
	require.Equal(t, "xyz", res.Grant.State)
}

func TestDecideAllowThenRedeem(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, c.RedirectURI, domain.ResponseTypeCode, "", []string{"profile"})
	require.NoError(t, err)

	grant, err := e.authorize.Decide(ctx, u.ID, res.Transaction.ID, true)
	require.NoError(t, err)
	require.False(t, grant.Denied)
	require.NotEmpty(t, grant.Code)

	// The transaction is spent.
	_, err = e.authorize.Decide(ctx, u.ID, res.Transaction.ID, true)
	require.ErrorIs(t, err, ErrInvalidTransaction)

	pair, err := e.tokens.ExchangeAuthorizationCode(ctx, c, grant.Code, c.RedirectURI)
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "bearer", pair.TokenType)
	require.Equal(t, "profile", pair.Scope)

	// So is the code.
	_, err = e.tokens.ExchangeAuthorizationCode(ctx, c, grant.Code, c.RedirectURI)
	require.ErrorIs(t, err, ErrInvalidGrant)
}

func TestDecideDeny(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, c.RedirectURI, domain.ResponseTypeCode, "st8", nil)
	require.NoError(t, err)

	grant, err := e.authorize.Decide(ctx, u.ID, res.Transaction.ID, false)
	require.NoError(t, err)
	require.True(t, grant.Denied)
	require.Empty(t, grant.Code)
	require.Equal(t, "st8", grant.State)
}

func TestDecideWrongUser(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, c.RedirectURI, domain.ResponseTypeCode, "", nil)
	require.NoError(t, err)

	_, err = e.authorize.Decide(ctx, "someone-else", res.Transaction.ID, true)
	require.ErrorIs(t, err, ErrInvalidTransaction)
}

func TestImplicitGrant(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, true)

	res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, "", domain.ResponseTypeToken, "", []string{"email"})
	require.NoError(t, err)
	require.NotNil(t, res.Grant)
	require.NotNil(t, res.Grant.Token)
	require.Empty(t, res.Grant.Code)
	require.Empty(t, res.Grant.Token.RefreshToken)

	claims, err := e.hs.Verify(res.Grant.Token.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)
	require.Equal(t, []string{"email"}, claims.Scope)

	// Audit row keyed by the embedded jti.
	row, err := e.store.AccessTokens().GetAccessTokenByID(ctx, claims.ID)
	require.NoError(t, err)
	require.Equal(t, u.ID, row.UserID)
	require.Equal(t, c.ID, row.ClientID)
}

func TestExchangeAuthorizationCodeChecks(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, true)
	other, _ := e.seedClientApp(t, true)

	start := func() string {
		res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, "", domain.ResponseTypeCode, "", nil)
		require.NoError(t, err)
		return res.Grant.Code
	}

	_, err := e.tokens.ExchangeAuthorizationCode(ctx, other, start(), c.RedirectURI)
	require.ErrorIs(t, err, ErrClientMismatch)

	_, err = e.tokens.ExchangeAuthorizationCode(ctx, c, start(), "https://evil.example.com/cb")
	require.ErrorIs(t, err, ErrRedirectMismatch)

	_, err = e.tokens.ExchangeAuthorizationCode(ctx, c, "never-issued-code-value", c.RedirectURI)
	require.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangeExpiredAuthorizationCode(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	// The row still exists; only its expiry has passed.
	code := "expired-but-present-code"
	now := time.Now().UTC()
	require.NoError(t, e.store.AuthorizationCodes().CreateAuthorizationCode(ctx, domain.AuthorizationCode{
		ID:          idx.New().String(),
		CodeHash:    cryptox.FingerprintToken(code),
		UserID:      u.ID,
		ClientID:    c.ID,
		RedirectURI: c.RedirectURI,
		Scopes:      []string{"profile"},
		ExpiresAt:   now.Add(-time.Minute),
		CreatedAt:   now.Add(-time.Hour),
	}))

	_, err := e.tokens.ExchangeAuthorizationCode(ctx, c, code, c.RedirectURI)
	require.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangeExpiredRefreshTokenRow(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	// The JWT's exp is still in the future, so the signature and claim
	// checks pass; the stored row's expiry alone must reject it.
	now := time.Now().UTC()
	claims := jwtx.NewClaims(u.ID, []string{"profile"}, time.Hour, testIssuer, now)
	signed, err := e.hs.Sign(claims)
	require.NoError(t, err)

	require.NoError(t, e.store.RefreshTokens().CreateRefreshToken(ctx, domain.RefreshToken{
		TokenID:   claims.ID,
		UserID:    u.ID,
		ClientID:  c.ID,
		Scopes:    []string{"profile"},
		ExpiresAt: now.Add(-time.Minute),
		CreatedAt: now.Add(-time.Hour),
	}))

	_, err = e.tokens.ExchangeRefreshToken(ctx, c, signed)
	require.ErrorIs(t, err, ErrInvalidGrant)
}

func TestExchangePassword(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	pair, err := e.tokens.ExchangePassword(ctx, c, "alice", "hunter22", []string{"email"})
	require.NoError(t, err)
	require.NotEmpty(t, pair.AccessToken)
	require.NotEmpty(t, pair.RefreshToken)
	require.Equal(t, "email", pair.Scope)

	// Empty request falls back to the client's registered scopes.
	pair, err = e.tokens.ExchangePassword(ctx, c, "alice", "hunter22", nil)
	require.NoError(t, err)
	require.Equal(t, "profile email", pair.Scope)

	_, err = e.tokens.ExchangePassword(ctx, c, "alice", "wrong", nil)
	require.ErrorIs(t, err, ErrInvalidGrant)

	_, err = e.tokens.ExchangePassword(ctx, c, "nobody", "hunter22", nil)
	require.ErrorIs(t, err, ErrInvalidGrant)

	_, err = e.tokens.ExchangePassword(ctx, c, "alice", "hunter22", []string{"admin"})
	require.ErrorIs(t, err, ErrInvalidScope)
}

func TestExchangeRefreshToken(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)
	other, _ := e.seedClientApp(t, false)

	pair, err := e.tokens.ExchangePassword(ctx, c, "alice", "hunter22", []string{"profile"})
	require.NoError(t, err)

	refreshed, err := e.tokens.ExchangeRefreshToken(ctx, c, pair.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, refreshed.AccessToken)
	require.Empty(t, refreshed.RefreshToken) // no rotation
	require.Equal(t, "profile", refreshed.Scope)

	claims, err := e.hs.Verify(refreshed.AccessToken)
	require.NoError(t, err)
	require.Equal(t, u.ID, claims.Subject)

	_, err = e.tokens.ExchangeRefreshToken(ctx, other, pair.RefreshToken)
	require.ErrorIs(t, err, ErrClientMismatch)

	_, err = e.tokens.ExchangeRefreshToken(ctx, c, pair.RefreshToken+"x")
	require.ErrorIs(t, err, ErrInvalidGrant)

	// Authentic signature but no row behind the jti.
	orphan := jwtx.NewClaims(u.ID, nil, time.Minute, testIssuer, time.Now().UTC())
	signed, err := e.hs.Sign(orphan)
	require.NoError(t, err)
	_, err = e.tokens.ExchangeRefreshToken(ctx, c, signed)
	require.ErrorIs(t, err, ErrInvalidGrant)
}

func TestHousekeepingSweep(t *testing.T) {
	e := newTestEnv(t)
	ctx := context.Background()
	u := e.seedUser(t)
	c, _ := e.seedClientApp(t, false)

	res, err := e.authorize.StartTransaction(ctx, u.ID, c.ClientID, c.RedirectURI, domain.ResponseTypeCode, "", nil)
	require.NoError(t, err)

	// Sweeping must not touch live rows.
	NewHousekeepingService(e.store, time.Hour).Sweep(ctx)

	_, err = e.authorize.Decide(ctx, u.ID, res.Transaction.ID, true)
	require.NoError(t, err)
}
