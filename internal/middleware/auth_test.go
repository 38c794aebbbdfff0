package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sso-service/internal/config"
	"github.com/iliyamo/sso-service/internal/repository"
	"github.com/iliyamo/sso-service/internal/utils"
)

const testSecret = "middleware-test-secret"

func newAuth(t *testing.T) (*Auth, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAuth(config.Config{SSOSecret: testSecret}, repository.NewUserRepo(db)), mock
}

func newRequest(t *testing.T, token string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func userRow(ssoID string, expiry interface{}) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "name", "email", "phone", "password",
		"role_id", "product_id", "sso_id", "sso_token_expiry",
		"email_verified", "phone_verified", "active", "created_at", "updated_at",
	}).AddRow("u-1", nil, nil, "alice", "alice@example.com", nil, "$2a$10$hash",
		"r-1", "p-1", ssoID, expiry, true, false, 1, now, now)
}

func TestVerifyEmailRequiresBearerToken(t *testing.T) {
	a, _ := newAuth(t)
	c, rec := newRequest(t, "")

	h := a.VerifyEmail()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Authorization is required!")
}

func TestVerifyEmailRejectsSessionToken(t *testing.T) {
	// A session token must not pass the signup gate even though the same
	// secret signed it.
	a, _ := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "123456", "alice", utils.PurposeSession)
	require.NoError(t, err)
	c, rec := newRequest(t, tok)

	h := a.VerifyEmail()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token is invalid!")
}

func TestVerifyEmailActivatesAccount(t *testing.T) {
	a, mock := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "123456", "alice", utils.PurposeSignup)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE \\(email=\\? OR name=\\?\\) AND sso_id=\\?").
		WithArgs("alice", "alice", "123456").
		WillReturnRows(userRow("123456", nil))
	mock.ExpectExec("UPDATE users SET active=1, email_verified=1").
		WithArgs("alice", "alice", "123456").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := newRequest(t, tok)
	called := false
	h := a.VerifyEmail()(func(c echo.Context) error {
		called = true
		claims, ok := c.Get(CtxClaims).(utils.CredentialClaims)
		require.True(t, ok)
		assert.Equal(t, "alice", claims.Subject)
		assert.Equal(t, tok, c.Get(CtxAccessToken))
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyEmailRejectsRotatedNonce(t *testing.T) {
	// After a new issuance overwrites sso_id the old link stops matching.
	a, mock := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "old-nonce", "alice", utils.PurposeSignup)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE \\(email=\\? OR name=\\?\\) AND sso_id=\\?").
		WithArgs("alice", "alice", "old-nonce").
		WillReturnError(sql.ErrNoRows)

	c, rec := newRequest(t, tok)
	h := a.VerifyEmail()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Token is invalid!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyResetTokenRejectsExpiredLink(t *testing.T) {
	a, mock := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "123456", "alice@example.com", utils.PurposeReset)
	require.NoError(t, err)

	past := time.Now().UTC().Add(-time.Minute)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE \\(email=\\? OR name=\\?\\) AND sso_id=\\?").
		WithArgs("alice@example.com", "alice@example.com", "123456").
		WillReturnRows(userRow("123456", past))

	c, rec := newRequest(t, tok)
	h := a.VerifyResetToken()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password reset link has expired!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyResetTokenRejectsLinkAtExpiryInstant(t *testing.T) {
	// Expiry is equal-or-past: a link presented at the stored instant
	// itself is already dead, not alive for one more tick.
	a, mock := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "123456", "alice@example.com", utils.PurposeReset)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE \\(email=\\? OR name=\\?\\) AND sso_id=\\?").
		WithArgs("alice@example.com", "alice@example.com", "123456").
		WillReturnRows(userRow("123456", time.Now().UTC()))

	c, rec := newRequest(t, tok)
	h := a.VerifyResetToken()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password reset link has expired!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyResetTokenRejectsMissingExpiry(t *testing.T) {
	// Session issuance leaves sso_token_expiry NULL; such a nonce must not
	// pass the reset gate.
	a, mock := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "123456", "alice@example.com", utils.PurposeReset)
	require.NoError(t, err)

	mock.ExpectQuery("SELECT (.+) FROM users WHERE \\(email=\\? OR name=\\?\\) AND sso_id=\\?").
		WithArgs("alice@example.com", "alice@example.com", "123456").
		WillReturnRows(userRow("123456", nil))

	c, rec := newRequest(t, tok)
	h := a.VerifyResetToken()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Password reset link has expired!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyResetTokenAcceptsLiveLink(t *testing.T) {
	a, mock := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "123456", "alice@example.com", utils.PurposeReset)
	require.NoError(t, err)

	future := time.Now().UTC().Add(30 * time.Minute)
	mock.ExpectQuery("SELECT (.+) FROM users WHERE \\(email=\\? OR name=\\?\\) AND sso_id=\\?").
		WithArgs("alice@example.com", "alice@example.com", "123456").
		WillReturnRows(userRow("123456", future))

	c, rec := newRequest(t, tok)
	called := false
	h := a.VerifyResetToken()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateAttachesProfile(t *testing.T) {
	a, mock := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "session-nonce", "alice@example.com", utils.PurposeSession)
	require.NoError(t, err)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM users u").
		WithArgs("alice@example.com", "alice@example.com", "session-nonce").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "first_name", "last_name", "name", "email", "phone",
			"email_verified", "phone_verified", "active", "created_at", "updated_at",
			"p_id", "p_name", "product_code", "r_id", "r_name",
		}).AddRow("u-1", "Alice", nil, "alice", "alice@example.com", nil,
			true, false, 1, now, now, "p-1", "Webstore", "webstore", "r-1", "admin"))

	c, rec := newRequest(t, tok)
	called := false
	h := a.Authenticate()(func(c echo.Context) error {
		called = true
		profile := c.Get(CtxProfile)
		require.NotNil(t, profile)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuthenticateRejectsResetToken(t *testing.T) {
	a, _ := newAuth(t)
	tok, err := utils.SignCredential(testSecret, "123456", "alice@example.com", utils.PurposeReset)
	require.NoError(t, err)

	c, rec := newRequest(t, tok)
	h := a.Authenticate()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "Auth token is invalid!")
}
