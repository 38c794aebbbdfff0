package middleware

import (
	"database/sql"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sso-service/internal/model"
	"github.com/iliyamo/sso-service/internal/repository"
)

func newGate(t *testing.T) (*AccessControl, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewAccessControl(
		repository.NewProductRepo(db),
		repository.NewUserRepo(db),
		repository.NewRoleRepo(db),
	), mock
}

func jsonRequest(t *testing.T, body string) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func productRow(id, code string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{"id", "name", "description", "product_code", "created_at", "updated_at"}).
		AddRow(id, "Webstore", "", code, now, now)
}

func TestRequireProductMemberAllowsMember(t *testing.T) {
	g, mock := newGate(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE product_code=\\?").
		WithArgs("webstore").
		WillReturnRows(productRow("p-1", "webstore"))
	mock.ExpectQuery("SELECT 1 FROM users").
		WithArgs("alice", "alice", "alice", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	c, rec := jsonRequest(t, `{"user":"alice","product_code":"webstore"}`)
	called := false
	h := g.RequireProductMember()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireProductMemberPrefersAuthenticatedIdentity(t *testing.T) {
	// When a verified profile is on the context, the body's user field is
	// ignored; a caller cannot impersonate someone else by naming them.
	g, mock := newGate(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE product_code=\\?").
		WithArgs("webstore").
		WillReturnRows(productRow("p-1", "webstore"))
	mock.ExpectQuery("SELECT 1 FROM users").
		WithArgs("bob@example.com", "bob@example.com", "bob@example.com", "p-1").
		WillReturnError(sql.ErrNoRows)

	c, rec := jsonRequest(t, `{"user":"alice","product_code":"webstore"}`)
	c.Set(CtxProfile, model.Profile{Email: "bob@example.com"})

	h := g.RequireProductMember()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Permission Error!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireProductMemberUnknownProduct(t *testing.T) {
	g, mock := newGate(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE product_code=\\?").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	c, rec := jsonRequest(t, `{"user":"alice","product_code":"ghost"}`)
	h := g.RequireProductMember()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product not found!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRequireProductMemberMissingFields(t *testing.T) {
	g, _ := newGate(t)

	c, rec := jsonRequest(t, `{}`)
	h := g.RequireProductMember()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRequireProductMemberRestoresBody(t *testing.T) {
	// The gate peeks at the body; the handler must still be able to bind it.
	g, mock := newGate(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE product_code=\\?").
		WithArgs("webstore").
		WillReturnRows(productRow("p-1", "webstore"))
	mock.ExpectQuery("SELECT 1 FROM users").
		WithArgs("alice", "alice", "alice", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	c, _ := jsonRequest(t, `{"user":"alice","product_code":"webstore","extra":"kept"}`)
	h := g.RequireProductMember()(func(c echo.Context) error {
		var body map[string]string
		require.NoError(t, c.Bind(&body))
		assert.Equal(t, "kept", body["extra"])
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRoleOwnershipRejectsCrossedPairing(t *testing.T) {
	g, mock := newGate(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id=\\?").
		WithArgs("p-1").
		WillReturnRows(productRow("p-1", "webstore"))
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM roles WHERE id=\\?").
		WithArgs("r-9").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "product_id", "created_at", "updated_at"}).
			AddRow("r-9", "admin", "", "p-other", now, now))

	c, rec := jsonRequest(t, `{"product_id":"p-1","role_id":"r-9"}`)
	h := g.VerifyRoleOwnership()(func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	require.NoError(t, h(c))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Role does not belong to this product!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestVerifyRoleOwnershipAllowsMatchingPairing(t *testing.T) {
	g, mock := newGate(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id=\\?").
		WithArgs("p-1").
		WillReturnRows(productRow("p-1", "webstore"))
	now := time.Now().UTC()
	mock.ExpectQuery("SELECT (.+) FROM roles WHERE id=\\?").
		WithArgs("r-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "description", "product_id", "created_at", "updated_at"}).
			AddRow("r-1", "admin", "", "p-1", now, now))

	c, rec := jsonRequest(t, `{"product_id":"p-1","role_id":"r-1"}`)
	called := false
	h := g.VerifyRoleOwnership()(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, h(c))
	assert.True(t, called)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
