package handler

import (
	"database/sql"
	"errors"
	"net/http"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sso-service/internal/repository"
)

func newProductHandlerFixture(t *testing.T) (*ProductHandler, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewProductHandler(repository.NewProductRepo(db)), mock
}

func TestProductCreateDuplicateCode(t *testing.T) {
	h, mock := newProductHandlerFixture(t)

	mock.ExpectExec("INSERT INTO products").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'webstore' for key 'product_code'"))

	c, rec := postJSON(t, "/product/create",
		`{"name":"Webstore","description":"the shop","product_code":"webstore"}`)
	require.NoError(t, h.Create(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product exists!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductByIDMissingReturnsEmptyResult(t *testing.T) {
	h, mock := newProductHandlerFixture(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id=\\?").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	c, rec := postJSON(t, "/product/ghost", ``)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	require.NoError(t, h.ByID(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"result":{}`)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductUpdateKeepsUnsetFields(t *testing.T) {
	h, mock := newProductHandlerFixture(t)

	mock.ExpectQuery("SELECT (.+) FROM products WHERE id=\\?").
		WithArgs("p-1").
		WillReturnRows(productRows("p-1", "webstore"))
	mock.ExpectExec("UPDATE products SET name=\\?, description=\\? WHERE id=\\?").
		WithArgs("Webstore", "new description", "p-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := postJSON(t, "/product/p-1", `{"description":"new description"}`)
	c.SetParamNames("id")
	c.SetParamValues("p-1")
	require.NoError(t, h.Update(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Product updated successfully!")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestProductDeleteMissing(t *testing.T) {
	h, mock := newProductHandlerFixture(t)

	mock.ExpectExec("DELETE FROM products WHERE id=\\?").
		WithArgs("ghost").
		WillReturnResult(sqlmock.NewResult(0, 0))

	c, rec := postJSON(t, "/product/ghost", ``)
	c.SetParamNames("id")
	c.SetParamValues("ghost")
	require.NoError(t, h.Delete(c))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}
