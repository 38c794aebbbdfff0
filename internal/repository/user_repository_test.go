package repository

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/sso-service/internal/model"
)

func newUserRepo(t *testing.T) (*UserRepo, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherEqual))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewUserRepo(db), mock
}

func userRows(u model.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "first_name", "last_name", "name", "email", "phone", "password",
		"role_id", "product_id", "sso_id", "sso_token_expiry",
		"email_verified", "phone_verified", "active", "created_at", "updated_at",
	}).AddRow(u.ID, u.FirstName, u.LastName, u.Name, u.Email, u.Phone,
		u.PasswordHash, u.RoleID, u.ProductID, u.SSOID, u.SSOTokenExpiry,
		u.EmailVerified, u.PhoneVerified, u.Active, u.CreatedAt, u.UpdatedAt)
}

func sampleUser() model.User {
	now := time.Now().UTC()
	return model.User{
		ID:            "u-1",
		Name:          "alice",
		Email:         sql.NullString{String: "alice@example.com", Valid: true},
		PasswordHash:  "$2a$10$hash",
		RoleID:        "r-1",
		ProductID:     "p-1",
		SSOID:         sql.NullString{String: "123456", Valid: true},
		EmailVerified: true,
		Active:        sql.NullInt64{Int64: 1, Valid: true},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

func TestUserCreateReturnsConflictOnDuplicate(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users (id, first_name, last_name, name, email, phone, password, role_id, product_id) VALUES (?,?,?,?,?,?,?,?,?)").
		WillReturnError(errors.New("Error 1062: Duplicate entry 'alice' for key 'name'"))

	_, err := repo.Create(context.Background(), &model.User{Name: "alice"})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserCreateGeneratesID(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("INSERT INTO users (id, first_name, last_name, name, email, phone, password, role_id, product_id) VALUES (?,?,?,?,?,?,?,?,?)").
		WillReturnResult(sqlmock.NewResult(0, 1))

	id, err := repo.Create(context.Background(), &model.User{Name: "alice"})
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySubjectAndOTP(t *testing.T) {
	repo, mock := newUserRepo(t)
	u := sampleUser()

	query := "SELECT " + userColumns + " FROM users WHERE (email=? OR name=?) AND sso_id=? LIMIT 1"
	mock.ExpectQuery(query).
		WithArgs("alice@example.com", "alice@example.com", "123456").
		WillReturnRows(userRows(u))

	got, err := repo.GetBySubjectAndOTP(context.Background(), "alice@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Name)
	assert.True(t, got.IsActive())

	// A rotated nonce no longer matches.
	mock.ExpectQuery(query).
		WithArgs("alice@example.com", "alice@example.com", "999999").
		WillReturnError(sql.ErrNoRows)

	_, err = repo.GetBySubjectAndOTP(context.Background(), "alice@example.com", "999999")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueSignupCredentialActivatesAccount(t *testing.T) {
	repo, mock := newUserRepo(t)
	expiry := time.Now().UTC().Add(500 * time.Minute)

	mock.ExpectExec("UPDATE users SET sso_id=?, sso_token_expiry=?, email_verified=1, active=1 WHERE name=?").
		WithArgs("654321", expiry, "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IssueSignupCredential(context.Background(), "alice", "654321", expiry))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIssueSessionCredentialHasNoExpiry(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET sso_id=? WHERE name=? OR email=? OR phone=?").
		WithArgs("20-digit-nonce-value", "alice", "alice", "alice").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IssueSessionCredential(context.Background(), "alice", "20-digit-nonce-value"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePasswordConsumesNonce(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET password=?, sso_id=NULL, sso_token_expiry=NULL WHERE email=? OR name=?").
		WithArgs("$2a$10$newhash", "alice@example.com", "alice@example.com").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdatePassword(context.Background(), "alice@example.com", "$2a$10$newhash"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetActiveStoresNullOnDeactivate(t *testing.T) {
	repo, mock := newUserRepo(t)

	mock.ExpectExec("UPDATE users SET active=NULL WHERE id=?").
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetActive(context.Background(), "u-1", false))

	mock.ExpectExec("UPDATE users SET active=1 WHERE id=?").
		WithArgs("u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.SetActive(context.Background(), "u-1", true))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestIsProductMember(t *testing.T) {
	repo, mock := newUserRepo(t)

	query := "SELECT 1 FROM users WHERE (name=? OR email=? OR phone=?) AND product_id=? LIMIT 1"
	mock.ExpectQuery(query).
		WithArgs("alice", "alice", "alice", "p-1").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	member, err := repo.IsProductMember(context.Background(), "alice", "p-1")
	require.NoError(t, err)
	assert.True(t, member)

	mock.ExpectQuery(query).
		WithArgs("alice", "alice", "alice", "p-2").
		WillReturnError(sql.ErrNoRows)

	member, err = repo.IsProductMember(context.Background(), "alice", "p-2")
	require.NoError(t, err)
	assert.False(t, member)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDetailsBuildsPartialSet(t *testing.T) {
	repo, mock := newUserRepo(t)
	first := "Alice"
	role := "r-2"

	mock.ExpectExec("UPDATE users SET first_name=?, role_id=? WHERE id=?").
		WithArgs("Alice", "r-2", "u-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateDetails(context.Background(), "u-1", UserUpdate{
		FirstName: &first,
		RoleID:    &role,
	}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateDetailsNoFieldsIsNoop(t *testing.T) {
	repo, mock := newUserRepo(t)

	require.NoError(t, repo.UpdateDetails(context.Background(), "u-1", UserUpdate{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}
