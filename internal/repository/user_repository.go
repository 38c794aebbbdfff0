package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/sso-service/internal/model"
)

// userColumns is the scan order shared by every single-row user query.
const userColumns = "id,first_name,last_name,name,email,phone,password,role_id,product_id,sso_id,sso_token_expiry,email_verified,phone_verified,active,created_at,updated_at"

// profileColumns is the sanitized projection joined with products and roles.
// The password hash and the live nonce are deliberately not part of it.
const profileColumns = `u.id,u.first_name,u.last_name,u.name,u.email,u.phone,u.email_verified,u.phone_verified,u.active,u.created_at,u.updated_at,
p.id,p.name,p.product_code,r.id,r.name`

// UserRepo owns the `users` table, including the sso_id nonce column that
// the whole credential scheme revolves around.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// Create inserts a user row and returns its generated UUID.  The password
// must already be hashed by the caller.
func (r *UserRepo) Create(ctx context.Context, u *model.User) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (id, first_name, last_name, name, email, phone, password, role_id, product_id) VALUES (?,?,?,?,?,?,?,?,?)",
		id, u.FirstName, u.LastName, u.Name, u.Email, u.Phone, u.PasswordHash, u.RoleID, u.ProductID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrConflict
		}
		return "", err
	}
	return id, nil
}

func scanUser(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Name, &u.Email, &u.Phone,
		&u.PasswordHash, &u.RoleID, &u.ProductID, &u.SSOID, &u.SSOTokenExpiry,
		&u.EmailVerified, &u.PhoneVerified, &u.Active, &u.CreatedAt, &u.UpdatedAt)
	return u, err
}

// GetByID fetches a user by primary key.
func (r *UserRepo) GetByID(ctx context.Context, id string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// GetByName fetches a user by its unique login handle.
func (r *UserRepo) GetByName(ctx context.Context, name string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name=? LIMIT 1", name))
}

// GetByIdentifier resolves a user by handle, email or phone.  Sign-in and
// the membership gate accept any of the three interchangeably.
func (r *UserRepo) GetByIdentifier(ctx context.Context, identifier string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE name=? OR email=? OR phone=? LIMIT 1",
		identifier, identifier, identifier))
}

// GetByEmailOrPhone resolves a user for the password-reset flow, which does
// not accept the login handle.
func (r *UserRepo) GetByEmailOrPhone(ctx context.Context, identifier string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? OR phone=? LIMIT 1",
		identifier, identifier))
}

// GetBySubjectAndOTP performs the combined identity+nonce lookup that backs
// revocation: once a later issuance overwrites sso_id, tokens carrying the
// old nonce stop matching.  Signup tokens bind the handle, reset and session
// tokens bind the email, so the subject is matched against both columns.
func (r *UserRepo) GetBySubjectAndOTP(ctx context.Context, subject, otp string) (model.User, error) {
	return scanUser(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE (email=? OR name=?) AND sso_id=? LIMIT 1",
		subject, subject, otp))
}

// IssueResetCredential stores a fresh nonce and expiry for the reset flow.
// The previous nonce is overwritten, which invalidates any token bound to it.
func (r *UserRepo) IssueResetCredential(ctx context.Context, identifier, otp string, expiry time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET sso_id=?, sso_token_expiry=? WHERE email=? OR phone=?",
		otp, expiry, identifier, identifier)
	return err
}

// IssueSignupCredential stores the signup nonce and expiry and marks the
// account verified and active in the same statement, matching the signup
// flow's behavior of activating immediately.
func (r *UserRepo) IssueSignupCredential(ctx context.Context, name, otp string, expiry time.Time) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET sso_id=?, sso_token_expiry=?, email_verified=1, active=1 WHERE name=?",
		otp, expiry, name)
	return err
}

// IssueSessionCredential stores a session nonce with no expiry.  Session
// tokens live until the next issuance overwrites the nonce.
func (r *UserRepo) IssueSessionCredential(ctx context.Context, identifier, otp string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET sso_id=? WHERE name=? OR email=? OR phone=?",
		otp, identifier, identifier, identifier)
	return err
}

// MarkVerified flips the account to verified+active.  The nonce is part of
// the predicate so a stale token cannot re-activate a row whose credential
// was already rotated.
func (r *UserRepo) MarkVerified(ctx context.Context, subject, otp string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET active=1, email_verified=1 WHERE (email=? OR name=?) AND sso_id=?",
		subject, subject, otp)
	return err
}

// UpdatePassword stores a new password hash and consumes the reset nonce by
// clearing it, so the same reset link cannot be replayed.  The subject is
// matched the same way GetBySubjectAndOTP matches it.
func (r *UserRepo) UpdatePassword(ctx context.Context, subject, hash string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET password=?, sso_id=NULL, sso_token_expiry=NULL WHERE email=? OR name=?",
		hash, subject, subject)
	return err
}

// SetActive activates or deactivates an account.  Deactivation stores NULL,
// not 0: the schema treats any non-1 value as inactive and the original
// deactivate operation wrote NULL.
func (r *UserRepo) SetActive(ctx context.Context, id string, active bool) error {
	var err error
	if active {
		_, err = r.DB.ExecContext(ctx, "UPDATE users SET active=1 WHERE id=?", id)
	} else {
		_, err = r.DB.ExecContext(ctx, "UPDATE users SET active=NULL WHERE id=?", id)
	}
	return err
}

// IsProductMember reports whether a user row exists matching the identifier
// and the given product.  This is the access-control gate's query.
func (r *UserRepo) IsProductMember(ctx context.Context, identifier, productID string) (bool, error) {
	var one int
	err := r.DB.QueryRowContext(ctx,
		"SELECT 1 FROM users WHERE (name=? OR email=? OR phone=?) AND product_id=? LIMIT 1",
		identifier, identifier, identifier, productID).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func scanProfile(row *sql.Row) (model.Profile, error) {
	var (
		p                      model.Profile
		first, last, email, ph sql.NullString
		active                 sql.NullInt64
	)
	err := row.Scan(&p.ID, &first, &last, &p.Name, &email, &ph,
		&p.EmailVerified, &p.PhoneVerified, &active, &p.CreatedAt, &p.UpdatedAt,
		&p.Product.ID, &p.Product.Name, &p.Product.ProductCode, &p.Role.ID, &p.Role.Name)
	if err != nil {
		return model.Profile{}, err
	}
	p.FirstName = first.String
	p.LastName = last.String
	p.Email = email.String
	p.Phone = ph.String
	p.Active = active.Valid && active.Int64 == 1
	return p, nil
}

const profileQuery = "SELECT " + profileColumns + ` FROM users u
JOIN products p ON p.id = u.product_id
JOIN roles r ON r.id = u.role_id `

// ProfileBySubjectAndOTP runs the full-auth variant of the nonce lookup: the
// same identity+nonce predicate, but returning the sanitized projection
// joined with product and role for downstream handlers.
func (r *UserRepo) ProfileBySubjectAndOTP(ctx context.Context, subject, otp string) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		profileQuery+"WHERE (u.email=? OR u.name=?) AND u.sso_id=? LIMIT 1",
		subject, subject, otp))
}

// ProfileByID fetches the sanitized projection by primary key.
func (r *UserRepo) ProfileByID(ctx context.Context, id string) (model.Profile, error) {
	return scanProfile(r.DB.QueryRowContext(ctx,
		profileQuery+"WHERE u.id=? LIMIT 1", id))
}

// ListByProduct returns sanitized profiles of every user in a product.
func (r *UserRepo) ListByProduct(ctx context.Context, productID string) ([]model.Profile, error) {
	rows, err := r.DB.QueryContext(ctx,
		profileQuery+"WHERE u.product_id=? ORDER BY u.created_at", productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Profile
	for rows.Next() {
		var (
			p                      model.Profile
			first, last, email, ph sql.NullString
			active                 sql.NullInt64
		)
		if err := rows.Scan(&p.ID, &first, &last, &p.Name, &email, &ph,
			&p.EmailVerified, &p.PhoneVerified, &active, &p.CreatedAt, &p.UpdatedAt,
			&p.Product.ID, &p.Product.Name, &p.Product.ProductCode, &p.Role.ID, &p.Role.Name); err != nil {
			return nil, err
		}
		p.FirstName = first.String
		p.LastName = last.String
		p.Email = email.String
		p.Phone = ph.String
		p.Active = active.Valid && active.Int64 == 1
		out = append(out, p)
	}
	return out, rows.Err()
}

// UserUpdate carries the optional fields of a profile update.  Nil pointers
// are left untouched.  The password and the product code are not updatable
// through this path.
type UserUpdate struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	RoleID    *string
	ProductID *string
}

// UpdateDetails applies the non-nil fields of upd to the user row.  It is a
// no-op when every field is nil.
func (r *UserRepo) UpdateDetails(ctx context.Context, id string, upd UserUpdate) error {
	set := make([]string, 0, 6)
	args := make([]interface{}, 0, 7)
	add := func(col string, v *string) {
		if v != nil {
			set = append(set, col+"=?")
			args = append(args, *v)
		}
	}
	add("first_name", upd.FirstName)
	add("last_name", upd.LastName)
	add("email", upd.Email)
	add("phone", upd.Phone)
	add("role_id", upd.RoleID)
	add("product_id", upd.ProductID)
	if len(set) == 0 {
		return nil
	}
	args = append(args, id)
	_, err := r.DB.ExecContext(ctx,
		"UPDATE users SET "+strings.Join(set, ", ")+" WHERE id=?", args...)
	return err
}

// Delete removes a user row.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	_, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	return err
}
