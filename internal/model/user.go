package model

import (
	"database/sql"
	"time"
)

// User represents an account record as stored in the `users` table.  Each
// field corresponds to a column in the database.  The nullable columns use
// database/sql wrapper types: a user may be created with only a handle and
// a password, so email and phone can be absent, and sso_id /
// sso_token_expiry are only populated while a one-time credential is live.
//
// Fields:
//  ID             – UUID primary key of the user.
//  FirstName      – optional given name.
//  LastName       – optional family name.
//  Name           – unique login handle.
//  Email          – optional email address, used as the identity claim in tokens.
//  Phone          – optional phone number.
//  PasswordHash   – bcrypt hashed password (users.password).
//  RoleID         – foreign key into the roles table.
//  ProductID      – foreign key into the products table.
//  SSOID          – current single-use nonce; overwritten on every issuance.
//  SSOTokenExpiry – expiry for reset/signup nonces; not set for session nonces.
//  EmailVerified  – whether the email address was verified (0/1).
//  PhoneVerified  – whether the phone number was verified (0/1).
//  Active         – account active flag; NULL means deactivated.
//  CreatedAt      – timestamp of creation.
//  UpdatedAt      – timestamp of last update.
type User struct {
	ID             string         // users.id
	FirstName      sql.NullString // users.first_name
	LastName       sql.NullString // users.last_name
	Name           string         // users.name
	Email          sql.NullString // users.email
	Phone          sql.NullString // users.phone
	PasswordHash   string         // users.password
	RoleID         string         // users.role_id
	ProductID      string         // users.product_id
	SSOID          sql.NullString // users.sso_id
	SSOTokenExpiry sql.NullTime   // users.sso_token_expiry
	EmailVerified  bool           // users.email_verified
	PhoneVerified  bool           // users.phone_verified
	Active         sql.NullInt64  // users.active (NULL = inactive)
	CreatedAt      time.Time      // users.created_at
	UpdatedAt      time.Time      // users.updated_at
}

// IsActive reports whether the account may sign in.  The column is nullable
// and deactivation stores NULL, so only an explicit 1 counts as active.
func (u User) IsActive() bool {
	return u.Active.Valid && u.Active.Int64 == 1
}

// Profile is the sanitized projection of a user joined with its product and
// role.  It is what protected handlers attach to the request context and
// what sign-in returns to the client.  The password hash and the live nonce
// are never part of it.
type Profile struct {
	ID            string     `json:"id"`
	FirstName     string     `json:"first_name"`
	LastName      string     `json:"last_name"`
	Name          string     `json:"name"`
	Email         string     `json:"email"`
	Phone         string     `json:"phone"`
	EmailVerified bool       `json:"email_verified"`
	PhoneVerified bool       `json:"phone_verified"`
	Active        bool       `json:"active"`
	Product       ProductRef `json:"product"`
	Role          RoleRef    `json:"role"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ProductRef is the slice of a product embedded in a Profile.
type ProductRef struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	ProductCode string `json:"product_code"`
}

// RoleRef is the slice of a role embedded in a Profile.
type RoleRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
