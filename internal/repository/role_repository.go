package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/sso-service/internal/model"
)

const roleColumns = "id,name,description,product_id,created_at,updated_at"

// RoleRepo owns the `roles` table.  Role names are globally unique and the
// signup flow resolves them by name.
type RoleRepo struct{ DB *sql.DB }

func NewRoleRepo(db *sql.DB) *RoleRepo { return &RoleRepo{DB: db} }

// Create inserts a role and returns its generated UUID.  A duplicate name
// maps to ErrConflict.
func (r *RoleRepo) Create(ctx context.Context, role *model.Role) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO roles (id, name, description, product_id) VALUES (?,?,?,?)",
		id, role.Name, role.Description, role.ProductID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrConflict
		}
		return "", err
	}
	return id, nil
}

func scanRole(row *sql.Row) (model.Role, error) {
	var role model.Role
	err := row.Scan(&role.ID, &role.Name, &role.Description, &role.ProductID, &role.CreatedAt, &role.UpdatedAt)
	return role, err
}

// ByID fetches a role by primary key.
func (r *RoleRepo) ByID(ctx context.Context, id string) (model.Role, error) {
	return scanRole(r.DB.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE id=? LIMIT 1", id))
}

// ByName fetches a role by its unique name.
func (r *RoleRepo) ByName(ctx context.Context, name string) (model.Role, error) {
	return scanRole(r.DB.QueryRowContext(ctx,
		"SELECT "+roleColumns+" FROM roles WHERE name=? LIMIT 1", name))
}

// All returns every role.
func (r *RoleRepo) All(ctx context.Context) ([]model.Role, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+roleColumns+" FROM roles ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Role
	for rows.Next() {
		var role model.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.ProductID, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

// Update changes a role's descriptive fields.
func (r *RoleRepo) Update(ctx context.Context, id, name, description string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE roles SET name=?, description=? WHERE id=?", name, description, id)
	return err
}

// Delete removes a role row.
func (r *RoleRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM roles WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
