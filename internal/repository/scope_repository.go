package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/sso-service/internal/model"
)

const scopeColumns = "id,name,description,product_id,created_at,updated_at"

// ScopeRepo owns the `scopes` table.
type ScopeRepo struct{ DB *sql.DB }

func NewScopeRepo(db *sql.DB) *ScopeRepo { return &ScopeRepo{DB: db} }

// Create inserts a scope and returns its generated UUID.
func (r *ScopeRepo) Create(ctx context.Context, s *model.Scope) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO scopes (id, name, description, product_id) VALUES (?,?,?,?)",
		id, s.Name, s.Description, s.ProductID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrConflict
		}
		return "", err
	}
	return id, nil
}

// ByID fetches a scope by primary key.
func (r *ScopeRepo) ByID(ctx context.Context, id string) (model.Scope, error) {
	var s model.Scope
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+scopeColumns+" FROM scopes WHERE id=? LIMIT 1",
		id).Scan(&s.ID, &s.Name, &s.Description, &s.ProductID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// ByName fetches a scope by name, used as the duplicate check before create.
func (r *ScopeRepo) ByName(ctx context.Context, name string) (model.Scope, error) {
	var s model.Scope
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+scopeColumns+" FROM scopes WHERE name=? LIMIT 1",
		name).Scan(&s.ID, &s.Name, &s.Description, &s.ProductID, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// All returns every scope.
func (r *ScopeRepo) All(ctx context.Context) ([]model.Scope, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+scopeColumns+" FROM scopes ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Scope
	for rows.Next() {
		var s model.Scope
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.ProductID, &s.CreatedAt, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Update changes a scope's descriptive fields.
func (r *ScopeRepo) Update(ctx context.Context, id, name, description string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE scopes SET name=?, description=? WHERE id=?", name, description, id)
	return err
}

// Delete removes a scope row.
func (r *ScopeRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM scopes WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
