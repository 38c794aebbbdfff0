package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/sso-service/internal/model"
)

const clientColumns = "id,name,secret,url,product_id,created_at,updated_at"

// ClientRepo owns the `clients` table.
type ClientRepo struct{ DB *sql.DB }

func NewClientRepo(db *sql.DB) *ClientRepo { return &ClientRepo{DB: db} }

// Create inserts a client and returns its generated UUID.
func (r *ClientRepo) Create(ctx context.Context, c *model.Client) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO clients (id, name, secret, url, product_id) VALUES (?,?,?,?,?)",
		id, c.Name, c.Secret, c.URL, c.ProductID)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrConflict
		}
		return "", err
	}
	return id, nil
}

// ByNameAndSecret checks for an existing client with the same credentials.
// Used as the duplicate check before create.
func (r *ClientRepo) ByNameAndSecret(ctx context.Context, name, secret string) (model.Client, error) {
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE name=? AND secret=? LIMIT 1",
		name, secret).Scan(&c.ID, &c.Name, &c.Secret, &c.URL, &c.ProductID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// ByID fetches a client by primary key.
func (r *ClientRepo) ByID(ctx context.Context, id string) (model.Client, error) {
	var c model.Client
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+clientColumns+" FROM clients WHERE id=? LIMIT 1",
		id).Scan(&c.ID, &c.Name, &c.Secret, &c.URL, &c.ProductID, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}

// All returns every client.
func (r *ClientRepo) All(ctx context.Context) ([]model.Client, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+clientColumns+" FROM clients ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Client
	for rows.Next() {
		var c model.Client
		if err := rows.Scan(&c.ID, &c.Name, &c.Secret, &c.URL, &c.ProductID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Update changes a client's mutable fields.
func (r *ClientRepo) Update(ctx context.Context, id, name, url string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE clients SET name=?, url=? WHERE id=?", name, url, id)
	return err
}

// Delete removes a client row.
func (r *ClientRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM clients WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
