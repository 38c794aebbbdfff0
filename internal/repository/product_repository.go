package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"

	"github.com/iliyamo/sso-service/internal/model"
)

const productColumns = "id,name,description,product_code,created_at,updated_at"

// ProductRepo owns the `products` table.  Products are the tenant anchor:
// roles, scopes, clients and users all reference a product id, and the
// access-control gate resolves products by their external product_code.
type ProductRepo struct{ DB *sql.DB }

func NewProductRepo(db *sql.DB) *ProductRepo { return &ProductRepo{DB: db} }

// Create inserts a product and returns its generated UUID.  A duplicate
// name or product_code maps to ErrConflict.
func (r *ProductRepo) Create(ctx context.Context, p *model.Product) (string, error) {
	id := uuid.NewString()
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO products (id, name, description, product_code) VALUES (?,?,?,?)",
		id, p.Name, p.Description, p.ProductCode)
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return "", ErrConflict
		}
		return "", err
	}
	return id, nil
}

func scanProduct(row *sql.Row) (model.Product, error) {
	var p model.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.ProductCode, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

// ByID fetches a product by primary key.
func (r *ProductRepo) ByID(ctx context.Context, id string) (model.Product, error) {
	return scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id=? LIMIT 1", id))
}

// ByCode fetches a product by its external product_code.  Every
// product-scoped operation starts here.
func (r *ProductRepo) ByCode(ctx context.Context, code string) (model.Product, error) {
	return scanProduct(r.DB.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE product_code=? LIMIT 1", code))
}

// All returns every registered product.
func (r *ProductRepo) All(ctx context.Context) ([]model.Product, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Product
	for rows.Next() {
		var p model.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Description, &p.ProductCode, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// Update changes the descriptive fields of a product.  The product_code is
// a stable external key and is not updatable.  Existence is checked by the
// handler; MySQL reports zero affected rows for no-op updates, so
// RowsAffected cannot distinguish "missing" from "unchanged" here.
func (r *ProductRepo) Update(ctx context.Context, id, name, description string) error {
	_, err := r.DB.ExecContext(ctx,
		"UPDATE products SET name=?, description=? WHERE id=?", name, description, id)
	return err
}

// Delete removes a product row.
func (r *ProductRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM products WHERE id=?", id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}
