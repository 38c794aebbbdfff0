package model

import "time"

// Scope represents a named permission grouping inside a product.
type Scope struct {
	ID          string    `json:"id"`          // scopes.id
	Name        string    `json:"name"`        // scopes.name
	Description string    `json:"description"` // scopes.description
	ProductID   string    `json:"product_id"`  // scopes.product_id
	CreatedAt   time.Time `json:"created_at"`  // scopes.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // scopes.updated_at
}
