package model

import "time"

// Product represents a tenant application registered with the service.
// Roles, scopes, clients and users all hang off a product by foreign key.
// ProductCode is the stable external key that API callers use; the UUID
// primary key stays internal.
type Product struct {
	ID          string    `json:"id"`           // products.id
	Name        string    `json:"name"`         // products.name
	Description string    `json:"description"`  // products.description
	ProductCode string    `json:"product_code"` // products.product_code (unique)
	CreatedAt   time.Time `json:"created_at"`   // products.created_at
	UpdatedAt   time.Time `json:"updated_at"`   // products.updated_at
}
