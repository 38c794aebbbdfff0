package model

import "time"

// Client represents an API consumer registered for a product.
type Client struct {
	ID        string    `json:"id"`         // clients.id
	Name      string    `json:"name"`       // clients.name
	Secret    string    `json:"secret"`     // clients.secret
	URL       string    `json:"url"`        // clients.url
	ProductID string    `json:"product_id"` // clients.product_id
	CreatedAt time.Time `json:"created_at"` // clients.created_at
	UpdatedAt time.Time `json:"updated_at"` // clients.updated_at
}
