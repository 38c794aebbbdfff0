package model

import "time"

// Role represents a row in the `roles` table.  A role belongs to exactly
// one product and users reference it by RoleID.
type Role struct {
	ID          string    `json:"id"`          // roles.id
	Name        string    `json:"name"`        // roles.name (unique)
	Description string    `json:"description"` // roles.description
	ProductID   string    `json:"product_id"`  // roles.product_id
	CreatedAt   time.Time `json:"created_at"`  // roles.created_at
	UpdatedAt   time.Time `json:"updated_at"`  // roles.updated_at
}
