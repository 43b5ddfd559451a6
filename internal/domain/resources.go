package domain

import (
	"time"

	"github.com/google/uuid"
)

// PantryItem is a tenant-scoped resource: an ingredient a household has on
// hand.
type PantryItem struct {
	ID        uuid.UUID  `json:"id"`
	TenantID  uuid.UUID  `json:"tenant_id"`
	CreatedBy uuid.UUID  `json:"created_by"`
	Name      string     `json:"name"`
	Quantity  float64    `json:"quantity"`
	Unit      string     `json:"unit,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// Recipe is a tenant-scoped resource.
type Recipe struct {
	ID           uuid.UUID `json:"id"`
	TenantID     uuid.UUID `json:"tenant_id"`
	CreatedBy    uuid.UUID `json:"created_by"`
	Title        string    `json:"title"`
	Instructions string    `json:"instructions,omitempty"`
	Ingredients  []string  `json:"ingredients,omitempty"`
	Servings     int       `json:"servings,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Favorite marks a recipe as a favorite within a tenant. One row per
// (tenant, user, recipe).
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	UserID    uuid.UUID `json:"user_id"`
	RecipeID  uuid.UUID `json:"recipe_id"`
	CreatedAt time.Time `json:"created_at"`
}
