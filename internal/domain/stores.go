package domain

import (
	"context"

	"github.com/google/uuid"
)

type TenantStore interface {
	// CreateWithOwner provisions the tenant, the creator's owner membership
	// and the creator's profile tenancy in one transaction. A failure at any
	// step leaves no partial state behind.
	CreateWithOwner(ctx context.Context, t *Tenant, ownerID uuid.UUID) error
	GetByID(ctx context.Context, id uuid.UUID) (*Tenant, error)
	Update(ctx context.Context, t *Tenant) error
}

type UserStore interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, u *User) error
}

type APIKeyStore interface {
	Create(ctx context.Context, k *APIKey, actor string) error
	GetByHash(ctx context.Context, keyHash string) (*APIKey, error)
	Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID, actor string) error
}

type MembershipStore interface {
	// Create inserts the membership and, in the same transaction, makes the
	// tenant the user's home tenant if the user does not have one yet.
	Create(ctx context.Context, m *Membership) error
	Get(ctx context.Context, userID, tenantID uuid.UUID) (*Membership, error)
	Update(ctx context.Context, m *Membership) error
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Membership, error)
	// ListActiveTenantIDs returns the tenants in which the user holds an
	// active membership. An empty result is a normal state, not an error.
	ListActiveTenantIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
}

// FlagStore persists flag configuration. Every mutating method writes its
// audit entry in the same transaction; a failed audit write aborts the
// mutation.
type FlagStore interface {
	Create(ctx context.Context, f *FeatureFlag, actor, reason string) error
	GetByName(ctx context.Context, name string) (*FeatureFlag, error)
	// ListActive returns enabled, non-expired flags matching the
	// environment (or targeted at all environments).
	ListActive(ctx context.Context, env Environment) ([]FeatureFlag, error)
	ListExpiredEnabled(ctx context.Context) ([]FeatureFlag, error)
	Update(ctx context.Context, f *FeatureFlag, actor, reason string) error
	Delete(ctx context.Context, name string, actor, reason string) error
}

type AuditStore interface {
	// ListByTarget returns entries for one target in chronological order.
	ListByTarget(ctx context.Context, kind, name string, limit int) ([]AuditEntry, error)
}

type PantryStore interface {
	Create(ctx context.Context, p *PantryItem) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*PantryItem, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]PantryItem, error)
	Update(ctx context.Context, p *PantryItem) error
	Delete(ctx context.Context, id, tenantID uuid.UUID) error
}

type RecipeStore interface {
	Create(ctx context.Context, r *Recipe) error
	GetByID(ctx context.Context, id, tenantID uuid.UUID) (*Recipe, error)
	ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]Recipe, error)
	Update(ctx context.Context, r *Recipe) error
	Delete(ctx context.Context, id, tenantID uuid.UUID) error
}

type FavoriteStore interface {
	Create(ctx context.Context, f *Favorite) error
	ListByTenantUser(ctx context.Context, tenantID, userID uuid.UUID) ([]Favorite, error)
	Delete(ctx context.Context, id, tenantID uuid.UUID) error
}
