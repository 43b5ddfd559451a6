package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/domain"
)

type TenantStore struct {
	db *pgxpool.Pool
}

func NewTenantStore(db *pgxpool.Pool) *TenantStore {
	return &TenantStore{db: db}
}

// CreateWithOwner provisions the tenant, the owner membership and the
// owner's profile tenancy atomically. Without the transaction a failed
// membership insert would leave an orphaned tenant nobody can reach.
func (s *TenantStore) CreateWithOwner(ctx context.Context, t *domain.Tenant, ownerID uuid.UUID) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO tenants (name, plan, status) VALUES ($1, $2, $3)
			 RETURNING id, created_at, updated_at`,
			t.Name, t.Plan, t.Status,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
		if err != nil {
			return err
		}

		if _, err := tx.Exec(ctx,
			`INSERT INTO tenant_memberships (tenant_id, user_id, role, status)
			 VALUES ($1, $2, $3, $4)`,
			t.ID, ownerID, domain.RoleOwner, domain.MembershipActive,
		); err != nil {
			return err
		}

		return assignHomeTenant(ctx, tx, ownerID, t.ID)
	})
}

func (s *TenantStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Tenant, error) {
	t := &domain.Tenant{}
	err := s.db.QueryRow(ctx,
		`SELECT id, name, plan, status, created_at, updated_at
		 FROM tenants WHERE id = $1`,
		id,
	).Scan(&t.ID, &t.Name, &t.Plan, &t.Status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return t, nil
}

// Update changes plan and status only. Tenants are never hard-deleted;
// lifecycle ends with a status transition.
func (s *TenantStore) Update(ctx context.Context, t *domain.Tenant) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenants SET name = $2, plan = $3, status = $4, updated_at = NOW()
		 WHERE id = $1`,
		t.ID, t.Name, t.Plan, t.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
