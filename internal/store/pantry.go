package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/domain"
)

type PantryStore struct {
	db *pgxpool.Pool
}

func NewPantryStore(db *pgxpool.Pool) *PantryStore {
	return &PantryStore{db: db}
}

func (s *PantryStore) Create(ctx context.Context, p *domain.PantryItem) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO pantry_items (tenant_id, created_by, name, quantity, unit, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		p.TenantID, p.CreatedBy, p.Name, p.Quantity, p.Unit, p.ExpiresAt,
	).Scan(&p.ID, &p.CreatedAt, &p.UpdatedAt)
}

func (s *PantryStore) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.PantryItem, error) {
	p := &domain.PantryItem{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, created_by, name, quantity, unit, expires_at, created_at, updated_at
		 FROM pantry_items WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&p.ID, &p.TenantID, &p.CreatedBy, &p.Name, &p.Quantity, &p.Unit, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PantryStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.PantryItem, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, created_by, name, quantity, unit, expires_at, created_at, updated_at
		 FROM pantry_items WHERE tenant_id = $1
		 ORDER BY name`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.PantryItem
	for rows.Next() {
		var p domain.PantryItem
		if err := rows.Scan(&p.ID, &p.TenantID, &p.CreatedBy, &p.Name, &p.Quantity, &p.Unit, &p.ExpiresAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	return items, rows.Err()
}

func (s *PantryStore) Update(ctx context.Context, p *domain.PantryItem) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE pantry_items SET name = $3, quantity = $4, unit = $5, expires_at = $6, updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2`,
		p.ID, p.TenantID, p.Name, p.Quantity, p.Unit, p.ExpiresAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PantryStore) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM pantry_items WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
