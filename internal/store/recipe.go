package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/domain"
)

type RecipeStore struct {
	db *pgxpool.Pool
}

func NewRecipeStore(db *pgxpool.Pool) *RecipeStore {
	return &RecipeStore{db: db}
}

func (s *RecipeStore) Create(ctx context.Context, r *domain.Recipe) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO recipes (tenant_id, created_by, title, instructions, ingredients, servings)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at, updated_at`,
		r.TenantID, r.CreatedBy, r.Title, r.Instructions, r.Ingredients, r.Servings,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func (s *RecipeStore) GetByID(ctx context.Context, id, tenantID uuid.UUID) (*domain.Recipe, error) {
	r := &domain.Recipe{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, created_by, title, instructions, ingredients, servings, created_at, updated_at
		 FROM recipes WHERE id = $1 AND tenant_id = $2`,
		id, tenantID,
	).Scan(&r.ID, &r.TenantID, &r.CreatedBy, &r.Title, &r.Instructions, &r.Ingredients, &r.Servings, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *RecipeStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Recipe, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, created_by, title, instructions, ingredients, servings, created_at, updated_at
		 FROM recipes WHERE tenant_id = $1
		 ORDER BY title`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var recipes []domain.Recipe
	for rows.Next() {
		var r domain.Recipe
		if err := rows.Scan(&r.ID, &r.TenantID, &r.CreatedBy, &r.Title, &r.Instructions, &r.Ingredients, &r.Servings, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, err
		}
		recipes = append(recipes, r)
	}
	return recipes, rows.Err()
}

func (s *RecipeStore) Update(ctx context.Context, r *domain.Recipe) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE recipes SET title = $3, instructions = $4, ingredients = $5, servings = $6, updated_at = NOW()
		 WHERE id = $1 AND tenant_id = $2`,
		r.ID, r.TenantID, r.Title, r.Instructions, r.Ingredients, r.Servings,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *RecipeStore) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM recipes WHERE id = $1 AND tenant_id = $2`,
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
