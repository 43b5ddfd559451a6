package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/domain"
)

type FavoriteStore struct {
	db *pgxpool.Pool
}

func NewFavoriteStore(db *pgxpool.Pool) *FavoriteStore {
	return &FavoriteStore{db: db}
}

func (s *FavoriteStore) Create(ctx context.Context, f *domain.Favorite) error {
	err := s.db.QueryRow(ctx,
		`INSERT INTO favorites (tenant_id, user_id, recipe_id)
		 VALUES ($1, $2, $3)
		 RETURNING id, created_at`,
		f.TenantID, f.UserID, f.RecipeID,
	).Scan(&f.ID, &f.CreatedAt)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrConflict
		}
		return err
	}
	return nil
}

func (s *FavoriteStore) ListByTenantUser(ctx context.Context, tenantID, userID uuid.UUID) ([]domain.Favorite, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, user_id, recipe_id, created_at
		 FROM favorites WHERE tenant_id = $1 AND user_id = $2
		 ORDER BY created_at DESC`,
		tenantID, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var favorites []domain.Favorite
	for rows.Next() {
		var f domain.Favorite
		if err := rows.Scan(&f.ID, &f.TenantID, &f.UserID, &f.RecipeID, &f.CreatedAt); err != nil {
			return nil, err
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

func (s *FavoriteStore) Delete(ctx context.Context, id, tenantID uuid.UUID) error {
	tag, err := s.db.Exec(ctx,
		`DELETE FROM favorites WHERE id = $1 AND tenant_id = $2`,
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
