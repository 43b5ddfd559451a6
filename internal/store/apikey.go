package store

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/domain"
)

type APIKeyStore struct {
	db *pgxpool.Pool
}

func NewAPIKeyStore(db *pgxpool.Pool) *APIKeyStore {
	return &APIKeyStore{db: db}
}

// Create inserts the key and its audit entry atomically. Credential
// mutations are audited the same way flag mutations are.
func (s *APIKeyStore) Create(ctx context.Context, k *domain.APIKey, actor string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO api_keys (user_id, name, key_hash)
			 VALUES ($1, $2, $3)
			 RETURNING id, created_at`,
			k.UserID, k.Name, k.KeyHash,
		).Scan(&k.ID, &k.CreatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrConflict
			}
			return err
		}
		return insertKeyAudit(ctx, tx, k, domain.AuditCreated, nil,
			map[string]any{"user_id": k.UserID, "name": k.Name}, actor)
	})
}

func (s *APIKeyStore) GetByHash(ctx context.Context, keyHash string) (*domain.APIKey, error) {
	k := &domain.APIKey{}
	err := s.db.QueryRow(ctx,
		`SELECT id, user_id, name, key_hash, revoked_at, created_at
		 FROM api_keys WHERE key_hash = $1 AND revoked_at IS NULL`,
		keyHash,
	).Scan(&k.ID, &k.UserID, &k.Name, &k.KeyHash, &k.RevokedAt, &k.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return k, nil
}

func (s *APIKeyStore) Revoke(ctx context.Context, id uuid.UUID, userID uuid.UUID, actor string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		k := &domain.APIKey{}
		err := tx.QueryRow(ctx,
			`UPDATE api_keys SET revoked_at = NOW()
			 WHERE id = $1 AND user_id = $2 AND revoked_at IS NULL
			 RETURNING id, user_id, name, created_at`,
			id, userID,
		).Scan(&k.ID, &k.UserID, &k.Name, &k.CreatedAt)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrNotFound
			}
			return err
		}
		return insertKeyAudit(ctx, tx, k, domain.AuditDeleted,
			map[string]any{"user_id": k.UserID, "name": k.Name}, nil, actor)
	})
}

func insertKeyAudit(ctx context.Context, tx pgx.Tx, k *domain.APIKey, action domain.AuditAction, oldValues, newValues map[string]any, actor string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO audit_entries (target_kind, target_id, target_name, action, old_values, new_values, changed_by, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, '')`,
		domain.AuditTargetAPIKey, k.ID, k.Name, action, oldValues, newValues, actor,
	)
	return err
}
