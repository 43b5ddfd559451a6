package store

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/domain"
)

type FlagStore struct {
	db *pgxpool.Pool
}

func NewFlagStore(db *pgxpool.Pool) *FlagStore {
	return &FlagStore{db: db}
}

const flagColumns = `id, name, description, enabled, rollout_percentage, target_environment,
	 allowed_users, conditions, expires_at, created_at, updated_at`

func scanFlag(row pgx.Row) (*domain.FeatureFlag, error) {
	f := &domain.FeatureFlag{}
	err := row.Scan(&f.ID, &f.Name, &f.Description, &f.Enabled, &f.RolloutPercentage,
		&f.Environment, &f.AllowedUsers, &f.Conditions, &f.ExpiresAt, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return f, nil
}

// snapshot captures the audited fields of a flag as opaque structured data.
// Snapshots are stored whole, not diffed.
func snapshot(f *domain.FeatureFlag) map[string]any {
	if f == nil {
		return nil
	}
	return map[string]any{
		"name":               f.Name,
		"description":        f.Description,
		"enabled":            f.Enabled,
		"rollout_percentage": f.RolloutPercentage,
		"target_environment": f.Environment,
		"allowed_users":      f.AllowedUsers,
		"conditions":         f.Conditions,
		"expires_at":         f.ExpiresAt,
	}
}

// Create inserts the flag and its audit entry in one transaction. The
// rollout range check is enforced by the table constraint as well; out of
// range values are rejected, never clamped.
func (s *FlagStore) Create(ctx context.Context, f *domain.FeatureFlag, actor, reason string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO feature_flags (name, description, enabled, rollout_percentage, target_environment, allowed_users, conditions, expires_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			 RETURNING id, created_at, updated_at`,
			f.Name, f.Description, f.Enabled, f.RolloutPercentage, f.Environment,
			f.AllowedUsers, f.Conditions, f.ExpiresAt,
		).Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) {
				switch pgErr.Code {
				case "23505":
					return ErrConflict
				case "23514":
					return ErrInvalid
				}
			}
			return err
		}
		return insertFlagAudit(ctx, tx, f, domain.AuditCreated, nil, snapshot(f), actor, reason)
	})
}

func (s *FlagStore) GetByName(ctx context.Context, name string) (*domain.FeatureFlag, error) {
	return scanFlag(s.db.QueryRow(ctx,
		`SELECT `+flagColumns+` FROM feature_flags WHERE name = $1`, name))
}

func (s *FlagStore) ListActive(ctx context.Context, env domain.Environment) ([]domain.FeatureFlag, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+flagColumns+` FROM feature_flags
		 WHERE enabled = TRUE
		   AND (expires_at IS NULL OR expires_at > NOW())
		   AND (target_environment = 'all' OR target_environment = $1)
		 ORDER BY name`,
		env,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlags(rows)
}

func (s *FlagStore) ListExpiredEnabled(ctx context.Context) ([]domain.FeatureFlag, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+flagColumns+` FROM feature_flags
		 WHERE enabled = TRUE AND expires_at IS NOT NULL AND expires_at <= NOW()
		 ORDER BY name`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectFlags(rows)
}

func collectFlags(rows pgx.Rows) ([]domain.FeatureFlag, error) {
	var flags []domain.FeatureFlag
	for rows.Next() {
		var f domain.FeatureFlag
		if err := rows.Scan(&f.ID, &f.Name, &f.Description, &f.Enabled, &f.RolloutPercentage,
			&f.Environment, &f.AllowedUsers, &f.Conditions, &f.ExpiresAt, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		flags = append(flags, f)
	}
	return flags, rows.Err()
}

// Update rewrites the flag row and records old/new snapshots atomically.
// The row is locked for the duration of the transaction so the audit entry
// always matches the state it replaced.
func (s *FlagStore) Update(ctx context.Context, f *domain.FeatureFlag, actor, reason string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		old, err := scanFlag(tx.QueryRow(ctx,
			`SELECT `+flagColumns+` FROM feature_flags WHERE name = $1 FOR UPDATE`, f.Name))
		if err != nil {
			return err
		}

		err = tx.QueryRow(ctx,
			`UPDATE feature_flags
			 SET description = $2, enabled = $3, rollout_percentage = $4, target_environment = $5,
			     allowed_users = $6, conditions = $7, expires_at = $8, updated_at = NOW()
			 WHERE name = $1
			 RETURNING id, updated_at`,
			f.Name, f.Description, f.Enabled, f.RolloutPercentage, f.Environment,
			f.AllowedUsers, f.Conditions, f.ExpiresAt,
		).Scan(&f.ID, &f.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23514" {
				return ErrInvalid
			}
			return err
		}
		f.CreatedAt = old.CreatedAt

		action := domain.AuditUpdated
		if old.Enabled != f.Enabled {
			if f.Enabled {
				action = domain.AuditEnabled
			} else {
				action = domain.AuditDisabled
			}
		}
		return insertFlagAudit(ctx, tx, f, action, snapshot(old), snapshot(f), actor, reason)
	})
}

func (s *FlagStore) Delete(ctx context.Context, name string, actor, reason string) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		old, err := scanFlag(tx.QueryRow(ctx,
			`SELECT `+flagColumns+` FROM feature_flags WHERE name = $1 FOR UPDATE`, name))
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM feature_flags WHERE name = $1`, name); err != nil {
			return err
		}
		return insertFlagAudit(ctx, tx, old, domain.AuditDeleted, snapshot(old), nil, actor, reason)
	})
}

func insertFlagAudit(ctx context.Context, tx pgx.Tx, f *domain.FeatureFlag, action domain.AuditAction, oldValues, newValues map[string]any, actor, reason string) error {
	_, err := tx.Exec(ctx,
		`INSERT INTO audit_entries (target_kind, target_id, target_name, action, old_values, new_values, changed_by, reason)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		domain.AuditTargetFlag, f.ID, f.Name, action, oldValues, newValues, actor, reason,
	)
	return err
}
