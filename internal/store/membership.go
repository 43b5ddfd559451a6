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

type MembershipStore struct {
	db *pgxpool.Pool
}

func NewMembershipStore(db *pgxpool.Pool) *MembershipStore {
	return &MembershipStore{db: db}
}

// Create inserts the membership and, when the user has no home tenant yet,
// claims this one as it. The two writes commit together so a user never ends
// up a member of a tenant their profile row does not belong to.
func (s *MembershipStore) Create(ctx context.Context, m *domain.Membership) error {
	return pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx,
			`INSERT INTO tenant_memberships (tenant_id, user_id, role, status)
			 VALUES ($1, $2, $3, $4)
			 RETURNING id, created_at, updated_at`,
			m.TenantID, m.UserID, m.Role, m.Status,
		).Scan(&m.ID, &m.CreatedAt, &m.UpdatedAt)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return ErrConflict
			}
			return err
		}
		return assignHomeTenant(ctx, tx, m.UserID, m.TenantID)
	})
}

// assignHomeTenant sets users.tenant_id on the user's first membership.
// Rows with a home tenant already are left alone.
func assignHomeTenant(ctx context.Context, tx pgx.Tx, userID, tenantID uuid.UUID) error {
	_, err := tx.Exec(ctx,
		`UPDATE users SET tenant_id = $2, updated_at = NOW()
		 WHERE id = $1 AND tenant_id IS NULL`,
		userID, tenantID,
	)
	return err
}

func (s *MembershipStore) Get(ctx context.Context, userID, tenantID uuid.UUID) (*domain.Membership, error) {
	m := &domain.Membership{}
	err := s.db.QueryRow(ctx,
		`SELECT id, tenant_id, user_id, role, status, created_at, updated_at
		 FROM tenant_memberships WHERE user_id = $1 AND tenant_id = $2`,
		userID, tenantID,
	).Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return m, nil
}

func (s *MembershipStore) Update(ctx context.Context, m *domain.Membership) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE tenant_memberships SET role = $2, status = $3, updated_at = NOW()
		 WHERE id = $1`,
		m.ID, m.Role, m.Status,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MembershipStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Membership, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, tenant_id, user_id, role, status, created_at, updated_at
		 FROM tenant_memberships WHERE tenant_id = $1
		 ORDER BY created_at`,
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.Membership
	for rows.Next() {
		var m domain.Membership
		if err := rows.Scan(&m.ID, &m.TenantID, &m.UserID, &m.Role, &m.Status, &m.CreatedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *MembershipStore) ListActiveTenantIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT tenant_id FROM tenant_memberships
		 WHERE user_id = $1 AND status = 'active'`,
		userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
