package store

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/plateful/gate/internal/domain"
)

// AuditStore reads the append-only audit log. Entries are only ever written
// inside the transaction of the mutation they record, so there is no Create
// here.
type AuditStore struct {
	db *pgxpool.Pool
}

func NewAuditStore(db *pgxpool.Pool) *AuditStore {
	return &AuditStore{db: db}
}

func (s *AuditStore) ListByTarget(ctx context.Context, kind, name string, limit int) ([]domain.AuditEntry, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, target_kind, target_id, target_name, action, old_values, new_values, changed_by, reason, created_at
		 FROM audit_entries
		 WHERE target_kind = $1 AND target_name = $2
		 ORDER BY created_at DESC
		 LIMIT $3`,
		kind, name, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.AuditEntry
	for rows.Next() {
		var e domain.AuditEntry
		if err := rows.Scan(&e.ID, &e.TargetKind, &e.TargetID, &e.TargetName, &e.Action,
			&e.OldValues, &e.NewValues, &e.ChangedBy, &e.Reason, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
