package domain

import (
	"time"

	"github.com/google/uuid"
)

// AuditAction is the kind of mutation an audit entry records.
type AuditAction string

const (
	AuditCreated  AuditAction = "created"
	AuditUpdated  AuditAction = "updated"
	AuditEnabled  AuditAction = "enabled"
	AuditDisabled AuditAction = "disabled"
	AuditDeleted  AuditAction = "deleted"
)

// AuditEntry is one immutable record of a configuration mutation. Exactly one
// entry is written per mutation, in the same transaction as the mutation
// itself. Entries are never updated or deleted.
type AuditEntry struct {
	ID         uuid.UUID      `json:"id"`
	TargetKind string         `json:"target_kind"`
	TargetID   uuid.UUID      `json:"target_id"`
	TargetName string         `json:"target_name"`
	Action     AuditAction    `json:"action"`
	OldValues  map[string]any `json:"old_values,omitempty"`
	NewValues  map[string]any `json:"new_values,omitempty"`
	ChangedBy  string         `json:"changed_by"`
	Reason     string         `json:"reason,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Audit target kinds.
const (
	AuditTargetFlag   = "feature_flag"
	AuditTargetAPIKey = "api_key"
	AuditTargetUser   = "user"
)
