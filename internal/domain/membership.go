package domain

import (
	"time"

	"github.com/google/uuid"
)

// Role is a member's role within a tenant.
type Role string

const (
	RoleOwner  Role = "owner"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

func (r Role) Valid() bool {
	switch r {
	case RoleOwner, RoleEditor, RoleViewer:
		return true
	}
	return false
}

// MembershipStatus tracks the lifecycle of a membership. Transitions are
// soft; a suspended membership row stays in place but grants nothing.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipPending   MembershipStatus = "pending"
	MembershipSuspended MembershipStatus = "suspended"
)

func (s MembershipStatus) Valid() bool {
	switch s {
	case MembershipActive, MembershipPending, MembershipSuspended:
		return true
	}
	return false
}

// Membership binds a user to a tenant with a role. At most one active row
// exists per (user, tenant) pair.
type Membership struct {
	ID        uuid.UUID        `json:"id"`
	TenantID  uuid.UUID        `json:"tenant_id"`
	UserID    uuid.UUID        `json:"user_id"`
	Role      Role             `json:"role"`
	Status    MembershipStatus `json:"status"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}
