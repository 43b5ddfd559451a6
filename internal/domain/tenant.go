package domain

import (
	"time"

	"github.com/google/uuid"
)

// Plan is a tenant's subscription plan.
type Plan string

const (
	PlanFree   Plan = "free"
	PlanPro    Plan = "pro"
	PlanFamily Plan = "family"
)

func (p Plan) Valid() bool {
	switch p {
	case PlanFree, PlanPro, PlanFamily:
		return true
	}
	return false
}

// TenantStatus is a tenant's lifecycle status. Tenants are never hard-deleted;
// they only transition between statuses.
type TenantStatus string

const (
	TenantActive    TenantStatus = "active"
	TenantInactive  TenantStatus = "inactive"
	TenantSuspended TenantStatus = "suspended"
	TenantCancelled TenantStatus = "cancelled"
)

func (s TenantStatus) Valid() bool {
	switch s {
	case TenantActive, TenantInactive, TenantSuspended, TenantCancelled:
		return true
	}
	return false
}

type Tenant struct {
	ID        uuid.UUID    `json:"id"`
	Name      string       `json:"name"`
	Plan      Plan         `json:"plan"`
	Status    TenantStatus `json:"status"`
	CreatedAt time.Time    `json:"created_at"`
	UpdatedAt time.Time    `json:"updated_at"`
}
