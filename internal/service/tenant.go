package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

var (
	ErrTenantNotFound = errors.New("tenant not found")
	ErrInvalidPlan    = errors.New("invalid plan")
	ErrInvalidStatus  = errors.New("invalid status")
)

// TenantService manages tenant lifecycle and membership administration.
// Every operation other than Create passes through the policy engine first.
type TenantService struct {
	tenants     domain.TenantStore
	memberships domain.MembershipStore
	policy      domain.Authorizer
}

func NewTenantService(ts domain.TenantStore, ms domain.MembershipStore, policy domain.Authorizer) *TenantService {
	return &TenantService{tenants: ts, memberships: ms, policy: policy}
}

// Create provisions a tenant and makes the creator its owner. The tenant
// row, the owner membership and the creator's profile tenancy commit
// together.
func (s *TenantService) Create(ctx context.Context, creator *domain.User, name string, plan domain.Plan) (*domain.Tenant, error) {
	if plan == "" {
		plan = domain.PlanFree
	}
	if !plan.Valid() {
		return nil, ErrInvalidPlan
	}

	t := &domain.Tenant{
		Name:   name,
		Plan:   plan,
		Status: domain.TenantActive,
	}
	if err := s.tenants.CreateWithOwner(ctx, t, creator.ID); err != nil {
		return nil, err
	}
	if creator.TenantID == nil {
		creator.TenantID = &t.ID
	}
	return t, nil
}

func (s *TenantService) Get(ctx context.Context, user *domain.User, id uuid.UUID) (*domain.Tenant, error) {
	ref := domain.ResourceRef{Kind: domain.KindTenant, TenantID: &id}
	if err := s.policy.Authorize(ctx, user, domain.ActionRead, ref); err != nil {
		// Denial reads as not-found so tenant existence does not leak.
		return nil, ErrTenantNotFound
	}
	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

// Update changes plan and status. Owner only; status transitions are soft,
// there is no delete.
func (s *TenantService) Update(ctx context.Context, user *domain.User, id uuid.UUID, name string, plan domain.Plan, status domain.TenantStatus) (*domain.Tenant, error) {
	ref := domain.ResourceRef{Kind: domain.KindTenant, TenantID: &id}
	if err := s.policy.Authorize(ctx, user, domain.ActionManage, ref); err != nil {
		return nil, ErrTenantNotFound
	}

	t, err := s.tenants.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrTenantNotFound
		}
		return nil, err
	}

	if name != "" {
		t.Name = name
	}
	if plan != "" {
		if !plan.Valid() {
			return nil, ErrInvalidPlan
		}
		t.Plan = plan
	}
	if status != "" {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		t.Status = status
	}

	if err := s.tenants.Update(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// Members lists the tenant's memberships. Any active member may read the
// roster.
func (s *TenantService) Members(ctx context.Context, user *domain.User, tenantID uuid.UUID) ([]domain.Membership, error) {
	ref := domain.ResourceRef{Kind: domain.KindTenant, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionRead, ref); err != nil {
		return nil, ErrTenantNotFound
	}
	return s.memberships.ListByTenant(ctx, tenantID)
}

// Invite adds a user to the tenant. Owner only.
func (s *TenantService) Invite(ctx context.Context, user *domain.User, tenantID, inviteeID uuid.UUID, role domain.Role) (*domain.Membership, error) {
	ref := domain.ResourceRef{Kind: domain.KindTenant, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionManage, ref); err != nil {
		return nil, ErrTenantNotFound
	}
	if !role.Valid() {
		return nil, ErrInvalidRole
	}

	m := &domain.Membership{
		TenantID: tenantID,
		UserID:   inviteeID,
		Role:     role,
		Status:   domain.MembershipActive,
	}
	if err := s.memberships.Create(ctx, m); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrMembershipConflict
		}
		return nil, err
	}
	return m, nil
}

// UpdateMember changes a member's role or status. Owner only; removal is a
// soft transition to suspended.
func (s *TenantService) UpdateMember(ctx context.Context, user *domain.User, tenantID, memberID uuid.UUID, role domain.Role, status domain.MembershipStatus) (*domain.Membership, error) {
	ref := domain.ResourceRef{Kind: domain.KindTenant, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionManage, ref); err != nil {
		return nil, ErrTenantNotFound
	}

	m, err := s.memberships.Get(ctx, memberID, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrMembershipNotFound
		}
		return nil, err
	}

	if role != "" {
		if !role.Valid() {
			return nil, ErrInvalidRole
		}
		m.Role = role
	}
	if status != "" {
		if !status.Valid() {
			return nil, ErrInvalidStatus
		}
		m.Status = status
	}

	if err := s.memberships.Update(ctx, m); err != nil {
		return nil, err
	}
	return m, nil
}
