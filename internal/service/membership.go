package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

var (
	ErrMembershipNotFound = errors.New("membership not found")
	ErrMembershipConflict = errors.New("user already belongs to this tenant")
	ErrInvalidRole        = errors.New("invalid role")
)

// MembershipService resolves which tenants a user belongs to and what role
// they hold. Absence of membership is an empty result, never an error:
// callers fail closed on empty, and an error here would give them something
// to fail open on.
type MembershipService struct {
	store domain.MembershipStore
}

func NewMembershipService(s domain.MembershipStore) *MembershipService {
	return &MembershipService{store: s}
}

// UserTenants returns the set of tenants in which the user holds an active
// membership. Suspended and pending memberships grant nothing.
func (s *MembershipService) UserTenants(ctx context.Context, userID uuid.UUID) (map[uuid.UUID]struct{}, error) {
	ids, err := s.store.ListActiveTenantIDs(ctx, userID)
	if err != nil {
		return nil, err
	}
	set := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set, nil
}

// RoleIn returns the user's role in the tenant. The second return is false
// when the user has no active membership there.
func (s *MembershipService) RoleIn(ctx context.Context, userID, tenantID uuid.UUID) (domain.Role, bool, error) {
	m, err := s.store.Get(ctx, userID, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	if m.Status != domain.MembershipActive {
		return "", false, nil
	}
	return m.Role, true, nil
}

// HasRole reports whether the user holds exactly the given role in the
// tenant, via an active membership.
func (s *MembershipService) HasRole(ctx context.Context, userID, tenantID uuid.UUID, role domain.Role) (bool, error) {
	r, ok, err := s.RoleIn(ctx, userID, tenantID)
	if err != nil {
		return false, err
	}
	return ok && r == role, nil
}

// IsOwner reports whether the user is an owner of the tenant.
func (s *MembershipService) IsOwner(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	return s.HasRole(ctx, userID, tenantID, domain.RoleOwner)
}

// IsMember reports whether the user has any active membership in the tenant.
func (s *MembershipService) IsMember(ctx context.Context, userID, tenantID uuid.UUID) (bool, error) {
	_, ok, err := s.RoleIn(ctx, userID, tenantID)
	return ok, err
}
