package service

import (
	"context"
	"errors"

	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/metrics"
	"go.uber.org/zap"
)

// ErrDenied is the only authorization failure the policy engine produces.
// Handlers translate it to not-found for tenant-scoped resources so that
// denial never reveals whether a row exists in another tenant.
var ErrDenied = errors.New("access denied")

// adminKinds are the administrative tables the super-admin capability may
// reach across tenant boundaries.
var adminKinds = map[string]bool{
	domain.KindTenant:  true,
	domain.KindProfile: true,
	domain.KindFlag:    true,
}

// PolicyService is the row-level access policy engine. It is the single
// choke point every resource service passes through before touching the
// store, replacing what the database would otherwise enforce declaratively.
// It is a pure predicate: no side effects, no rule ranking.
type PolicyService struct {
	memberships *MembershipService
	logger      *zap.Logger
}

func NewPolicyService(memberships *MembershipService, logger *zap.Logger) *PolicyService {
	return &PolicyService{memberships: memberships, logger: logger}
}

// Authorize decides allow/deny for (user, action, resource). It fails
// closed: a nil principal, an empty membership set, or any unmatched rule
// all deny.
func (s *PolicyService) Authorize(ctx context.Context, user *domain.User, action domain.Action, ref domain.ResourceRef) error {
	if user == nil {
		metrics.AuthzDenials.WithLabelValues(ref.Kind, string(action)).Inc()
		return ErrDenied
	}

	if user.IsSuperAdmin() && adminKinds[ref.Kind] {
		return nil
	}

	allowed, err := s.evaluate(ctx, user, action, ref)
	if err != nil {
		return err
	}
	if !allowed {
		metrics.AuthzDenials.WithLabelValues(ref.Kind, string(action)).Inc()
		s.logger.Debug("authorization denied",
			zap.String("user_id", user.ID.String()),
			zap.String("action", string(action)),
			zap.String("kind", ref.Kind),
		)
		return ErrDenied
	}
	return nil
}

func (s *PolicyService) evaluate(ctx context.Context, user *domain.User, action domain.Action, ref domain.ResourceRef) (bool, error) {
	switch action {
	case domain.ActionRead:
		return s.evaluateRead(ctx, user, ref)
	case domain.ActionWrite:
		return s.evaluateWrite(ctx, user, ref)
	case domain.ActionManage:
		return s.evaluateManage(ctx, user, ref)
	}
	return false, nil
}

// evaluateRead applies the read rule: active membership in the row's
// tenant, OR the row has no tenant yet (migration carve-out, kept as two
// separate branches so it can be removed independently), OR the row's
// subject is the acting user (self-row exception, profiles only).
func (s *PolicyService) evaluateRead(ctx context.Context, user *domain.User, ref domain.ResourceRef) (bool, error) {
	// TODO(migration): drop the null-tenant branch once backfill of
	// tenant_id completes.
	if ref.TenantID == nil {
		return true, nil
	}

	if ref.SubjectID != nil && *ref.SubjectID == user.ID {
		return true, nil
	}

	return s.memberships.IsMember(ctx, user.ID, *ref.TenantID)
}

// evaluateWrite applies the write rule: an active membership with a writing
// role is required. The self-row exception deliberately does not extend to
// writes, so a user cannot reach into another tenant's row by forging their
// own identifier on it.
func (s *PolicyService) evaluateWrite(ctx context.Context, user *domain.User, ref domain.ResourceRef) (bool, error) {
	if ref.TenantID == nil {
		return false, nil
	}
	role, ok, err := s.memberships.RoleIn(ctx, user.ID, *ref.TenantID)
	if err != nil {
		return false, err
	}
	if !ok {
		return false, nil
	}
	return role == domain.RoleOwner || role == domain.RoleEditor, nil
}

// evaluateManage covers tenant-level configuration: settings and membership
// administration. Owner only.
func (s *PolicyService) evaluateManage(ctx context.Context, user *domain.User, ref domain.ResourceRef) (bool, error) {
	if ref.TenantID == nil {
		return false, nil
	}
	return s.memberships.IsOwner(ctx, user.ID, *ref.TenantID)
}
