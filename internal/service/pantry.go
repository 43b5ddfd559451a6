package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

var ErrPantryItemNotFound = errors.New("pantry item not found")

// PantryService is a tenant-scoped resource service. Every call authorizes
// against the acting user's memberships before touching the store, and
// denials surface as not-found.
type PantryService struct {
	store  domain.PantryStore
	policy domain.Authorizer
}

func NewPantryService(ps domain.PantryStore, policy domain.Authorizer) *PantryService {
	return &PantryService{store: ps, policy: policy}
}

func (s *PantryService) Create(ctx context.Context, user *domain.User, p *domain.PantryItem) error {
	ref := domain.ResourceRef{Kind: domain.KindPantryItem, TenantID: &p.TenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return ErrPantryItemNotFound
	}
	p.CreatedBy = user.ID
	return s.store.Create(ctx, p)
}

func (s *PantryService) GetByID(ctx context.Context, user *domain.User, id, tenantID uuid.UUID) (*domain.PantryItem, error) {
	ref := domain.ResourceRef{Kind: domain.KindPantryItem, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionRead, ref); err != nil {
		return nil, ErrPantryItemNotFound
	}
	p, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrPantryItemNotFound
		}
		return nil, err
	}
	return p, nil
}

func (s *PantryService) List(ctx context.Context, user *domain.User, tenantID uuid.UUID) ([]domain.PantryItem, error) {
	ref := domain.ResourceRef{Kind: domain.KindPantryItem, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionRead, ref); err != nil {
		// A non-member sees zero rows, exactly as if the tenant held
		// nothing.
		return nil, ErrPantryItemNotFound
	}
	return s.store.ListByTenant(ctx, tenantID)
}

func (s *PantryService) Update(ctx context.Context, user *domain.User, p *domain.PantryItem) error {
	ref := domain.ResourceRef{Kind: domain.KindPantryItem, TenantID: &p.TenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return ErrPantryItemNotFound
	}
	if err := s.store.Update(ctx, p); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPantryItemNotFound
		}
		return err
	}
	return nil
}

func (s *PantryService) Delete(ctx context.Context, user *domain.User, id, tenantID uuid.UUID) error {
	ref := domain.ResourceRef{Kind: domain.KindPantryItem, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return ErrPantryItemNotFound
	}
	if err := s.store.Delete(ctx, id, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrPantryItemNotFound
		}
		return err
	}
	return nil
}
