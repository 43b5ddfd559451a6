package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

var ErrRecipeNotFound = errors.New("recipe not found")

type RecipeService struct {
	store  domain.RecipeStore
	policy domain.Authorizer
}

func NewRecipeService(rs domain.RecipeStore, policy domain.Authorizer) *RecipeService {
	return &RecipeService{store: rs, policy: policy}
}

func (s *RecipeService) Create(ctx context.Context, user *domain.User, r *domain.Recipe) error {
	ref := domain.ResourceRef{Kind: domain.KindRecipe, TenantID: &r.TenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return ErrRecipeNotFound
	}
	r.CreatedBy = user.ID
	return s.store.Create(ctx, r)
}

func (s *RecipeService) GetByID(ctx context.Context, user *domain.User, id, tenantID uuid.UUID) (*domain.Recipe, error) {
	ref := domain.ResourceRef{Kind: domain.KindRecipe, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionRead, ref); err != nil {
		return nil, ErrRecipeNotFound
	}
	r, err := s.store.GetByID(ctx, id, tenantID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}
	return r, nil
}

func (s *RecipeService) List(ctx context.Context, user *domain.User, tenantID uuid.UUID) ([]domain.Recipe, error) {
	ref := domain.ResourceRef{Kind: domain.KindRecipe, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionRead, ref); err != nil {
		return nil, ErrRecipeNotFound
	}
	return s.store.ListByTenant(ctx, tenantID)
}

func (s *RecipeService) Update(ctx context.Context, user *domain.User, r *domain.Recipe) error {
	ref := domain.ResourceRef{Kind: domain.KindRecipe, TenantID: &r.TenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return ErrRecipeNotFound
	}
	if err := s.store.Update(ctx, r); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	return nil
}

func (s *RecipeService) Delete(ctx context.Context, user *domain.User, id, tenantID uuid.UUID) error {
	ref := domain.ResourceRef{Kind: domain.KindRecipe, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return ErrRecipeNotFound
	}
	if err := s.store.Delete(ctx, id, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrRecipeNotFound
		}
		return err
	}
	return nil
}
