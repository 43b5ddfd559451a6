package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

var (
	ErrFavoriteNotFound = errors.New("favorite not found")
	ErrFavoriteConflict = errors.New("recipe is already a favorite")
)

type FavoriteService struct {
	store   domain.FavoriteStore
	recipes domain.RecipeStore
	policy  domain.Authorizer
}

func NewFavoriteService(fs domain.FavoriteStore, rs domain.RecipeStore, policy domain.Authorizer) *FavoriteService {
	return &FavoriteService{store: fs, recipes: rs, policy: policy}
}

// Create marks a recipe as a favorite. The recipe must live in the same
// tenant; a favorite can never point across the tenant boundary.
func (s *FavoriteService) Create(ctx context.Context, user *domain.User, tenantID, recipeID uuid.UUID) (*domain.Favorite, error) {
	ref := domain.ResourceRef{Kind: domain.KindFavorite, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return nil, ErrFavoriteNotFound
	}

	if _, err := s.recipes.GetByID(ctx, recipeID, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrRecipeNotFound
		}
		return nil, err
	}

	f := &domain.Favorite{TenantID: tenantID, UserID: user.ID, RecipeID: recipeID}
	if err := s.store.Create(ctx, f); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, ErrFavoriteConflict
		}
		return nil, err
	}
	return f, nil
}

func (s *FavoriteService) List(ctx context.Context, user *domain.User, tenantID uuid.UUID) ([]domain.Favorite, error) {
	ref := domain.ResourceRef{Kind: domain.KindFavorite, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionRead, ref); err != nil {
		return nil, ErrFavoriteNotFound
	}
	return s.store.ListByTenantUser(ctx, tenantID, user.ID)
}

func (s *FavoriteService) Delete(ctx context.Context, user *domain.User, id, tenantID uuid.UUID) error {
	ref := domain.ResourceRef{Kind: domain.KindFavorite, TenantID: &tenantID}
	if err := s.policy.Authorize(ctx, user, domain.ActionWrite, ref); err != nil {
		return ErrFavoriteNotFound
	}
	if err := s.store.Delete(ctx, id, tenantID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrFavoriteNotFound
		}
		return err
	}
	return nil
}
