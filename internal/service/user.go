package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

var (
	ErrUserNotFound = errors.New("user not found")
	ErrUserConflict = errors.New("user with this email already exists")
	ErrKeyNotFound  = errors.New("api key not found")
)

// UserService manages principals, their profiles and their API keys.
type UserService struct {
	users  domain.UserStore
	keys   domain.APIKeyStore
	policy domain.Authorizer
}

func NewUserService(us domain.UserStore, ks domain.APIKeyStore, policy domain.Authorizer) *UserService {
	return &UserService{users: us, keys: ks, policy: policy}
}

// Register creates a principal. Bootstrap path, no authorization.
func (s *UserService) Register(ctx context.Context, u *domain.User) error {
	if err := s.users.Create(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return ErrUserConflict
		}
		return err
	}
	return nil
}

// GetProfile reads a user's profile row. The read rule's self-row branch
// lets users read their own profile without any membership; otherwise the
// acting user needs an active membership in the profile's tenant.
func (s *UserService) GetProfile(ctx context.Context, actor *domain.User, id uuid.UUID) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ref := domain.ResourceRef{Kind: domain.KindProfile, TenantID: u.TenantID, SubjectID: &u.ID}
	if err := s.policy.Authorize(ctx, actor, domain.ActionRead, ref); err != nil {
		// Deny reads as not-found: profile existence must not leak
		// across tenants.
		return nil, ErrUserNotFound
	}
	return u, nil
}

// UpdateProfile writes a profile row. The self-row exception does not
// extend to writes; the actor needs a writing membership in the profile's
// tenant.
func (s *UserService) UpdateProfile(ctx context.Context, actor *domain.User, id uuid.UUID, displayName string) (*domain.User, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	ref := domain.ResourceRef{Kind: domain.KindProfile, TenantID: u.TenantID, SubjectID: &u.ID}
	if err := s.policy.Authorize(ctx, actor, domain.ActionWrite, ref); err != nil {
		return nil, ErrUserNotFound
	}

	if displayName != "" {
		u.DisplayName = displayName
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// CreateAPIKey records a credential for the acting user. The caller
// generates the plaintext key and supplies only its hash. The key mutation
// is audited atomically by the store.
func (s *UserService) CreateAPIKey(ctx context.Context, actor *domain.User, name, keyHash string) (*domain.APIKey, error) {
	k := &domain.APIKey{UserID: actor.ID, Name: name, KeyHash: keyHash}
	if err := s.keys.Create(ctx, k, actor.ID.String()); err != nil {
		return nil, err
	}
	return k, nil
}

// RevokeAPIKey revokes one of the acting user's own keys.
func (s *UserService) RevokeAPIKey(ctx context.Context, actor *domain.User, id uuid.UUID) error {
	if err := s.keys.Revoke(ctx, id, actor.ID, actor.ID.String()); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrKeyNotFound
		}
		return err
	}
	return nil
}
