package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
)

// mockMembershipStore implements domain.MembershipStore for testing. When
// users is set, Create mirrors the store contract and claims the tenant as
// the user's home tenant on their first membership.
type mockMembershipStore struct {
	memberships []*domain.Membership
	users       *mockUserStore
}

func newMockMembershipStore() *mockMembershipStore {
	return &mockMembershipStore{}
}

func (m *mockMembershipStore) add(userID, tenantID uuid.UUID, role domain.Role, status domain.MembershipStatus) *domain.Membership {
	ms := &domain.Membership{
		ID:       uuid.New(),
		TenantID: tenantID,
		UserID:   userID,
		Role:     role,
		Status:   status,
	}
	m.memberships = append(m.memberships, ms)
	return ms
}

func (m *mockMembershipStore) Create(ctx context.Context, ms *domain.Membership) error {
	for _, existing := range m.memberships {
		if existing.UserID == ms.UserID && existing.TenantID == ms.TenantID {
			return store.ErrConflict
		}
	}
	ms.ID = uuid.New()
	m.memberships = append(m.memberships, ms)
	if m.users != nil {
		if u, ok := m.users.users[ms.UserID]; ok && u.TenantID == nil {
			u.TenantID = &ms.TenantID
		}
	}
	return nil
}

func (m *mockMembershipStore) Get(ctx context.Context, userID, tenantID uuid.UUID) (*domain.Membership, error) {
	for _, ms := range m.memberships {
		if ms.UserID == userID && ms.TenantID == tenantID {
			return ms, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *mockMembershipStore) Update(ctx context.Context, ms *domain.Membership) error {
	for _, existing := range m.memberships {
		if existing.ID == ms.ID {
			*existing = *ms
			return nil
		}
	}
	return store.ErrNotFound
}

func (m *mockMembershipStore) ListByTenant(ctx context.Context, tenantID uuid.UUID) ([]domain.Membership, error) {
	var out []domain.Membership
	for _, ms := range m.memberships {
		if ms.TenantID == tenantID {
			out = append(out, *ms)
		}
	}
	return out, nil
}

func (m *mockMembershipStore) ListActiveTenantIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, ms := range m.memberships {
		if ms.UserID == userID && ms.Status == domain.MembershipActive {
			ids = append(ids, ms.TenantID)
		}
	}
	return ids, nil
}

func TestMembershipService_UserTenants(t *testing.T) {
	mockStore := newMockMembershipStore()
	s := NewMembershipService(mockStore)
	ctx := context.Background()

	userID := uuid.New()
	tenantA := uuid.New()
	tenantB := uuid.New()
	tenantC := uuid.New()

	mockStore.add(userID, tenantA, domain.RoleOwner, domain.MembershipActive)
	mockStore.add(userID, tenantB, domain.RoleViewer, domain.MembershipActive)
	mockStore.add(userID, tenantC, domain.RoleEditor, domain.MembershipSuspended)

	set, err := s.UserTenants(ctx, userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(set) != 2 {
		t.Fatalf("expected 2 tenants, got %d", len(set))
	}
	if _, ok := set[tenantA]; !ok {
		t.Error("expected tenant A in set")
	}
	if _, ok := set[tenantB]; !ok {
		t.Error("expected tenant B in set")
	}
	if _, ok := set[tenantC]; ok {
		t.Error("suspended membership must not appear in set")
	}
}

func TestMembershipService_UserTenants_Empty(t *testing.T) {
	s := NewMembershipService(newMockMembershipStore())

	set, err := s.UserTenants(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("zero memberships must not be an error, got %v", err)
	}
	if len(set) != 0 {
		t.Fatalf("expected empty set, got %d entries", len(set))
	}
}

func TestMembershipService_RoleIn(t *testing.T) {
	mockStore := newMockMembershipStore()
	s := NewMembershipService(mockStore)
	ctx := context.Background()

	userID := uuid.New()
	tenantID := uuid.New()
	mockStore.add(userID, tenantID, domain.RoleEditor, domain.MembershipActive)

	role, ok, err := s.RoleIn(ctx, userID, tenantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !ok || role != domain.RoleEditor {
		t.Fatalf("expected editor role, got %q ok=%v", role, ok)
	}
}

func TestMembershipService_RoleIn_NoMembership(t *testing.T) {
	s := NewMembershipService(newMockMembershipStore())

	_, ok, err := s.RoleIn(context.Background(), uuid.New(), uuid.New())
	if err != nil {
		t.Fatalf("missing membership must not be an error, got %v", err)
	}
	if ok {
		t.Fatal("expected no membership")
	}
}

func TestMembershipService_RoleIn_Suspended(t *testing.T) {
	mockStore := newMockMembershipStore()
	s := NewMembershipService(mockStore)

	userID := uuid.New()
	tenantID := uuid.New()
	mockStore.add(userID, tenantID, domain.RoleOwner, domain.MembershipSuspended)

	_, ok, err := s.RoleIn(context.Background(), userID, tenantID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if ok {
		t.Fatal("suspended membership must grant nothing")
	}
}

func TestMembershipService_IsOwner(t *testing.T) {
	mockStore := newMockMembershipStore()
	s := NewMembershipService(mockStore)
	ctx := context.Background()

	owner := uuid.New()
	viewer := uuid.New()
	tenantID := uuid.New()
	mockStore.add(owner, tenantID, domain.RoleOwner, domain.MembershipActive)
	mockStore.add(viewer, tenantID, domain.RoleViewer, domain.MembershipActive)

	ok, err := s.IsOwner(ctx, owner, tenantID)
	if err != nil || !ok {
		t.Fatalf("expected owner, got ok=%v err=%v", ok, err)
	}
	ok, err = s.IsOwner(ctx, viewer, tenantID)
	if err != nil || ok {
		t.Fatalf("viewer must not be owner, got ok=%v err=%v", ok, err)
	}
}
