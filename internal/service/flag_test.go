package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// mockFlagBackend implements domain.FlagStore and domain.AuditStore in
// memory, mirroring the store's contract: exactly one audit entry per
// mutation, written atomically with it.
type mockFlagBackend struct {
	flags  map[string]*domain.FeatureFlag
	audits []domain.AuditEntry
}

func newMockFlagBackend() *mockFlagBackend {
	return &mockFlagBackend{flags: make(map[string]*domain.FeatureFlag)}
}

func flagSnapshot(f *domain.FeatureFlag) map[string]any {
	if f == nil {
		return nil
	}
	return map[string]any{
		"name":               f.Name,
		"enabled":            f.Enabled,
		"rollout_percentage": f.RolloutPercentage,
		"target_environment": string(f.Environment),
	}
}

func (m *mockFlagBackend) recordAudit(f *domain.FeatureFlag, action domain.AuditAction, oldValues, newValues map[string]any, actor, reason string) {
	m.audits = append(m.audits, domain.AuditEntry{
		ID:         uuid.New(),
		TargetKind: domain.AuditTargetFlag,
		TargetID:   f.ID,
		TargetName: f.Name,
		Action:     action,
		OldValues:  oldValues,
		NewValues:  newValues,
		ChangedBy:  actor,
		Reason:     reason,
		CreatedAt:  time.Now(),
	})
}

func (m *mockFlagBackend) Create(ctx context.Context, f *domain.FeatureFlag, actor, reason string) error {
	if _, ok := m.flags[f.Name]; ok {
		return store.ErrConflict
	}
	if f.RolloutPercentage < 0 || f.RolloutPercentage > 100 {
		return store.ErrInvalid
	}
	f.ID = uuid.New()
	cp := *f
	m.flags[f.Name] = &cp
	m.recordAudit(f, domain.AuditCreated, nil, flagSnapshot(f), actor, reason)
	return nil
}

func (m *mockFlagBackend) GetByName(ctx context.Context, name string) (*domain.FeatureFlag, error) {
	f, ok := m.flags[name]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (m *mockFlagBackend) ListActive(ctx context.Context, env domain.Environment) ([]domain.FeatureFlag, error) {
	var out []domain.FeatureFlag
	for _, f := range m.flags {
		if f.Enabled && f.Environment.Matches(env) && !f.Expired(time.Now()) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFlagBackend) ListExpiredEnabled(ctx context.Context) ([]domain.FeatureFlag, error) {
	var out []domain.FeatureFlag
	for _, f := range m.flags {
		if f.Enabled && f.Expired(time.Now()) {
			out = append(out, *f)
		}
	}
	return out, nil
}

func (m *mockFlagBackend) Update(ctx context.Context, f *domain.FeatureFlag, actor, reason string) error {
	old, ok := m.flags[f.Name]
	if !ok {
		return store.ErrNotFound
	}
	if f.RolloutPercentage < 0 || f.RolloutPercentage > 100 {
		return store.ErrInvalid
	}
	action := domain.AuditUpdated
	if old.Enabled != f.Enabled {
		if f.Enabled {
			action = domain.AuditEnabled
		} else {
			action = domain.AuditDisabled
		}
	}
	f.ID = old.ID
	cp := *f
	m.flags[f.Name] = &cp
	m.recordAudit(f, action, flagSnapshot(old), flagSnapshot(f), actor, reason)
	return nil
}

func (m *mockFlagBackend) Delete(ctx context.Context, name string, actor, reason string) error {
	old, ok := m.flags[name]
	if !ok {
		return store.ErrNotFound
	}
	delete(m.flags, name)
	m.recordAudit(old, domain.AuditDeleted, flagSnapshot(old), nil, actor, reason)
	return nil
}

func (m *mockFlagBackend) ListByTarget(ctx context.Context, kind, name string, limit int) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	for i := len(m.audits) - 1; i >= 0; i-- {
		e := m.audits[i]
		if e.TargetKind == kind && e.TargetName == name {
			out = append(out, e)
			if limit > 0 && len(out) == limit {
				break
			}
		}
	}
	return out, nil
}

func newTestFlagService(t *testing.T) (*FlagService, *mockFlagBackend) {
	t.Helper()
	backend := newMockFlagBackend()
	cache := NewFlagCache(64, time.Minute)
	return NewFlagService(backend, backend, cache, zap.NewNop()), backend
}

func TestFlagEvaluate_MissingFlagIsOff(t *testing.T) {
	s, _ := newTestFlagService(t)
	userID := uuid.New()

	on, err := s.Evaluate(context.Background(), "no-such-flag", &userID, domain.EnvProduction)
	require.NoError(t, err, "missing flag must not be an error")
	assert.False(t, on)
}

func TestFlagEvaluate_DisabledIsOff(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name:              "dark-mode",
		Enabled:           false,
		RolloutPercentage: 100,
		AllowedUsers:      []uuid.UUID{userID},
	}, "ops", ""))

	on, err := s.Evaluate(ctx, "dark-mode", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.False(t, on, "disabled beats allow-list and 100% rollout")
}

func TestFlagEvaluate_EnvironmentTargeting(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name:              "staging-only",
		Enabled:           true,
		RolloutPercentage: 100,
		Environment:       domain.EnvStaging,
	}, "ops", ""))
	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name:              "everywhere",
		Enabled:           true,
		RolloutPercentage: 100,
		Environment:       domain.EnvAll,
	}, "ops", ""))

	on, err := s.Evaluate(ctx, "staging-only", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.False(t, on, "environment mismatch must be off")

	on, err = s.Evaluate(ctx, "staging-only", &userID, domain.EnvStaging)
	require.NoError(t, err)
	assert.True(t, on)

	on, err = s.Evaluate(ctx, "everywhere", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.True(t, on, "all-targeted flag matches every environment")
}

func TestFlagEvaluate_ExpiredIsOff(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	userID := uuid.New()

	expiry := time.Now().Add(time.Hour)
	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name:              "promo",
		Enabled:           true,
		RolloutPercentage: 100,
		AllowedUsers:      []uuid.UUID{userID},
		ExpiresAt:         &expiry,
	}, "ops", ""))

	on, err := s.Evaluate(ctx, "promo", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.True(t, on, "not yet expired")

	// Advance the evaluator's clock past the expiry.
	s.now = func() time.Time { return expiry.Add(time.Minute) }

	on, err = s.Evaluate(ctx, "promo", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.False(t, on, "expired flag must be off even with allow-list and 100%")
}

func TestFlagEvaluate_RolloutShortCircuits(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "off-for-all", Enabled: true, RolloutPercentage: 0,
	}, "ops", ""))
	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "on-for-all", Enabled: true, RolloutPercentage: 100,
	}, "ops", ""))

	on, err := s.Evaluate(ctx, "off-for-all", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.False(t, on)

	on, err = s.Evaluate(ctx, "on-for-all", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.True(t, on)
}

func TestFlagEvaluate_AllowListBeatsZeroRollout(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	insider := uuid.New()
	outsider := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name:              "internal-testing",
		Enabled:           true,
		RolloutPercentage: 0,
		AllowedUsers:      []uuid.UUID{insider},
	}, "ops", ""))

	on, err := s.Evaluate(ctx, "internal-testing", &insider, domain.EnvProduction)
	require.NoError(t, err)
	assert.True(t, on, "allow-list hit wins over 0% rollout")

	on, err = s.Evaluate(ctx, "internal-testing", &outsider, domain.EnvProduction)
	require.NoError(t, err)
	assert.False(t, on)
}

func TestFlagEvaluate_Anonymous(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "full", Enabled: true, RolloutPercentage: 100,
	}, "ops", ""))
	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "half", Enabled: true, RolloutPercentage: 50,
	}, "ops", ""))

	on, err := s.Evaluate(ctx, "full", nil, domain.EnvProduction)
	require.NoError(t, err)
	assert.True(t, on, "anonymous sees 100% flags")

	on, err = s.Evaluate(ctx, "half", nil, domain.EnvProduction)
	require.NoError(t, err)
	assert.False(t, on, "anonymous has no bucket, partial rollout is off")
}

func TestFlagEvaluate_Deterministic(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "gradual", Enabled: true, RolloutPercentage: 37,
	}, "ops", ""))

	first, err := s.Evaluate(ctx, "gradual", &userID, domain.EnvProduction)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		on, err := s.Evaluate(ctx, "gradual", &userID, domain.EnvProduction)
		require.NoError(t, err)
		require.Equal(t, first, on, "same user must always get the same answer")
	}
}

func TestFlagEvaluate_RolloutDistribution(t *testing.T) {
	s, _ := newTestFlagService(t)
	flag := &domain.FeatureFlag{Name: "gradual", Enabled: true, RolloutPercentage: 50, Environment: domain.EnvAll}

	users := make([]uuid.UUID, 1000)
	for i := range users {
		users[i] = uuid.New()
	}

	firstPass := make([]bool, len(users))
	enabled := 0
	for i, u := range users {
		firstPass[i] = s.evaluateFlag(flag, &u, domain.EnvProduction)
		if firstPass[i] {
			enabled++
		}
	}

	// The bucket hash should land roughly half the population inside a 50%
	// rollout. A wide tolerance keeps this robust against unlucky draws.
	assert.Greater(t, enabled, 350, "far fewer users enabled than rollout percentage")
	assert.Less(t, enabled, 650, "far more users enabled than rollout percentage")

	for i, u := range users {
		assert.Equal(t, firstPass[i], s.evaluateFlag(flag, &u, domain.EnvProduction),
			"assignment must be stable across passes")
	}
}

func TestFlagEvaluate_BucketIndependentPerFlag(t *testing.T) {
	s, _ := newTestFlagService(t)
	flagA := &domain.FeatureFlag{Name: "flag-a", Enabled: true, RolloutPercentage: 50, Environment: domain.EnvAll}
	flagB := &domain.FeatureFlag{Name: "flag-b", Enabled: true, RolloutPercentage: 50, Environment: domain.EnvAll}

	// With the flag name mixed into the hash, the two assignments must not
	// be identical across a large population.
	same := 0
	for i := 0; i < 500; i++ {
		u := uuid.New()
		if s.evaluateFlag(flagA, &u, domain.EnvProduction) == s.evaluateFlag(flagB, &u, domain.EnvProduction) {
			same++
		}
	}
	assert.NotEqual(t, 500, same, "buckets must depend on the flag name, not only the user")
}

func TestFlagEvaluateAll(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "on-everywhere", Enabled: true, RolloutPercentage: 100,
	}, "ops", ""))
	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "zeroed", Enabled: true, RolloutPercentage: 0,
	}, "ops", ""))
	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "disabled", Enabled: false, RolloutPercentage: 100,
	}, "ops", ""))
	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "staging-only", Enabled: true, RolloutPercentage: 100, Environment: domain.EnvStaging,
	}, "ops", ""))

	results, err := s.EvaluateAll(ctx, &userID, domain.EnvProduction)
	require.NoError(t, err)

	assert.Equal(t, map[string]bool{
		"on-everywhere": true,
		"zeroed":        false,
	}, results, "disabled and mismatched flags are filtered, active-off flags report false")
}

func TestFlagValidation(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()

	err := s.Create(ctx, &domain.FeatureFlag{Name: "bad", Enabled: true, RolloutPercentage: 101}, "ops", "")
	assert.ErrorIs(t, err, ErrFlagInvalidRollout, "out-of-range rollout is rejected, not clamped")

	err = s.Create(ctx, &domain.FeatureFlag{Name: "bad", Enabled: true, RolloutPercentage: -1}, "ops", "")
	assert.ErrorIs(t, err, ErrFlagInvalidRollout)

	err = s.Create(ctx, &domain.FeatureFlag{Name: "bad", Enabled: true, Environment: "qa"}, "ops", "")
	assert.ErrorIs(t, err, ErrFlagInvalidEnv)

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{Name: "dup", Enabled: true}, "ops", ""))
	err = s.Create(ctx, &domain.FeatureFlag{Name: "dup", Enabled: true}, "ops", "")
	assert.ErrorIs(t, err, ErrFlagConflict)

	err = s.Update(ctx, &domain.FeatureFlag{Name: "ghost", Enabled: true}, "ops", "")
	assert.ErrorIs(t, err, ErrFlagNotFound)

	err = s.Delete(ctx, "ghost", "ops", "")
	assert.ErrorIs(t, err, ErrFlagNotFound)
}

func TestFlagAuditTrail(t *testing.T) {
	s, backend := newTestFlagService(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "lifecycle", Enabled: true, RolloutPercentage: 10,
	}, "alice", "initial rollout"))
	require.NoError(t, s.Update(ctx, &domain.FeatureFlag{
		Name: "lifecycle", Enabled: true, RolloutPercentage: 50,
	}, "alice", "expand"))
	require.NoError(t, s.Update(ctx, &domain.FeatureFlag{
		Name: "lifecycle", Enabled: false, RolloutPercentage: 50,
	}, "bob", "incident"))
	require.NoError(t, s.Delete(ctx, "lifecycle", "alice", "cleanup"))

	// Exactly one entry per mutation.
	require.Len(t, backend.audits, 4)

	trail, err := s.AuditTrail(ctx, "lifecycle", 0)
	require.NoError(t, err)
	require.Len(t, trail, 4)

	// Newest first; toggling Enabled refines the action.
	assert.Equal(t, domain.AuditDeleted, trail[0].Action)
	assert.Equal(t, domain.AuditDisabled, trail[1].Action)
	assert.Equal(t, domain.AuditUpdated, trail[2].Action)
	assert.Equal(t, domain.AuditCreated, trail[3].Action)

	assert.Equal(t, "bob", trail[1].ChangedBy)
	assert.Equal(t, "incident", trail[1].Reason)

	// Rollout change captured as old and new snapshots.
	assert.Equal(t, 10, trail[2].OldValues["rollout_percentage"])
	assert.Equal(t, 50, trail[2].NewValues["rollout_percentage"])

	// Create has no prior state, delete no new state.
	assert.Nil(t, trail[3].OldValues)
	assert.Nil(t, trail[0].NewValues)
}

func TestFlagAudit_FailedMutationLeavesNoEntry(t *testing.T) {
	s, backend := newTestFlagService(t)
	ctx := context.Background()

	err := s.Create(ctx, &domain.FeatureFlag{Name: "bad", RolloutPercentage: 150}, "ops", "")
	require.Error(t, err)
	assert.Empty(t, backend.audits, "rejected mutation must not leave an audit entry")
}

func TestFlagCacheInvalidation(t *testing.T) {
	s, _ := newTestFlagService(t)
	ctx := context.Background()
	userID := uuid.New()

	require.NoError(t, s.Create(ctx, &domain.FeatureFlag{
		Name: "cached", Enabled: true, RolloutPercentage: 100,
	}, "ops", ""))

	// Prime the cache.
	on, err := s.Evaluate(ctx, "cached", &userID, domain.EnvProduction)
	require.NoError(t, err)
	require.True(t, on)

	// Mutation through the service invalidates synchronously, so the next
	// evaluation sees the new configuration despite the TTL.
	require.NoError(t, s.Update(ctx, &domain.FeatureFlag{
		Name: "cached", Enabled: false, RolloutPercentage: 100,
	}, "ops", "kill switch"))

	on, err = s.Evaluate(ctx, "cached", &userID, domain.EnvProduction)
	require.NoError(t, err)
	assert.False(t, on, "cache must not serve the pre-mutation state")
}

func TestFlagGet_NotFound(t *testing.T) {
	s, _ := newTestFlagService(t)

	_, err := s.Get(context.Background(), "nope")
	assert.True(t, errors.Is(err, ErrFlagNotFound))
}
