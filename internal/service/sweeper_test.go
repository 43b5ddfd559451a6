package service

import (
	"context"
	"testing"
	"time"

	"github.com/plateful/gate/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFlagSweeper_DisablesExpired(t *testing.T) {
	flags, backend := newTestFlagService(t)
	sweeper := NewFlagSweeperService(flags, zap.NewNop())
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	require.NoError(t, flags.Create(ctx, &domain.FeatureFlag{
		Name: "stale", Enabled: true, RolloutPercentage: 100, ExpiresAt: &past,
	}, "ops", ""))
	require.NoError(t, flags.Create(ctx, &domain.FeatureFlag{
		Name: "fresh", Enabled: true, RolloutPercentage: 100, ExpiresAt: &future,
	}, "ops", ""))

	sweeper.run(ctx)

	stale, err := flags.Get(ctx, "stale")
	require.NoError(t, err)
	assert.False(t, stale.Enabled, "expired flag must be disabled")

	fresh, err := flags.Get(ctx, "fresh")
	require.NoError(t, err)
	assert.True(t, fresh.Enabled, "unexpired flag must be untouched")

	// The transition is audited under the sweeper's identity.
	trail, err := flags.AuditTrail(ctx, "stale", 1)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, domain.AuditDisabled, trail[0].Action)
	assert.Equal(t, sweeperActor, trail[0].ChangedBy)
	assert.Equal(t, "expired", trail[0].Reason)
	assert.Len(t, backend.audits, 3, "one create each plus one disable")
}

func TestFlagSweeper_IdempotentAcrossRuns(t *testing.T) {
	flags, backend := newTestFlagService(t)
	sweeper := NewFlagSweeperService(flags, zap.NewNop())
	ctx := context.Background()

	past := time.Now().Add(-time.Hour)
	require.NoError(t, flags.Create(ctx, &domain.FeatureFlag{
		Name: "stale", Enabled: true, RolloutPercentage: 100, ExpiresAt: &past,
	}, "ops", ""))

	sweeper.run(ctx)
	sweeper.run(ctx)

	assert.Len(t, backend.audits, 2, "a disabled flag must not be swept again")
}

func TestFlagSweeper_StartStop(t *testing.T) {
	flags, _ := newTestFlagService(t)
	sweeper := NewFlagSweeperService(flags, zap.NewNop())
	sweeper.SetInterval(10 * time.Millisecond)

	sweeper.Start()
	time.Sleep(30 * time.Millisecond)
	sweeper.Stop()
}
