package service

import (
	"context"
	"errors"
	"hash/fnv"
	"time"

	"github.com/google/uuid"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/metrics"
	"github.com/plateful/gate/internal/store"
	"go.uber.org/zap"
)

var (
	ErrFlagNotFound       = errors.New("feature flag not found")
	ErrFlagConflict       = errors.New("feature flag with this name already exists")
	ErrFlagInvalidRollout = errors.New("rollout_percentage must be between 0 and 100")
	ErrFlagInvalidEnv     = errors.New("invalid target environment")
)

// FlagService evaluates feature flags and administers their configuration.
// Evaluation is read-only and never audited; every configuration mutation
// writes its audit entry in the same transaction (the store guarantees
// this) and invalidates the cache synchronously.
type FlagService struct {
	store  domain.FlagStore
	audits domain.AuditStore
	cache  *FlagCache
	logger *zap.Logger
	now    func() time.Time
}

func NewFlagService(fs domain.FlagStore, as domain.AuditStore, cache *FlagCache, logger *zap.Logger) *FlagService {
	return &FlagService{
		store:  fs,
		audits: as,
		cache:  cache,
		logger: logger,
		now:    time.Now,
	}
}

// bucket deterministically assigns a user to one of 100 rollout buckets for
// a flag. The same (user, flag) pair always lands in the same bucket, so a
// user's experience is stable across a gradual rollout.
func bucket(userID uuid.UUID, flagName string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID.String()))
	_, _ = h.Write([]byte(":"))
	_, _ = h.Write([]byte(flagName))
	return int(h.Sum32() % 100)
}

// Evaluate decides whether a flag is on for the given user and environment.
// userID may be nil for anonymous callers; anonymous callers can only match
// via a 100% rollout, since there is no identity to bucket or allow-list.
//
// Precedence, in order: absent/disabled/wrong-environment/expired always
// lose; an explicit allow-list hit always wins, including over a 0%
// rollout (0% plus an allow-list is the internal-testing configuration);
// then the 0/100 short-circuits; then the percentage bucket.
func (s *FlagService) Evaluate(ctx context.Context, name string, userID *uuid.UUID, env domain.Environment) (bool, error) {
	f, err := s.getFlag(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			metrics.FlagEvaluations.WithLabelValues(name, "off").Inc()
			return false, nil
		}
		return false, err
	}

	on := s.evaluateFlag(f, userID, env)
	result := "off"
	if on {
		result = "on"
	}
	metrics.FlagEvaluations.WithLabelValues(name, result).Inc()
	return on, nil
}

func (s *FlagService) evaluateFlag(f *domain.FeatureFlag, userID *uuid.UUID, env domain.Environment) bool {
	if !f.Enabled || !f.Environment.Matches(env) || f.Expired(s.now()) {
		return false
	}

	if userID != nil && f.AllowsUser(*userID) {
		return true
	}

	switch f.RolloutPercentage {
	case 0:
		return false
	case 100:
		return true
	}

	if userID == nil {
		return false
	}
	return bucket(*userID, f.Name) < f.RolloutPercentage
}

// EvaluateAll returns the on/off state of every active, non-expired,
// environment-matching flag in one round trip, for client-side caching.
func (s *FlagService) EvaluateAll(ctx context.Context, userID *uuid.UUID, env domain.Environment) (map[string]bool, error) {
	flags, ok := s.cache.GetActive(env)
	if !ok {
		var err error
		flags, err = s.store.ListActive(ctx, env)
		if err != nil {
			return nil, err
		}
		s.cache.SetActive(env, flags)
	}

	results := make(map[string]bool, len(flags))
	for i := range flags {
		results[flags[i].Name] = s.evaluateFlag(&flags[i], userID, env)
	}
	return results, nil
}

func (s *FlagService) getFlag(ctx context.Context, name string) (*domain.FeatureFlag, error) {
	if f, ok := s.cache.GetFlag(name); ok {
		return f, nil
	}
	f, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	s.cache.SetFlag(name, f)
	return f, nil
}

// Get returns the flag configuration, bypassing the cache so operators see
// committed state.
func (s *FlagService) Get(ctx context.Context, name string) (*domain.FeatureFlag, error) {
	f, err := s.store.GetByName(ctx, name)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return f, nil
}

func validateFlag(f *domain.FeatureFlag) error {
	// Out-of-range rollout is rejected, never clamped.
	if f.RolloutPercentage < 0 || f.RolloutPercentage > 100 {
		return ErrFlagInvalidRollout
	}
	if f.Environment == "" {
		f.Environment = domain.EnvAll
	}
	if !f.Environment.Valid() {
		return ErrFlagInvalidEnv
	}
	return nil
}

func (s *FlagService) Create(ctx context.Context, f *domain.FeatureFlag, actor, reason string) error {
	if err := validateFlag(f); err != nil {
		return err
	}
	if err := s.store.Create(ctx, f, actor, reason); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			return ErrFlagConflict
		case errors.Is(err, store.ErrInvalid):
			return ErrFlagInvalidRollout
		}
		return err
	}
	s.cache.Invalidate(f.Name)
	s.logger.Info("feature flag created",
		zap.String("flag", f.Name), zap.String("actor", actor))
	return nil
}

func (s *FlagService) Update(ctx context.Context, f *domain.FeatureFlag, actor, reason string) error {
	if err := validateFlag(f); err != nil {
		return err
	}
	if err := s.store.Update(ctx, f, actor, reason); err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return ErrFlagNotFound
		case errors.Is(err, store.ErrInvalid):
			return ErrFlagInvalidRollout
		}
		return err
	}
	s.cache.Invalidate(f.Name)
	s.logger.Info("feature flag updated",
		zap.String("flag", f.Name), zap.String("actor", actor))
	return nil
}

func (s *FlagService) Delete(ctx context.Context, name, actor, reason string) error {
	if err := s.store.Delete(ctx, name, actor, reason); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrFlagNotFound
		}
		return err
	}
	s.cache.Invalidate(name)
	s.logger.Info("feature flag deleted",
		zap.String("flag", name), zap.String("actor", actor))
	return nil
}

// AuditTrail returns the flag's mutation history, newest first.
func (s *FlagService) AuditTrail(ctx context.Context, name string, limit int) ([]domain.AuditEntry, error) {
	return s.audits.ListByTarget(ctx, domain.AuditTargetFlag, name, limit)
}
