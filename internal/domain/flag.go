package domain

import (
	"time"

	"github.com/google/uuid"
)

// Environment targets a flag at a deployment environment. EnvAll matches
// every environment.
type Environment string

const (
	EnvAll         Environment = "all"
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

func (e Environment) Valid() bool {
	switch e {
	case EnvAll, EnvDevelopment, EnvStaging, EnvProduction:
		return true
	}
	return false
}

// Matches reports whether a flag targeted at e is visible in env.
func (e Environment) Matches(env Environment) bool {
	return e == EnvAll || e == env
}

// FeatureFlag is a named remotely configurable gate. Rollout percentage is
// validated to [0,100] at the write boundary, never clamped. A flag past its
// expiry always evaluates to off.
type FeatureFlag struct {
	ID                uuid.UUID      `json:"id"`
	Name              string         `json:"name"`
	Description       string         `json:"description,omitempty"`
	Enabled           bool           `json:"enabled"`
	RolloutPercentage int            `json:"rollout_percentage"`
	Environment       Environment    `json:"target_environment"`
	AllowedUsers      []uuid.UUID    `json:"allowed_users,omitempty"`
	Conditions        map[string]any `json:"conditions,omitempty"`
	ExpiresAt         *time.Time     `json:"expires_at,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Expired reports whether the flag is past its expiry at time now.
func (f *FeatureFlag) Expired(now time.Time) bool {
	return f.ExpiresAt != nil && f.ExpiresAt.Before(now)
}

// AllowsUser reports whether the user is explicitly allow-listed.
func (f *FeatureFlag) AllowsUser(userID uuid.UUID) bool {
	for _, id := range f.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}
