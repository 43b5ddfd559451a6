package service

import (
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/plateful/gate/internal/domain"
	"github.com/plateful/gate/internal/metrics"
)

// FlagCache is a short-TTL read-through cache in front of the flag table.
// The flag read path is hot (every request in the consuming application can
// evaluate several flags) while writes are rare and operator-driven, so a
// small TTL bounds staleness and Invalidate removes it entirely on the
// write path.
type FlagCache struct {
	flags *expirable.LRU[string, *domain.FeatureFlag]
	lists *expirable.LRU[domain.Environment, []domain.FeatureFlag]
}

func NewFlagCache(size int, ttl time.Duration) *FlagCache {
	return &FlagCache{
		flags: expirable.NewLRU[string, *domain.FeatureFlag](size, nil, ttl),
		lists: expirable.NewLRU[domain.Environment, []domain.FeatureFlag](8, nil, ttl),
	}
}

func (c *FlagCache) GetFlag(name string) (*domain.FeatureFlag, bool) {
	f, ok := c.flags.Get(name)
	if ok {
		metrics.FlagCacheHits.WithLabelValues("hit").Inc()
	} else {
		metrics.FlagCacheHits.WithLabelValues("miss").Inc()
	}
	return f, ok
}

func (c *FlagCache) SetFlag(name string, f *domain.FeatureFlag) {
	c.flags.Add(name, f)
}

func (c *FlagCache) GetActive(env domain.Environment) ([]domain.FeatureFlag, bool) {
	l, ok := c.lists.Get(env)
	if ok {
		metrics.FlagCacheHits.WithLabelValues("hit").Inc()
	} else {
		metrics.FlagCacheHits.WithLabelValues("miss").Inc()
	}
	return l, ok
}

func (c *FlagCache) SetActive(env domain.Environment, flags []domain.FeatureFlag) {
	c.lists.Add(env, flags)
}

// Invalidate drops the named flag and every cached active list. Called
// synchronously on each flag mutation, before the mutation returns to the
// caller.
func (c *FlagCache) Invalidate(name string) {
	c.flags.Remove(name)
	c.lists.Purge()
}
