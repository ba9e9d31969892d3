package cache

import (
	"context"
	"time"

	"centime/internal/kv"
	"centime/internal/log"
)

// Aggregate caches scalar aggregates (running sums) as decimal
// strings. Aggregate keys carry no generation suffix: recomputing from
// a stale cached total is unsafe under concurrent writers, so writes
// invalidate these entries by explicit deletion, not rotation.
type Aggregate struct {
	store kv.Store
	ttl   time.Duration
	log   *log.Logger
}

// NewAggregate builds an aggregate cache; zero ttl means DefaultTTL.
func NewAggregate(store kv.Store, ttl time.Duration, logger *log.Logger) *Aggregate {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Aggregate{store: store, ttl: ttl, log: logger.WithComponent(log.ComponentCache)}
}

// Get reads a cached aggregate; store failures degrade to a miss.
func (a *Aggregate) Get(ctx context.Context, key string) (string, bool) {
	v, found, err := a.store.Get(ctx, key)
	if err != nil {
		a.log.WarnContext(ctx, "aggregate read failed, falling back to store",
			log.FieldCacheKey, key, log.FieldError, err)
		return "", false
	}
	return v, found
}

// Put stores an aggregate value; failures are logged and swallowed.
func (a *Aggregate) Put(ctx context.Context, key, value string) {
	if err := a.store.Set(ctx, key, value, a.ttl); err != nil {
		a.log.WarnContext(ctx, "aggregate populate failed",
			log.FieldCacheKey, key, log.FieldError, err)
	}
}
