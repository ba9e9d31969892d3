// Package cache is the versioned read-cache layer. Paginated list
// results are cached under keys that embed a per-scope generation
// counter; writes invalidate by bumping the counter (key-space
// rotation), while single items and aggregates are deleted explicitly.
//
// Read-path failures here degrade to a cache miss: the relational
// store remains the source of truth. Write-path invalidation failures
// are fatal to the enclosing write; see Invalidator.
package cache

import (
	"context"
	"time"

	"centime/internal/kv"
	"centime/internal/log"
)

// DefaultTTL bounds how long an orphaned entry can outlive its
// generation. It is also the accepted staleness window for the
// write-then-read race documented on Invalidator.
const DefaultTTL = 300 * time.Second

// Versioned is a read-through cache for one payload type V.
type Versioned[V any] struct {
	store kv.Store
	codec Codec[V]
	ttl   time.Duration
	log   *log.Logger
}

// NewVersioned builds a cache over the given store. A zero ttl falls
// back to DefaultTTL.
func NewVersioned[V any](store kv.Store, codec Codec[V], ttl time.Duration, logger *log.Logger) *Versioned[V] {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Versioned[V]{
		store: store,
		codec: codec,
		ttl:   ttl,
		log:   logger.WithComponent(log.ComponentCache),
	}
}

// Generation atomically ensures the scope's counter exists
// (initializing it to 1) and returns its current value, in a single
// round trip so initialization cannot race the read.
func (c *Versioned[V]) Generation(ctx context.Context, versionKey string) (string, error) {
	b := c.store.Batch()
	b.SetNX(versionKey, "1")
	b.Get(versionKey)
	res, err := b.Exec(ctx)
	if err != nil {
		return "", err
	}
	if !res[1].Found {
		// cannot happen inside an atomic batch; be permissive anyway
		return "1", nil
	}
	return res[1].Value, nil
}

// Get returns the cached value for key, reporting a miss on any store
// or decode failure. A payload that no longer decodes is dropped so
// the next read repopulates it.
func (c *Versioned[V]) Get(ctx context.Context, key string) (V, bool) {
	var zero V
	raw, found, err := c.store.Get(ctx, key)
	if err != nil {
		c.log.WarnContext(ctx, "cache read failed, falling back to store",
			log.FieldCacheKey, key, log.FieldError, err)
		return zero, false
	}
	if !found {
		return zero, false
	}
	v, err := c.codec.Decode([]byte(raw))
	if err != nil {
		c.log.WarnContext(ctx, "dropping corrupt cache entry",
			log.FieldCacheKey, key, log.FieldError, err)
		_ = c.store.Del(ctx, key)
		return zero, false
	}
	return v, true
}

// Put stores the value under key with the cache TTL. Failures are
// logged and swallowed: populating the cache is an optimization, not
// part of the request's contract.
func (c *Versioned[V]) Put(ctx context.Context, key string, v V) {
	raw, err := c.codec.Encode(v)
	if err != nil {
		c.log.WarnContext(ctx, "cache encode failed",
			log.FieldCacheKey, key, log.FieldError, err)
		return
	}
	if err := c.store.Set(ctx, key, string(raw), c.ttl); err != nil {
		c.log.WarnContext(ctx, "cache populate failed",
			log.FieldCacheKey, key, log.FieldError, err)
	}
}
