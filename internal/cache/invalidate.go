package cache

import (
	"context"
	"fmt"

	"centime/internal/kv"
)

// Invalidation enumerates everything one write must invalidate: Bump
// holds generation counters to increment (rotating list pages out of
// the key space), Del holds aggregate and single-item keys to delete.
type Invalidation struct {
	Bump []string
	Del  []string
}

// Empty reports whether there is nothing to apply.
func (inv Invalidation) Empty() bool {
	return len(inv.Bump) == 0 && len(inv.Del) == 0
}

// Invalidator applies invalidations as one atomic batch, so a
// concurrent reader never observes a new generation paired with a
// stale aggregate or vice versa.
//
// Callers run Apply inside the relational write's transactional
// boundary, before commit: an error here must abort the write, since
// an un-invalidated committed write would be stale past the TTL
// window. A reader racing the commit may still cache one pre-write
// page; that staleness is bounded by the entry TTL.
type Invalidator struct {
	store kv.Store
}

// NewInvalidator wires an Invalidator to the key-value store.
func NewInvalidator(store kv.Store) Invalidator {
	return Invalidator{store: store}
}

// Apply executes the batch; any store failure surfaces as an error.
func (i Invalidator) Apply(ctx context.Context, inv Invalidation) error {
	if inv.Empty() {
		return nil
	}
	b := i.store.Batch()
	for _, k := range inv.Bump {
		b.Incr(k, 1)
	}
	if len(inv.Del) > 0 {
		b.Del(inv.Del...)
	}
	if _, err := b.Exec(ctx); err != nil {
		return fmt.Errorf("apply cache invalidation: %w", err)
	}
	return nil
}
