// Package kv is a thin capability over a remote string/counter store
// with expiry. The service relies on its atomic primitives (SETNX,
// INCR and all-or-nothing batches) for every piece of cross-request
// coordination, so instances stay stateless and horizontally scalable.
package kv

import (
	"context"
	"time"
)

// Result holds the outcome of one batched operation. Which fields are
// meaningful depends on the operation: Get fills Value/Found, SetNX
// fills Found (value was written), Incr and Del fill Int.
type Result struct {
	Value string
	Found bool
	Int   int64
}

// Batch queues operations to be applied atomically: a concurrent
// reader observes either none or all of the batch's effects.
type Batch interface {
	Get(key string)
	Set(key, value string, ttl time.Duration)
	SetNX(key, value string)
	Incr(key string, delta int64)
	Del(keys ...string)

	// Exec applies the queued operations and returns one Result per
	// operation, in queue order.
	Exec(ctx context.Context) ([]Result, error)
}

// Store is the key-value capability consumed by the cache and session
// engines. A zero TTL means no expiry.
type Store interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	SetNX(ctx context.Context, key, value string) (bool, error)
	Incr(ctx context.Context, key string, delta int64) (int64, error)
	Del(ctx context.Context, keys ...string) error
	Exists(ctx context.Context, key string) (bool, error)
	Batch() Batch
	Ping(ctx context.Context) error
	Close() error
}
