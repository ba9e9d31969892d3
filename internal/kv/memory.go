package kv

import (
	"context"
	"strconv"
	"sync"
	"time"
)

// Memory is an in-process Store used by tests and single-node
// development setups. Expired entries are dropped lazily on access.
// Batches apply under one lock, matching the atomicity Redis gives
// MULTI/EXEC transactions.
type Memory struct {
	mu    sync.Mutex
	items map[string]memEntry
}

type memEntry struct {
	value   string
	expires time.Time // zero means no expiry
}

var _ Store = (*Memory)(nil)

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]memEntry)}
}

func (m *Memory) get(key string, now time.Time) (string, bool) {
	e, ok := m.items[key]
	if !ok {
		return "", false
	}
	if !e.expires.IsZero() && now.After(e.expires) {
		delete(m.items, key)
		return "", false
	}
	return e.value, true
}

func (m *Memory) set(key, value string, ttl time.Duration, now time.Time) {
	e := memEntry{value: value}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	m.items[key] = e
}

func (m *Memory) incr(key string, delta int64, now time.Time) (int64, error) {
	cur := int64(0)
	if v, ok := m.get(key, now); ok {
		parsed, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, err
		}
		cur = parsed
	}
	cur += delta
	e := m.items[key] // keep any existing expiry
	e.value = strconv.FormatInt(cur, 10)
	m.items[key] = e
	return cur, nil
}

func (m *Memory) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.get(key, time.Now())
	return v, ok, nil
}

func (m *Memory) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.set(key, value, ttl, time.Now())
	return nil
}

func (m *Memory) SetNX(_ context.Context, key, value string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now()
	if _, ok := m.get(key, now); ok {
		return false, nil
	}
	m.set(key, value, 0, now)
	return true, nil
}

func (m *Memory) Incr(_ context.Context, key string, delta int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.incr(key, delta, time.Now())
}

func (m *Memory) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, k := range keys {
		delete(m.items, k)
	}
	return nil
}

func (m *Memory) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.get(key, time.Now())
	return ok, nil
}

func (m *Memory) Ping(context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

func (m *Memory) Batch() Batch { return &memBatch{store: m} }

type memBatch struct {
	store *Memory
	ops   []batchOp
}

func (b *memBatch) Get(key string) {
	b.ops = append(b.ops, batchOp{kind: opGet, key: key})
}

func (b *memBatch) Set(key, value string, ttl time.Duration) {
	b.ops = append(b.ops, batchOp{kind: opSet, key: key, value: value, ttl: ttl})
}

func (b *memBatch) SetNX(key, value string) {
	b.ops = append(b.ops, batchOp{kind: opSetNX, key: key, value: value})
}

func (b *memBatch) Incr(key string, delta int64) {
	b.ops = append(b.ops, batchOp{kind: opIncr, key: key, delta: delta})
}

func (b *memBatch) Del(keys ...string) {
	b.ops = append(b.ops, batchOp{kind: opDel, keys: keys})
}

func (b *memBatch) Exec(context.Context) ([]Result, error) {
	b.store.mu.Lock()
	defer b.store.mu.Unlock()

	now := time.Now()
	out := make([]Result, len(b.ops))
	for i, op := range b.ops {
		switch op.kind {
		case opGet:
			v, ok := b.store.get(op.key, now)
			out[i] = Result{Value: v, Found: ok}
		case opSet:
			b.store.set(op.key, op.value, op.ttl, now)
			out[i] = Result{Found: true}
		case opSetNX:
			if _, ok := b.store.get(op.key, now); ok {
				out[i] = Result{}
			} else {
				b.store.set(op.key, op.value, 0, now)
				out[i] = Result{Found: true}
			}
		case opIncr:
			n, err := b.store.incr(op.key, op.delta, now)
			if err != nil {
				return nil, err
			}
			out[i] = Result{Int: n}
		case opDel:
			var n int64
			for _, k := range op.keys {
				if _, ok := b.store.get(k, now); ok {
					delete(b.store.items, k)
					n++
				}
			}
			out[i] = Result{Int: n}
		}
	}
	return out, nil
}
