package kv

import (
	"context"
	"testing"
	"time"
)

func TestMemoryGetSet(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if _, found, _ := m.Get(ctx, "missing"); found {
		t.Error("missing key should not be found")
	}

	if err := m.Set(ctx, "k", "v", 0); err != nil {
		t.Fatalf("Set: %v", err)
	}
	v, found, err := m.Get(ctx, "k")
	if err != nil || !found || v != "v" {
		t.Errorf("Get = (%q, %v, %v), want (v, true, nil)", v, found, err)
	}
}

func TestMemoryTTLExpiry(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "k", "v", 10*time.Millisecond); err != nil {
		t.Fatalf("Set: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	if _, found, _ := m.Get(ctx, "k"); found {
		t.Error("expired key should be gone")
	}
	if ok, _ := m.Exists(ctx, "k"); ok {
		t.Error("Exists should report false after expiry")
	}
}

func TestMemorySetNX(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	ok, err := m.SetNX(ctx, "k", "first")
	if err != nil || !ok {
		t.Fatalf("first SetNX = (%v, %v), want (true, nil)", ok, err)
	}
	ok, err = m.SetNX(ctx, "k", "second")
	if err != nil || ok {
		t.Fatalf("second SetNX = (%v, %v), want (false, nil)", ok, err)
	}
	if v, _, _ := m.Get(ctx, "k"); v != "first" {
		t.Errorf("SetNX must not overwrite, got %q", v)
	}
}

func TestMemoryIncr(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	n, err := m.Incr(ctx, "ctr", 1)
	if err != nil || n != 1 {
		t.Fatalf("Incr on missing key = (%d, %v), want (1, nil)", n, err)
	}
	n, err = m.Incr(ctx, "ctr", 2)
	if err != nil || n != 3 {
		t.Fatalf("second Incr = (%d, %v), want (3, nil)", n, err)
	}
}

func TestMemoryBatchOrderAndResults(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// The generation-ensure round trip: SETNX then GET in one batch.
	b := m.Batch()
	b.SetNX("version", "1")
	b.Get("version")
	res, err := b.Exec(ctx)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if len(res) != 2 {
		t.Fatalf("got %d results, want 2", len(res))
	}
	if !res[0].Found {
		t.Error("SetNX should have initialized the counter")
	}
	if res[1].Value != "1" || !res[1].Found {
		t.Errorf("Get after SetNX = %+v, want value 1", res[1])
	}

	// Second run must observe the existing counter, not reset it.
	if _, err := m.Incr(ctx, "version", 1); err != nil {
		t.Fatal(err)
	}
	b = m.Batch()
	b.SetNX("version", "1")
	b.Get("version")
	res, err = b.Exec(ctx)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res[0].Found {
		t.Error("SetNX must not reinitialize an existing counter")
	}
	if res[1].Value != "2" {
		t.Errorf("counter = %q, want 2", res[1].Value)
	}
}

func TestMemoryBatchInvalidationShape(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.Set(ctx, "total", "10.00", 0); err != nil {
		t.Fatal(err)
	}
	if err := m.Set(ctx, "single", "{}", 0); err != nil {
		t.Fatal(err)
	}

	b := m.Batch()
	b.Incr("version", 1)
	b.Del("total", "single")
	res, err := b.Exec(ctx)
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res[0].Int != 1 {
		t.Errorf("version = %d, want 1", res[0].Int)
	}
	if res[1].Int != 2 {
		t.Errorf("deleted = %d, want 2", res[1].Int)
	}
	if ok, _ := m.Exists(ctx, "total"); ok {
		t.Error("aggregate key should be deleted")
	}
}
