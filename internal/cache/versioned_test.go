package cache

import (
	"context"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"centime/internal/kv"
	"centime/internal/log"
)

type pagePayload struct {
	Items []string `json:"items"`
	Total string   `json:"total"`
}

func testLogger() *log.Logger {
	return log.New(log.Config{Level: slog.LevelError})
}

func TestGenerationInitializesOnce(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	c := NewVersioned[pagePayload](store, JSONCodec[pagePayload]{}, 0, testLogger())

	key := ExpensesVersionKey(uuid.New())

	gen, err := c.Generation(ctx, key)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if gen != "1" {
		t.Errorf("first generation = %q, want 1", gen)
	}

	// a second resolve must observe the same counter
	gen2, err := c.Generation(ctx, key)
	if err != nil {
		t.Fatalf("Generation: %v", err)
	}
	if gen2 != "1" {
		t.Errorf("second generation = %q, want 1", gen2)
	}
}

func TestGenerationAdvancesAfterInvalidation(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	c := NewVersioned[pagePayload](store, JSONCodec[pagePayload]{}, 0, testLogger())
	inv := NewInvalidator(store)

	userID := uuid.New()
	vkey := ExpensesVersionKey(userID)

	if _, err := c.Generation(ctx, vkey); err != nil {
		t.Fatal(err)
	}
	if err := inv.Apply(ctx, Invalidation{Bump: []string{vkey}}); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	gen, err := c.Generation(ctx, vkey)
	if err != nil {
		t.Fatal(err)
	}
	if gen != "2" {
		t.Errorf("generation after bump = %q, want 2", gen)
	}
}

func TestReadThroughHitAndMiss(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	c := NewVersioned[pagePayload](store, JSONCodec[pagePayload]{}, 0, testLogger())

	userID := uuid.New()
	gen, _ := c.Generation(ctx, ExpensesVersionKey(userID))
	key := ExpensesPageKey(userID, 1, gen)

	if _, ok := c.Get(ctx, key); ok {
		t.Fatal("cold cache should miss")
	}

	want := pagePayload{Items: []string{"e1"}, Total: "10.00"}
	c.Put(ctx, key, want)

	got, ok := c.Get(ctx, key)
	if !ok {
		t.Fatal("populated key should hit")
	}
	if len(got.Items) != 1 || got.Items[0] != "e1" || got.Total != "10.00" {
		t.Errorf("cached payload = %+v, want %+v", got, want)
	}
}

func TestStalePageUnreachableAfterBump(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	c := NewVersioned[pagePayload](store, JSONCodec[pagePayload]{}, 0, testLogger())
	inv := NewInvalidator(store)

	userID := uuid.New()
	vkey := ExpensesVersionKey(userID)

	gen, _ := c.Generation(ctx, vkey)
	c.Put(ctx, ExpensesPageKey(userID, 1, gen), pagePayload{Items: []string{"old"}})

	if err := inv.Apply(ctx, Invalidation{Bump: []string{vkey}}); err != nil {
		t.Fatal(err)
	}

	newGen, _ := c.Generation(ctx, vkey)
	if newGen == gen {
		t.Fatalf("generation did not advance: %q", newGen)
	}
	if _, ok := c.Get(ctx, ExpensesPageKey(userID, 1, newGen)); ok {
		t.Error("page cached under the old generation must miss under the new one")
	}
}

func TestCorruptEntrySelfHeals(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	c := NewVersioned[pagePayload](store, JSONCodec[pagePayload]{}, 0, testLogger())

	if err := store.Set(ctx, "bad", "{not json", 0); err != nil {
		t.Fatal(err)
	}
	if _, ok := c.Get(ctx, "bad"); ok {
		t.Fatal("corrupt entry must miss")
	}
	if found, _ := store.Exists(ctx, "bad"); found {
		t.Error("corrupt entry should have been dropped")
	}
}

func TestInvalidatorAppliesBumpAndDeleteTogether(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	inv := NewInvalidator(store)

	userID := uuid.New()
	catID := uuid.New()
	expID := uuid.New()
	total := TotalExpensesKey(userID)
	catTotal := CategoryTotalKey(userID, catID)
	single := SingleExpenseKey(userID, expID)

	for _, k := range []string{total, catTotal, single} {
		if err := store.Set(ctx, k, "x", 0); err != nil {
			t.Fatal(err)
		}
	}

	err := inv.Apply(ctx, Invalidation{
		Bump: []string{ExpensesVersionKey(userID), CategoryFilterVersionKey(userID, catID)},
		Del:  []string{total, catTotal, single},
	})
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}

	for _, k := range []string{total, catTotal, single} {
		if ok, _ := store.Exists(ctx, k); ok {
			t.Errorf("key %q should be deleted", k)
		}
	}
	if v, _, _ := store.Get(ctx, ExpensesVersionKey(userID)); v != "1" {
		t.Errorf("expenses version = %q, want 1", v)
	}
	if v, _, _ := store.Get(ctx, CategoryFilterVersionKey(userID, catID)); v != "1" {
		t.Errorf("filter version = %q, want 1", v)
	}
}

func TestMsgpackCodecRoundTrip(t *testing.T) {
	codec := MsgpackCodec[pagePayload]{}
	want := pagePayload{Items: []string{"a", "b"}, Total: "3.50"}

	raw, err := codec.Encode(want)
	if err != nil {
		t.Fatalf("Encode: %v", err)
	}
	got, err := codec.Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(got.Items) != 2 || got.Total != want.Total {
		t.Errorf("round trip = %+v, want %+v", got, want)
	}
}
