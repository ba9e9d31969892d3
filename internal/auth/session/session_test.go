package session

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"

	"centime/internal/auth/token"
	"centime/internal/core"
	"centime/internal/kv"
	"centime/internal/log"
)

type stubUsers struct {
	users map[uuid.UUID]core.User
}

func (s stubUsers) GetUserByID(_ context.Context, id uuid.UUID) (core.User, error) {
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrUserNotFound
	}
	return u, nil
}

func newTestEngine(store kv.Store, users UserSource) *Engine {
	tokens := token.New("test-secret", 15*time.Minute, 7*24*time.Hour)
	logger := log.New(log.Config{Level: slog.LevelError})
	return New(store, tokens, users, 0, logger)
}

func TestStartRecordsBeforeIssuing(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	userID := uuid.New()
	e := newTestEngine(store, stubUsers{users: map[uuid.UUID]core.User{userID: {ID: userID}}})

	pair, err := e.Start(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if pair.Access == "" || pair.Refresh == "" || pair.RefreshJTI == "" {
		t.Fatalf("incomplete pair: %+v", pair)
	}

	exists, err := store.Exists(ctx, RecordKey(userID, pair.RefreshJTI))
	if err != nil {
		t.Fatal(err)
	}
	if !exists {
		t.Error("refresh record missing after Start")
	}
}

func TestRotateIssuesFreshJTIAndConsumesOld(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	userID := uuid.New()
	e := newTestEngine(store, stubUsers{users: map[uuid.UUID]core.User{userID: {ID: userID, Email: "a@b.c"}}})

	first, err := e.Start(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}

	second, user, err := e.Rotate(ctx, first.Refresh)
	if err != nil {
		t.Fatal(err)
	}
	if user.ID != userID {
		t.Errorf("user = %s, want %s", user.ID, userID)
	}
	if second.RefreshJTI == first.RefreshJTI {
		t.Error("rotation reused the jti")
	}

	if exists, _ := store.Exists(ctx, RecordKey(userID, first.RefreshJTI)); exists {
		t.Error("old refresh record still live after rotation")
	}
	if exists, _ := store.Exists(ctx, RecordKey(userID, second.RefreshJTI)); !exists {
		t.Error("new refresh record missing after rotation")
	}
}

func TestRotateRejectsReplayedToken(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	userID := uuid.New()
	e := newTestEngine(store, stubUsers{users: map[uuid.UUID]core.User{userID: {ID: userID}}})

	first, err := e.Start(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Rotate(ctx, first.Refresh); err != nil {
		t.Fatal(err)
	}

	// The token itself is still signed and unexpired; only its record
	// is gone.
	if _, _, err := e.Rotate(ctx, first.Refresh); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("replay err = %v, want ErrUnauthorized", err)
	}
}

func TestRotateRejectsUnknownToken(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(kv.NewMemory(), stubUsers{})

	if _, _, err := e.Rotate(ctx, "not-a-token"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRotateRejectsDeletedUser(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	userID := uuid.New()
	e := newTestEngine(store, stubUsers{})

	pair, err := e.Start(ctx, userID)
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Rotate(ctx, pair.Refresh); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}

func TestRotateRejectsForeignSignature(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	userID := uuid.New()
	e := newTestEngine(store, stubUsers{users: map[uuid.UUID]core.User{userID: {ID: userID}}})

	foreign := token.New("other-secret", 15*time.Minute, 7*24*time.Hour)
	raw, err := foreign.SignRefresh(userID, uuid.NewString())
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := e.Rotate(ctx, raw); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("err = %v, want ErrUnauthorized", err)
	}
}
