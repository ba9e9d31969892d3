// Package session implements refresh-token rotation. A refresh token
// is live only while its jti record exists in the key-value store; a
// successful rotation records a fresh jti and removes the presented
// one, so replaying a consumed token always fails closed.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"centime/internal/auth/token"
	"centime/internal/core"
	"centime/internal/kv"
	"centime/internal/log"
)

// DefaultRecordTTL is how long a refresh record stays valid when the
// token is never exchanged.
const DefaultRecordTTL = 7 * 24 * time.Hour

// TokenSigner is the credential-issuance capability this engine needs;
// *token.Manager satisfies it.
type TokenSigner interface {
	SignAccess(userID uuid.UUID) (string, error)
	SignRefresh(userID uuid.UUID, jti string) (string, error)
	VerifyRefresh(raw string) (token.RefreshClaims, error)
}

// UserSource confirms the subject of a presented refresh token still
// exists before a new pair is issued.
type UserSource interface {
	GetUserByID(ctx context.Context, id uuid.UUID) (core.User, error)
}

// Pair is one issued access/refresh credential pair.
type Pair struct {
	Access     string
	Refresh    string
	RefreshJTI string
}

// Engine issues and rotates credential pairs.
type Engine struct {
	kv        kv.Store
	tokens    TokenSigner
	users     UserSource
	recordTTL time.Duration
	log       *log.Logger
}

// New wires the engine. A zero recordTTL falls back to DefaultRecordTTL.
func New(store kv.Store, tokens TokenSigner, users UserSource, recordTTL time.Duration, logger *log.Logger) *Engine {
	if recordTTL <= 0 {
		recordTTL = DefaultRecordTTL
	}
	return &Engine{
		kv:        store,
		tokens:    tokens,
		users:     users,
		recordTTL: recordTTL,
		log:       logger.WithComponent(log.ComponentSession),
	}
}

// RecordKey is the key-value-store key whose existence makes a refresh
// token live.
func RecordKey(userID uuid.UUID, jti string) string {
	return fmt.Sprintf("user:%s:refresh:%s", userID, jti)
}

// Start opens a new refresh lineage for the user. The jti record is
// written before any token is signed: an access token without a
// recorded refresh lineage would leave the user unable to renew, so a
// record failure fails the whole registration/login.
func (e *Engine) Start(ctx context.Context, userID uuid.UUID) (Pair, error) {
	jti := uuid.NewString()
	if err := e.kv.Set(ctx, RecordKey(userID, jti), jti, e.recordTTL); err != nil {
		return Pair{}, core.Internal(fmt.Errorf("record refresh token: %w", err))
	}
	return e.sign(userID, jti)
}

// Rotate exchanges a presented refresh token for a new pair.
//
// The new jti is recorded before the old record is deleted: if the
// delete fails, the lineage briefly holds two valid records, which
// only widens a legitimate session; the reverse order could strand the
// user with none on a transient failure. The old-record delete failure
// is therefore logged, not fatal.
func (e *Engine) Rotate(ctx context.Context, raw string) (Pair, core.User, error) {
	claims, err := e.tokens.VerifyRefresh(raw)
	if err != nil {
		return Pair{}, core.User{}, core.ErrUnauthorized
	}

	oldKey := RecordKey(claims.UserID, claims.JTI)
	exists, err := e.kv.Exists(ctx, oldKey)
	if err != nil {
		return Pair{}, core.User{}, core.Internal(fmt.Errorf("check refresh token: %w", err))
	}
	if !exists {
		// expired or already consumed; both mean the presented
		// credential is dead
		return Pair{}, core.User{}, core.ErrUnauthorized
	}

	user, err := e.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return Pair{}, core.User{}, core.ErrUnauthorized
		}
		return Pair{}, core.User{}, err
	}

	pair, err := e.Start(ctx, user.ID)
	if err != nil {
		return Pair{}, core.User{}, err
	}

	if err := e.kv.Del(ctx, oldKey); err != nil {
		e.log.WarnContext(ctx, "failed to delete consumed refresh record, leaving it to expire",
			log.FieldUserID, user.ID, log.FieldJTI, claims.JTI, log.FieldError, err)
	}

	return pair, user, nil
}

func (e *Engine) sign(userID uuid.UUID, jti string) (Pair, error) {
	access, err := e.tokens.SignAccess(userID)
	if err != nil {
		return Pair{}, core.Internal(fmt.Errorf("sign access token: %w", err))
	}
	refresh, err := e.tokens.SignRefresh(userID, jti)
	if err != nil {
		return Pair{}, core.Internal(fmt.Errorf("sign refresh token: %w", err))
	}
	return Pair{Access: access, Refresh: refresh, RefreshJTI: jti}, nil
}
