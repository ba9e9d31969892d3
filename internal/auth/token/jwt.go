// Package token signs and verifies the two JWT kinds the service
// issues: short-lived stateless access tokens and long-lived refresh
// tokens carrying a unique token id (jti).
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken covers every verification failure: bad
	// signature, expiry, malformed claims. Callers fail closed.
	ErrInvalidToken = errors.New("invalid token")
)

// RefreshClaims is the verified content of a refresh token.
type RefreshClaims struct {
	UserID uuid.UUID
	JTI    string
}

// Manager signs and verifies tokens with a single HMAC secret.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// New creates a Manager. TTLs apply to the signed exp claims.
func New(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{secret: []byte(secret), accessTTL: accessTTL, refreshTTL: refreshTTL}
}

// AccessTTL returns the access-token lifetime, used for cookie expiry.
func (m *Manager) AccessTTL() time.Duration { return m.accessTTL }

// RefreshTTL returns the refresh-token lifetime.
func (m *Manager) RefreshTTL() time.Duration { return m.refreshTTL }

// SignAccess issues a stateless access token for the user.
func (m *Manager) SignAccess(userID uuid.UUID) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// SignRefresh issues a refresh token embedding the given jti.
func (m *Manager) SignRefresh(userID uuid.UUID, jti string) (string, error) {
	now := time.Now().UTC()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
		ID:        jti,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// VerifyAccess validates signature and expiry and returns the subject
// user id. No store lookup happens here: access tokens are stateless.
func (m *Manager) VerifyAccess(raw string) (uuid.UUID, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return uuid.Nil, err
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return userID, nil
}

// VerifyRefresh validates signature and expiry and returns the subject
// and jti. Liveness of the jti is the session engine's concern.
func (m *Manager) VerifyRefresh(raw string) (RefreshClaims, error) {
	claims, err := m.parse(raw)
	if err != nil {
		return RefreshClaims{}, err
	}
	if claims.ID == "" {
		return RefreshClaims{}, fmt.Errorf("%w: missing jti", ErrInvalidToken)
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return RefreshClaims{}, fmt.Errorf("%w: bad subject", ErrInvalidToken)
	}
	return RefreshClaims{UserID: userID, JTI: claims.ID}, nil
}

func (m *Manager) parse(raw string) (*jwt.RegisteredClaims, error) {
	var claims jwt.RegisteredClaims
	tkn, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tkn.Valid {
		return nil, ErrInvalidToken
	}
	return &claims, nil
}
