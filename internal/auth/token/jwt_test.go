package token

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestAccessRoundTrip(t *testing.T) {
	m := New("test-secret", 15*time.Minute, 7*24*time.Hour)
	userID := uuid.New()

	raw, err := m.SignAccess(userID)
	if err != nil {
		t.Fatal(err)
	}
	got, err := m.VerifyAccess(raw)
	if err != nil {
		t.Fatal(err)
	}
	if got != userID {
		t.Errorf("subject = %s, want %s", got, userID)
	}
}

func TestRefreshCarriesJTI(t *testing.T) {
	m := New("test-secret", 15*time.Minute, 7*24*time.Hour)
	userID := uuid.New()
	jti := uuid.NewString()

	raw, err := m.SignRefresh(userID, jti)
	if err != nil {
		t.Fatal(err)
	}
	claims, err := m.VerifyRefresh(raw)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != userID {
		t.Errorf("subject = %s, want %s", claims.UserID, userID)
	}
	if claims.JTI != jti {
		t.Errorf("jti = %s, want %s", claims.JTI, jti)
	}
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	userID := uuid.New()
	raw, err := New("secret-a", time.Minute, time.Hour).SignAccess(userID)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New("secret-b", time.Minute, time.Hour).VerifyAccess(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m := New("test-secret", -time.Minute, -time.Minute)
	raw, err := m.SignAccess(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.VerifyAccess(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRefreshRejectsAccessToken(t *testing.T) {
	// An access token has no jti and must never pass the refresh path.
	m := New("test-secret", 15*time.Minute, 7*24*time.Hour)
	raw, err := m.SignAccess(uuid.New())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := m.VerifyRefresh(raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyRejectsGarbage(t *testing.T) {
	m := New("test-secret", time.Minute, time.Hour)
	if _, err := m.VerifyAccess("not-a-token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
