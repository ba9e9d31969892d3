// Package services orchestrates domain operations across the
// relational store, the cache layer, the session engine and the event
// publisher. Handlers stay thin; everything stateful happens here.
package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"centime/internal/auth/password"
	"centime/internal/auth/session"
	"centime/internal/core"
	"centime/internal/log"
	"centime/internal/storage"
)

// AuthResult carries the outcome of register, login and refresh. The
// transport layer turns the pair into cookies and echoes the email.
type AuthResult struct {
	Email string
	Pair  session.Pair
}

// AuthService handles account creation and credential issuance.
type AuthService struct {
	repo     *storage.Repository
	sessions *session.Engine
	log      *log.Logger
}

func NewAuthService(repo *storage.Repository, sessions *session.Engine, logger *log.Logger) *AuthService {
	return &AuthService{
		repo:     repo,
		sessions: sessions,
		log:      logger.WithComponent(log.ComponentAuth),
	}
}

// Register validates the input, scores the password with the user's
// own email and name as penalized inputs, and creates the account. No
// row is written and no token is signed when the password is weak.
func (s *AuthService) Register(ctx context.Context, in core.RegisterInput) (AuthResult, error) {
	if err := in.Validate(); err != nil {
		return AuthResult{}, err
	}
	if !password.Acceptable(in.Password, in.Email, in.Name) {
		return AuthResult{}, core.ErrWeakPassword
	}

	hash, err := password.Hash(in.Password)
	if err != nil {
		return AuthResult{}, core.Internal(err)
	}

	u := core.User{
		ID:           uuid.New(),
		Email:        in.Email,
		Name:         in.Name,
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.repo.CreateUser(ctx, u); err != nil {
		return AuthResult{}, domainErr(err)
	}

	pair, err := s.sessions.Start(ctx, u.ID)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.InfoContext(ctx, "user registered", log.FieldUserID, u.ID)
	return AuthResult{Email: u.Email, Pair: pair}, nil
}

// Login verifies credentials and opens a fresh session. A missing
// account and a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, in core.LoginInput) (AuthResult, error) {
	if err := in.Validate(); err != nil {
		return AuthResult{}, err
	}

	u, err := s.repo.GetUserByEmail(ctx, in.Email)
	if err != nil {
		if errors.Is(err, core.ErrUserNotFound) {
			return AuthResult{}, core.ErrInvalidCredentials
		}
		return AuthResult{}, domainErr(err)
	}
	if !password.Verify(u.PasswordHash, in.Password) {
		return AuthResult{}, core.ErrInvalidCredentials
	}

	pair, err := s.sessions.Start(ctx, u.ID)
	if err != nil {
		return AuthResult{}, err
	}

	s.log.InfoContext(ctx, "user logged in", log.FieldUserID, u.ID)
	return AuthResult{Email: u.Email, Pair: pair}, nil
}

// Refresh rotates a presented refresh token through the session
// engine.
func (s *AuthService) Refresh(ctx context.Context, rawRefresh string) (AuthResult, error) {
	pair, user, err := s.sessions.Rotate(ctx, rawRefresh)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{Email: user.Email, Pair: pair}, nil
}

// domainErr passes tagged domain errors through and wraps everything
// else as internal.
func domainErr(err error) error {
	var ce *core.Error
	if errors.As(err, &ce) {
		return err
	}
	return core.Internal(err)
}
