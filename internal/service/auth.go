// Package service orchestrates authentication, folders and notes: it
// validates requests, applies the authorization policy and calls the store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/foldernotes/notes-server/internal/auth"
	"github.com/foldernotes/notes-server/internal/domain"
	domainerrors "github.com/foldernotes/notes-server/internal/errors"
	"github.com/foldernotes/notes-server/internal/metrics"
	"github.com/foldernotes/notes-server/internal/store"
	"github.com/foldernotes/notes-server/internal/validation"
)

// Auth event names recorded in metrics.
const (
	eventRegister       = "register"
	eventLogin          = "login"
	eventLogout         = "logout"
	eventChangePassword = "change_password"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
}

// UserStore is the part of store.Store the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, user *domain.User) error
	GetUserByUsername(ctx context.Context, username string) (*domain.User, error)
	UpdatePassword(ctx context.Context, userID int64, passwordHash string) error
}

// AuthService registers accounts and issues, revokes and re-keys credentials.
type AuthService struct {
	users     UserStore
	hasher    PasswordHasher
	issuer    auth.Issuer
	validator *validation.Validator
	logger    *slog.Logger
}

// NewAuthService creates an authentication service.
func NewAuthService(users UserStore, hasher PasswordHasher, issuer auth.Issuer, validator *validation.Validator, logger *slog.Logger) *AuthService {
	return &AuthService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		validator: validator,
		logger:    logger,
	}
}

// RegisterRequest contains new account data.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,max=20"`
	Username string `json:"username" validate:"required,max=20"`
	Password string `json:"password" validate:"required,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// ChangePasswordRequest re-keys an account identified by username.
type ChangePasswordRequest struct {
	Username    string `json:"username" validate:"required"`
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,max=1024"`
}

// LoginResult is a successful login.
type LoginResult struct {
	Identity   domain.Identity
	Credential auth.Credential
	Strategy   auth.Strategy
}

// Register creates an account.
func (s *AuthService) Register(ctx context.Context, req RegisterRequest) (*domain.User, error) {
	if err := s.validator.Validate(req); err != nil {
		metrics.RecordAuthEvent(eventRegister, metrics.OutcomeFailure)
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		metrics.RecordAuthEvent(eventRegister, metrics.OutcomeError)
		return nil, domainerrors.ErrInternal.WithCause(fmt.Errorf("hash password: %w", err))
	}

	user := &domain.User{Username: req.Username, Name: req.Name, PasswordHash: hash}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrAlreadyExists) {
			metrics.RecordAuthEvent(eventRegister, metrics.OutcomeFailure)
			return nil, domainerrors.Conflict("username already taken")
		}
		metrics.RecordAuthEvent(eventRegister, metrics.OutcomeError)
		return nil, s.internal("Failed to create user", err)
	}

	metrics.RecordAuthEvent(eventRegister, metrics.OutcomeSuccess)
	s.logger.Info("User registered", "user_id", user.ID, "username", user.Username)

	return user, nil
}

// Login verifies credentials and issues a credential of the configured strategy.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := s.validator.Validate(req); err != nil {
		metrics.RecordAuthEvent(eventLogin, metrics.OutcomeFailure)
		return nil, err
	}

	user, err := s.verify(ctx, req.Username, req.Password)
	if err != nil {
		recordOutcome(eventLogin, err)
		return nil, err
	}

	identity := user.Identity()
	credential, err := s.issuer.Issue(ctx, identity)
	if err != nil {
		metrics.RecordAuthEvent(eventLogin, metrics.OutcomeError)
		return nil, s.internal("Failed to issue credential", err)
	}

	metrics.RecordAuthEvent(eventLogin, metrics.OutcomeSuccess)
	s.logger.Info("User logged in", "user_id", user.ID, "strategy", s.issuer.Strategy())

	return &LoginResult{Identity: identity, Credential: credential, Strategy: s.issuer.Strategy()}, nil
}

// Logout revokes credential. It succeeds for empty, unknown or already
// revoked credentials. With tokens nothing is revoked server-side.
func (s *AuthService) Logout(ctx context.Context, credential string) error {
	if err := s.issuer.Revoke(ctx, credential); err != nil {
		metrics.RecordAuthEvent(eventLogout, metrics.OutcomeError)
		return s.internal("Failed to revoke credential", err)
	}
	metrics.RecordAuthEvent(eventLogout, metrics.OutcomeSuccess)
	return nil
}

// ChangePassword replaces the password of the account named in req after
// checking the old password. Outstanding credentials stay valid.
func (s *AuthService) ChangePassword(ctx context.Context, req ChangePasswordRequest) error {
	if err := s.validator.Validate(req); err != nil {
		metrics.RecordAuthEvent(eventChangePassword, metrics.OutcomeFailure)
		return err
	}

	user, err := s.verify(ctx, req.Username, req.OldPassword)
	if err != nil {
		recordOutcome(eventChangePassword, err)
		return err
	}

	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		metrics.RecordAuthEvent(eventChangePassword, metrics.OutcomeError)
		return domainerrors.ErrInternal.WithCause(fmt.Errorf("hash password: %w", err))
	}

	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		metrics.RecordAuthEvent(eventChangePassword, metrics.OutcomeError)
		return s.internal("Failed to update password", err)
	}

	metrics.RecordAuthEvent(eventChangePassword, metrics.OutcomeSuccess)
	s.logger.Info("Password changed", "user_id", user.ID)
	return nil
}

// verify looks up username and checks password against the stored hash.
func (s *AuthService) verify(ctx context.Context, username, password string) (*domain.User, error) {
	user, err := s.users.GetUserByUsername(ctx, username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, domainerrors.Forbidden("user does not exist")
	}
	if err != nil {
		return nil, s.internal("Failed to look up user", err)
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, s.internal("Failed to verify password", err)
	}
	if !ok {
		return nil, domainerrors.Forbidden("incorrect password")
	}
	return user, nil
}

func (s *AuthService) internal(msg string, err error) error {
	s.logger.Error(msg, "error", err)
	return domainerrors.ErrInternal.WithCause(err)
}

// recordOutcome counts err as a failure unless it is an internal error.
func recordOutcome(event string, err error) {
	if errors.Is(err, domainerrors.ErrInternal) {
		metrics.RecordAuthEvent(event, metrics.OutcomeError)
		return
	}
	metrics.RecordAuthEvent(event, metrics.OutcomeFailure)
}
