// Package auth handles account registration and credential checks.
// Passwords are stored as bcrypt hashes only.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"fintrack/internal/storage"
)

var (
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrInvalidUsername    = errors.New("username must be between 3 and 64 characters")
)

// UserStore is the subset of the repository the auth service needs.
type UserStore interface {
	CreateUser(ctx context.Context, username, passwordHash string) (int64, error)
	GetUserByUsername(ctx context.Context, username string) (int64, string, error)
}

type Service struct {
	store UserStore
}

func NewService(store UserStore) *Service {
	return &Service{store: store}
}

// Register creates a new account and returns its owner id.
func (s *Service) Register(ctx context.Context, username, password string) (int64, error) {
	username = strings.TrimSpace(username)
	if len(username) < 3 || len(username) > 64 {
		return 0, ErrInvalidUsername
	}
	if len(password) < 8 {
		return 0, ErrWeakPassword
	}

	if _, _, err := s.store.GetUserByUsername(ctx, username); err == nil {
		return 0, ErrUsernameTaken
	} else if !errors.Is(err, storage.ErrNotFound) {
		return 0, fmt.Errorf("check username: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return 0, fmt.Errorf("hash password: %w", err)
	}

	id, err := s.store.CreateUser(ctx, username, string(hash))
	if err != nil {
		return 0, fmt.Errorf("create user: %w", err)
	}

	slog.InfoContext(ctx, "Account registered", "owner", id, "username", username)
	return id, nil
}

// Authenticate verifies the credentials and returns the owner id. The
// error is the same whether the user is unknown or the password wrong.
func (s *Service) Authenticate(ctx context.Context, username, password string) (int64, error) {
	id, hash, err := s.store.GetUserByUsername(ctx, strings.TrimSpace(username))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, ErrInvalidCredentials
	}
	if err != nil {
		return 0, fmt.Errorf("get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return 0, ErrInvalidCredentials
	}
	return id, nil
}
