// Package auth is the identity gate: it maps credential pairs to
// authenticated identities and scopes every record-store call to one.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"betledger/internal/core"
)

// Identity is an authenticated user on whose behalf records are scoped.
type Identity string

// UserStore persists credentials. Only the bcrypt hash ever reaches it.
type UserStore interface {
	// CreateUser stores a new credential pair; a duplicate username
	// yields core.ErrUsernameTaken.
	CreateUser(ctx context.Context, username, passwordHash string) error
	// GetPasswordHash returns the stored hash, or core.ErrNotFound for
	// an unknown username.
	GetPasswordHash(ctx context.Context, username string) (string, error)
}

type Service struct {
	users UserStore
}

// dummyHash is compared against when a username does not exist, so the
// unknown-username path costs the same bcrypt work as a real mismatch
// and does not leak which usernames are registered.
var dummyHash []byte

func init() {
	var err error
	dummyHash, err = bcrypt.GenerateFromPassword([]byte("betledger.invalid"), bcrypt.DefaultCost)
	if err != nil {
		panic(fmt.Sprintf("generate dummy hash: %v", err))
	}
}

func NewService(users UserStore) *Service {
	return &Service{users: users}
}

// Register stores a salted one-way hash of the password, never the
// plaintext. Registering an existing username fails with
// core.ErrUsernameTaken and leaves the original credential valid.
func (s *Service) Register(ctx context.Context, username, password string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return core.ErrEmptyUsername
	}
	if password == "" {
		return core.ErrEmptyPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.CreateUser(ctx, username, string(hash)); err != nil {
		return err
	}
	slog.InfoContext(ctx, "User registered", "username", username)
	return nil
}

// Authenticate verifies the credential pair and returns the identity.
// Every failure surfaces as core.ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, username, password string) (Identity, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return "", core.ErrInvalidCredentials
	}

	hash, err := s.users.GetPasswordHash(ctx, username)
	if errors.Is(err, core.ErrNotFound) {
		// Burn the same bcrypt cost as the known-user path.
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", core.ErrInvalidCredentials
	}
	if err != nil {
		return "", fmt.Errorf("load credential: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		slog.DebugContext(ctx, "Authentication failed", "username", username)
		return "", core.ErrInvalidCredentials
	}
	return Identity(username), nil
}
