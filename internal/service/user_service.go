package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	dom "Gatekeeper/internal/domain"
	"Gatekeeper/internal/repo"

	"golang.org/x/crypto/bcrypt"
)

// ValidationError is a user-input problem: empty field, duplicate username,
// wrong credentials. Always recoverable, the message is safe to show to the
// client verbatim, never retried. cause keeps the storage condition reachable
// through errors.Is without exposing it in the message.
type ValidationError struct {
	Message string
	cause   error
}

func (e *ValidationError) Error() string { return e.Message }

func (e *ValidationError) Unwrap() error { return e.cause }

// NewValidationError builds a ValidationError around a user-visible message.
// cause may be nil; when set it stays reachable through errors.Is/As.
func NewValidationError(message string, cause error) *ValidationError {
	return &ValidationError{Message: message, cause: cause}
}

func validationErrf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// UserService handles registration and credential verification.
type UserService struct {
	repo       repo.UserRepo
	bcryptCost int
}

// NewUserService returns a new UserService. cost <= 0 falls back to bcrypt.DefaultCost.
func NewUserService(repo repo.UserRepo, cost int) *UserService {
	if cost <= 0 {
		cost = bcrypt.DefaultCost
	}
	return &UserService{repo: repo, bcryptCost: cost}
}

// Register creates a new user with a hashed password.
// Duplicate usernames are resolved by the store's unique constraint, not by a
// pre-check, so concurrent submissions of the same name create exactly one record.
func (s *UserService) Register(ctx context.Context, username, password string) (dom.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return dom.User{}, validationErrf("Username is required.")
	}
	if password == "" {
		return dom.User{}, validationErrf("Password is required.")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return dom.User{}, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.repo.Create(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, repo.ErrDuplicateUsername) {
			return dom.User{}, NewValidationError(fmt.Sprintf("User %s is already registered.", username), err)
		}
		return dom.User{}, err
	}
	return u, nil
}

// Login checks username and password; returns the user if valid.
// "Incorrect username" vs "Incorrect password." are deliberately distinct
// messages; see DESIGN.md before unifying them.
func (s *UserService) Login(ctx context.Context, username, password string) (dom.User, error) {
	username = strings.TrimSpace(username)

	u, err := s.repo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repo.ErrUserNotFound) {
			return dom.User{}, validationErrf("Incorrect username")
		}
		return dom.User{}, err
	}
	// bcrypt compares in constant time.
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return dom.User{}, validationErrf("Incorrect password.")
	}
	return u, nil
}
